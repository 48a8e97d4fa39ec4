package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA color with components in [0, 1]. It unmarshals from hex
// strings like "#rrggbb" or "#rrggbbaa".
type Color [4]float32

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color %q: expected #rrggbb or #rrggbbaa", string(text))
	}

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", string(text), err)
	}

	if len(s) == 6 {
		v = v<<8 | 0xff
	}

	c[0] = float32(v>>24&0xff) / 255
	c[1] = float32(v>>16&0xff) / 255
	c[2] = float32(v>>8&0xff) / 255
	c[3] = float32(v&0xff) / 255
	return nil
}

// PerUrgency holds a color for each urgency level.
type PerUrgency struct {
	Low      Color `toml:"low"`
	Normal   Color `toml:"normal"`
	Critical Color `toml:"critical"`
}

// Get returns the color for the given urgency level.
func (p PerUrgency) Get(urgency int) Color {
	switch urgency {
	case UrgencyLow:
		return p.Low
	case UrgencyCritical:
		return p.Critical
	default:
		return p.Normal
	}
}

// Insets describes padding or margin on each side, in pixels.
type Insets struct {
	Top    float32 `toml:"top"`
	Right  float32 `toml:"right"`
	Bottom float32 `toml:"bottom"`
	Left   float32 `toml:"left"`
}

// Horizontal returns the combined left and right inset.
func (i Insets) Horizontal() float32 { return i.Left + i.Right }

// Vertical returns the combined top and bottom inset.
func (i Insets) Vertical() float32 { return i.Top + i.Bottom }

// BorderStyle describes a popup border.
type BorderStyle struct {
	Size   float32    `toml:"size"`
	Radius float32    `toml:"radius"`
	Color  PerUrgency `toml:"color"`
}

// FontStyle describes popup text rendering.
type FontStyle struct {
	Family string     `toml:"family"`
	Size   float32    `toml:"size"`
	Color  PerUrgency `toml:"color"`
}

// Style describes the appearance and geometry of a popup entry.
type Style struct {
	Width      float32     `toml:"width"`
	MinHeight  float32     `toml:"min_height"`
	Padding    Insets      `toml:"padding"`
	Margin     Insets      `toml:"margin"`
	Border     BorderStyle `toml:"border"`
	Font       FontStyle   `toml:"font"`
	Background PerUrgency  `toml:"background"`
}

// CounterStyle controls the pseudo-entries shown when the collection
// overflows the visible window. The format strings substitute "{}" with the
// number of hidden notifications.
type CounterStyle struct {
	PrevFormat string `toml:"prev_format"`
	NextFormat string `toml:"next_format"`
}

// Format renders a counter label with the given hidden count.
func (c CounterStyle) Format(format string, hidden int) string {
	return strings.ReplaceAll(format, "{}", strconv.Itoa(hidden))
}

// StylesConfig contains styling for each popup state plus the overflow
// counters. Per-app entries override the state styles for matching apps.
type StylesConfig struct {
	Default StyleOverride   `toml:"default"`
	Hover   StyleOverride   `toml:"hover"`
	Hint    StyleOverride   `toml:"hint"`
	Counter CounterStyle    `toml:"counter"`
	Apps    []AppStyleEntry `toml:"apps"`
}

// StyleOverride wraps Style for use as a named TOML table. Overlays start
// from the built-in style, so partial tables only replace what they name.
type StyleOverride struct {
	Style
}

// AppStyleEntry scopes a style override to a single application.
type AppStyleEntry struct {
	App     string        `toml:"app"`
	Default StyleOverride `toml:"default"`
	Hover   StyleOverride `toml:"hover"`
}

// DefaultStyles returns the built-in style set.
func DefaultStyles() StylesConfig {
	base := Style{
		Width:     400,
		MinHeight: 60,
		Padding:   Insets{Top: 10, Right: 10, Bottom: 10, Left: 10},
		Margin:    Insets{Top: 5, Right: 5, Bottom: 0, Left: 5},
		Border: BorderStyle{
			Size:   2,
			Radius: 8,
			Color: PerUrgency{
				Low:      mustColor("#4c566a"),
				Normal:   mustColor("#88c0d0"),
				Critical: mustColor("#bf616a"),
			},
		},
		Font: FontStyle{
			Family: "sans-serif",
			Size:   14,
			Color: PerUrgency{
				Low:      mustColor("#d8dee9"),
				Normal:   mustColor("#eceff4"),
				Critical: mustColor("#eceff4"),
			},
		},
		Background: PerUrgency{
			Low:      mustColor("#2e3440"),
			Normal:   mustColor("#2e3440"),
			Critical: mustColor("#3b2326"),
		},
	}

	hover := base
	hover.Background = PerUrgency{
		Low:      mustColor("#3b4252"),
		Normal:   mustColor("#3b4252"),
		Critical: mustColor("#4c2a2e"),
	}

	hint := base
	hint.Width = 0
	hint.MinHeight = 0
	hint.Padding = Insets{Top: 2, Right: 6, Bottom: 2, Left: 6}
	hint.Background = PerUrgency{
		Low:      mustColor("#ebcb8b"),
		Normal:   mustColor("#ebcb8b"),
		Critical: mustColor("#ebcb8b"),
	}
	hint.Font.Color = PerUrgency{
		Low:      mustColor("#2e3440"),
		Normal:   mustColor("#2e3440"),
		Critical: mustColor("#2e3440"),
	}

	return StylesConfig{
		Default: StyleOverride{Style: base},
		Hover:   StyleOverride{Style: hover},
		Hint:    StyleOverride{Style: hint},
		Counter: CounterStyle{
			PrevFormat: "({} more)",
			NextFormat: "({} more)",
		},
	}
}

// FindStyle resolves the effective style for a popup entry. Hovered entries
// use the hover style; per-app entries take precedence over the global set.
func (s *StylesConfig) FindStyle(app string, hovered bool) *Style {
	for i := range s.Apps {
		if s.Apps[i].App != app {
			continue
		}
		if hovered {
			return &s.Apps[i].Hover.Style
		}
		return &s.Apps[i].Default.Style
	}
	if hovered {
		return &s.Hover.Style
	}
	return &s.Default.Style
}

// HintStyle returns the style used for hint label overlays.
func (s *StylesConfig) HintStyle() *Style {
	return &s.Hint.Style
}

func mustColor(s string) Color {
	var c Color
	if err := c.UnmarshalText([]byte(s)); err != nil {
		panic(err)
	}
	return c
}
