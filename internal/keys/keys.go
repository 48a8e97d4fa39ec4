// Package keys implements keymap matching with multi-key sequences and a
// vi-style pending key buffer.
package keys

import (
	"fmt"
	"strings"
)

// Mode selects which keymap bindings are live.
type Mode int

const (
	// ModeNormal is the default navigation mode.
	ModeNormal Mode = iota
	// ModeHint routes unmatched key presses to hint label matching.
	ModeHint
)

// String returns the mode name as used in keymap prefixes.
func (m Mode) String() string {
	switch m {
	case ModeHint:
		return "hint"
	default:
		return "normal"
	}
}

// Action is a bound keymap action.
type Action string

const (
	ActionNone                Action = ""
	ActionNextNotification    Action = "next_notification"
	ActionPrevNotification    Action = "previous_notification"
	ActionFirstNotification   Action = "first_notification"
	ActionLastNotification    Action = "last_notification"
	ActionDismissNotification Action = "dismiss_notification"
	ActionUnfocus             Action = "unfocus"
	ActionHintMode            Action = "hint_mode"
	ActionNormalMode          Action = "normal_mode"
	ActionMute                Action = "mute"
	ActionUnmute              Action = "unmute"
	ActionToggleMute          Action = "toggle_mute"
	ActionInhibit             Action = "inhibit"
	ActionUninhibit           Action = "uninhibit"
	ActionToggleInhibit       Action = "toggle_inhibit"
	ActionNoop                Action = "noop"
)

var knownActions = map[Action]bool{
	ActionNextNotification:    true,
	ActionPrevNotification:    true,
	ActionFirstNotification:   true,
	ActionLastNotification:    true,
	ActionDismissNotification: true,
	ActionUnfocus:             true,
	ActionHintMode:            true,
	ActionNormalMode:          true,
	ActionMute:                true,
	ActionUnmute:              true,
	ActionToggleMute:          true,
	ActionInhibit:             true,
	ActionUninhibit:           true,
	ActionToggleInhibit:       true,
	ActionNoop:                true,
}

// Special keys that have no single printable rune.
type Special int

const (
	SpecialNone Special = iota
	SpecialEscape
	SpecialEnter
	SpecialTab
	SpecialBackspace
	SpecialSpace
)

var specialNames = map[string]Special{
	"esc":       SpecialEscape,
	"escape":    SpecialEscape,
	"cr":        SpecialEnter,
	"enter":     SpecialEnter,
	"return":    SpecialEnter,
	"tab":       SpecialTab,
	"bs":        SpecialBackspace,
	"backspace": SpecialBackspace,
	"space":     SpecialSpace,
}

// Modifiers is a bitset of held modifier keys.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
)

// Press is a single key press: either a printable rune or a special key,
// plus modifiers. Shift is implied by the rune's case for printables.
type Press struct {
	Rune    rune
	Special Special
	Mods    Modifiers
}

// String renders the press in keymap notation.
func (p Press) String() string {
	var b strings.Builder
	if p.Mods&ModCtrl != 0 {
		b.WriteString("ctrl+")
	}
	if p.Mods&ModAlt != 0 {
		b.WriteString("alt+")
	}
	if p.Mods&ModShift != 0 {
		b.WriteString("shift+")
	}
	switch p.Special {
	case SpecialEscape:
		b.WriteString("<esc>")
	case SpecialEnter:
		b.WriteString("<cr>")
	case SpecialTab:
		b.WriteString("<tab>")
	case SpecialBackspace:
		b.WriteString("<bs>")
	case SpecialSpace:
		b.WriteString("<space>")
	default:
		b.WriteRune(p.Rune)
	}
	return b.String()
}

// Char returns a printable-rune press.
func Char(r rune) Press { return Press{Rune: r} }

// Key returns a special-key press.
func Key(s Special) Press { return Press{Special: s} }

// Sequence is an ordered list of presses that together trigger an action.
type Sequence []Press

// String renders the sequence in keymap notation.
func (s Sequence) String() string {
	var b strings.Builder
	for _, p := range s {
		b.WriteString(p.String())
	}
	return b.String()
}

// equal reports whether two presses are the same key with the same modifiers.
func (p Press) equal(o Press) bool {
	return p.Rune == o.Rune && p.Special == o.Special && p.Mods == o.Mods
}

// ParseSequence parses keymap notation into a Sequence. Notation is a
// concatenation of tokens: bare printable runes ("dd"), angle-bracketed
// special keys ("<esc>"), and modifier chords ("ctrl+x", "ctrl+<cr>").
func ParseSequence(s string) (Sequence, error) {
	var seq Sequence
	runes := []rune(s)
	for i := 0; i < len(runes); {
		var mods Modifiers
		// Modifier chords bind to the next token
		for {
			rest := string(runes[i:])
			switch {
			case hasFoldPrefix(rest, "ctrl+"):
				mods |= ModCtrl
				i += len("ctrl+")
			case hasFoldPrefix(rest, "alt+"):
				mods |= ModAlt
				i += len("alt+")
			case hasFoldPrefix(rest, "shift+"):
				mods |= ModShift
				i += len("shift+")
			default:
				goto token
			}
		}
	token:
		if i >= len(runes) {
			return nil, fmt.Errorf("key sequence %q: dangling modifier", s)
		}
		if runes[i] == '<' {
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '>' {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("key sequence %q: unterminated '<'", s)
			}
			name := strings.ToLower(string(runes[i+1 : end]))
			sp, ok := specialNames[name]
			if !ok {
				return nil, fmt.Errorf("key sequence %q: unknown key <%s>", s, name)
			}
			seq = append(seq, Press{Special: sp, Mods: mods})
			i = end + 1
			continue
		}
		seq = append(seq, Press{Rune: runes[i], Mods: mods})
		i++
	}
	if len(seq) == 0 {
		return nil, fmt.Errorf("empty key sequence")
	}
	return seq, nil
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// Binding pairs a sequence with its action in a specific mode.
type Binding struct {
	Mode     Mode
	Sequence Sequence
	Action   Action
}

// Keymap holds the bindings for all modes.
type Keymap struct {
	bindings []Binding
}

// NewKeymap returns a keymap preloaded with the default bindings.
func NewKeymap() *Keymap {
	km := &Keymap{}
	defaults := map[string]Action{
		"j":     ActionNextNotification,
		"k":     ActionPrevNotification,
		"gg":    ActionFirstNotification,
		"G":     ActionLastNotification,
		"x":     ActionDismissNotification,
		"dd":    ActionDismissNotification,
		"<esc>": ActionUnfocus,
		"f":     ActionHintMode,
		"m":     ActionToggleMute,
		"i":     ActionToggleInhibit,

		"hint:<esc>": ActionNormalMode,
	}
	for combo, action := range defaults {
		// Defaults are static and known-good
		if err := km.Bind(combo, action); err != nil {
			panic(err)
		}
	}
	return km
}

// Bind parses combo notation and adds or replaces a binding. A "hint:"
// prefix scopes the binding to hint mode; bindings default to normal mode.
// Later binds for the same mode and sequence replace earlier ones.
func (k *Keymap) Bind(combo string, action Action) error {
	if !knownActions[action] {
		return fmt.Errorf("unknown action %q", action)
	}
	mode := ModeNormal
	if rest, ok := strings.CutPrefix(combo, "hint:"); ok {
		mode = ModeHint
		combo = rest
	} else if rest, ok := strings.CutPrefix(combo, "normal:"); ok {
		combo = rest
	}
	seq, err := ParseSequence(combo)
	if err != nil {
		return err
	}
	for i := range k.bindings {
		if k.bindings[i].Mode == mode && sequencesEqual(k.bindings[i].Sequence, seq) {
			k.bindings[i].Action = action
			return nil
		}
	}
	k.bindings = append(k.bindings, Binding{Mode: mode, Sequence: seq, Action: action})
	return nil
}

// BindAll applies a combo-to-action map, as loaded from configuration.
func (k *Keymap) BindAll(m map[string]string) error {
	for combo, action := range m {
		if err := k.Bind(combo, Action(action)); err != nil {
			return fmt.Errorf("keymap %q: %w", combo, err)
		}
	}
	return nil
}

func sequencesEqual(a, b Sequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}

// MatchResult classifies a buffered sequence against a keymap mode.
type MatchResult int

const (
	// MatchNone means no binding matches and none could with more keys.
	MatchNone MatchResult = iota
	// MatchPrefix means at least one binding starts with the sequence.
	MatchPrefix
	// MatchExact means a binding matches the sequence exactly.
	MatchExact
)

// Match classifies seq against the bindings live in mode. On MatchExact the
// bound action is returned.
func (k *Keymap) Match(mode Mode, seq Sequence) (MatchResult, Action) {
	result := MatchNone
	for _, b := range k.bindings {
		if b.Mode != mode {
			continue
		}
		if sequencesEqual(b.Sequence, seq) {
			return MatchExact, b.Action
		}
		if len(seq) < len(b.Sequence) && sequencesEqual(b.Sequence[:len(seq)], seq) {
			result = MatchPrefix
		}
	}
	return result, ActionNone
}

// Buffer accumulates pending key presses until they resolve against a keymap.
type Buffer struct {
	pending Sequence
}

// Pending returns the buffered presses.
func (b *Buffer) Pending() Sequence {
	return b.pending
}

// String renders the buffered presses in keymap notation.
func (b *Buffer) String() string {
	return b.pending.String()
}

// Clear drops all buffered presses.
func (b *Buffer) Clear() {
	b.pending = nil
}

// Feed appends a press and resolves the buffer against the keymap for the
// given mode. On an exact match the buffer is cleared and the action
// returned. When the buffer stops being a prefix of any binding, everything
// but the newest press is dropped and the newest press is re-resolved, so a
// stray prefix never swallows the key that follows it. The returned sequence
// is the buffer content after the call; in hint mode the caller matches it
// against hint labels.
func (b *Buffer) Feed(km *Keymap, mode Mode, p Press) (Action, Sequence) {
	b.pending = append(b.pending, p)

	result, action := km.Match(mode, b.pending)
	if result == MatchNone && len(b.pending) > 1 {
		// Keep only the press that just arrived
		b.pending = Sequence{p}
		result, action = km.Match(mode, b.pending)
	}
	if result == MatchExact {
		b.Clear()
		return action, nil
	}
	return ActionNone, b.pending
}
