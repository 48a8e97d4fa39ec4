package popup

import (
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/notid/internal/config"
	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/hint"
	"github.com/jmylchreest/notid/internal/render"
)

// anchorRe matches <a href="..."> links in markup bodies. Groups: target,
// anchor text.
var anchorRe = regexp.MustCompile(`<a\s+href="([^"]*)"[^>]*>(.*?)</a>`)

// tagRe strips any remaining markup tags for plain-text rendering.
var tagRe = regexp.MustCompile(`<[^>]*>`)

// Anchor is a hyperlink extracted from the notification body.
type Anchor struct {
	Target string
	Text   string
}

// Notification is a single active popup: identity, content, timing state
// and interactive sub-elements. All fields are owned by the Manager and
// only touched on the event loop.
type Notification struct {
	ID        uint32
	AppName   string
	AppIcon   string
	Summary   string
	Body      string // Raw body, may carry markup
	Text      string // Body with markup stripped
	Urgency   int
	Resident  bool
	Transient bool
	Value     int // Progress 0-100, -1 when absent

	SoundFile     string
	SoundName     string
	SuppressSound bool

	Actions []dbus.Action
	Anchors []Anchor
	Buttons []*Button

	// Resolved expiry: timeout is meaningful only when expires is true.
	RawTimeout int32
	Timeout    time.Duration
	Expires    bool

	// Authoritative vertical offset, recomputed on every collection change.
	Y       float32
	Height  float32
	Hovered bool

	// Armed expiry timer. gen guards against a stale callback firing after
	// the premise that armed it has changed.
	cancel CancelFunc
	gen    uint64
	armed  bool
}

// NewNotification builds a Notification from a decoded Notify call. The
// expiry timeout is resolved against configuration immediately; it never
// changes for the lifetime of the entry.
func NewNotification(cfg *config.Config, dn *dbus.DBusNotification, id uint32) *Notification {
	n := &Notification{ID: id}
	n.apply(cfg, dn)
	return n
}

// apply overwrites content from a Notify call, preserving identity and
// position. Used both at creation and on replacement.
func (n *Notification) apply(cfg *config.Config, dn *dbus.DBusNotification) {
	n.AppName = dn.AppName
	if n.AppName == "" {
		n.AppName = dn.DesktopEntry()
	}
	n.AppIcon = dn.AppIcon
	if n.AppIcon == "" {
		n.AppIcon = dn.ImagePath()
	}
	n.Summary = dn.Summary
	n.Body = dn.Body
	n.Text = StripMarkup(dn.Body)
	n.Urgency = dn.Urgency()
	n.Resident = dn.Resident()
	n.Transient = dn.Transient()
	n.Value = dn.Progress()
	n.SoundFile = dn.SoundFile()
	n.SoundName = dn.SoundName()
	n.SuppressSound = dn.SuppressSound()
	n.Actions = dn.ParsedActions()
	n.Anchors = ExtractAnchors(dn.Body)
	n.RawTimeout = dn.ExpireTimeout
	n.Timeout, n.Expires = cfg.ResolveTimeout(n.AppName, n.Urgency, dn.ExpireTimeout)
	n.rebuildButtons()
}

// rebuildButtons reconstructs the interactive elements from current
// content. Order is fixed: dismiss first, then actions, then anchors, so
// hint labels are stable for unchanged content.
func (n *Notification) rebuildButtons() {
	buttons := make([]*Button, 0, 1+len(n.Actions)+len(n.Anchors))
	buttons = append(buttons, &Button{Kind: ButtonDismiss})
	for _, a := range n.Actions {
		buttons = append(buttons, &Button{Kind: ButtonAction, Label: a.Label, Key: a.Key})
	}
	for _, a := range n.Anchors {
		buttons = append(buttons, &Button{Kind: ButtonAnchor, Label: a.Text, Target: a.Target})
	}
	n.Buttons = buttons
}

type labeler interface {
	Assign(n int) []string
}

// AssignHints assigns hint labels to the buttons in element order, so a
// label always maps back to the same button until content changes.
func (n *Notification) AssignHints(a labeler) {
	for i, label := range a.Assign(len(n.Buttons)) {
		n.Buttons[i].Hint = label
	}
}

// ClearHints removes assigned hint labels.
func (n *Notification) ClearHints() {
	for _, b := range n.Buttons {
		b.Hint = ""
	}
}

// ButtonByHint returns the button whose hint label equals input exactly,
// or nil. Unlabeled buttons never match.
func (n *Notification) ButtonByHint(input string) *Button {
	if input == "" {
		return nil
	}
	labels := make([]string, len(n.Buttons))
	for i, b := range n.Buttons {
		labels[i] = b.Hint
	}
	if i := hint.Match(labels, input); i >= 0 {
		return n.Buttons[i]
	}
	return nil
}

// Layout computes the popup's height and button geometry against the
// resolved style, anchored at vertical offset y.
func (n *Notification) Layout(style *config.Style, y float32) {
	n.Y = y

	lineHeight := style.Font.Size * 1.4
	lines := float32(1) // Summary
	if n.Text != "" {
		lines += float32(strings.Count(n.Text, "\n") + 1)
	}
	height := style.Padding.Vertical() + lines*lineHeight
	if len(n.Actions) > 0 {
		height += lineHeight + style.Padding.Bottom
	}
	if height < style.MinHeight {
		height = style.MinHeight
	}
	n.Height = height

	n.layoutButtons(style)
}

// layoutButtons positions the dismiss control in the top-right corner and
// action buttons along the bottom edge. Anchors keep zero bounds; they are
// addressed by hint label, not by pointer.
func (n *Notification) layoutButtons(style *config.Style) {
	const dismissSize = 16

	x := style.Margin.Left
	actionX := x + style.Padding.Left
	actionY := n.Y + n.Height - style.Padding.Bottom - style.Font.Size*1.4

	for _, b := range n.Buttons {
		switch b.Kind {
		case ButtonDismiss:
			b.Bounds = render.Rect{
				X:      x + style.Width - style.Padding.Right - dismissSize,
				Y:      n.Y + style.Padding.Top,
				Width:  dismissSize,
				Height: dismissSize,
			}
		case ButtonAction:
			w := style.Font.Size*0.6*float32(len(b.Label)) + style.Padding.Horizontal()
			b.Bounds = render.Rect{
				X:      actionX,
				Y:      actionY,
				Width:  w,
				Height: style.Font.Size * 1.4,
			}
			actionX += w + style.Padding.Left
		case ButtonAnchor:
			b.Bounds = render.Rect{}
		}
	}
}

// Extent is the total vertical space the popup occupies including margins.
func (n *Notification) Extent(style *config.Style) float32 {
	return n.Height + style.Margin.Vertical()
}

// Bounds returns the popup rectangle.
func (n *Notification) Bounds(style *config.Style) render.Rect {
	return render.Rect{
		X:      style.Margin.Left,
		Y:      n.Y,
		Width:  style.Width,
		Height: n.Height,
	}
}

// ExtractAnchors parses <a href> links out of a markup body.
func ExtractAnchors(body string) []Anchor {
	matches := anchorRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	anchors := make([]Anchor, 0, len(matches))
	for _, m := range matches {
		anchors = append(anchors, Anchor{
			Target: m[1],
			Text:   StripMarkup(m[2]),
		})
	}
	return anchors
}

// StripMarkup removes markup tags, leaving plain text.
func StripMarkup(body string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(body, ""))
}
