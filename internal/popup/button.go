package popup

import (
	"github.com/jmylchreest/notid/internal/render"
)

// ButtonKind discriminates the interactive elements of a popup.
type ButtonKind int

const (
	// ButtonDismiss closes the notification when clicked.
	ButtonDismiss ButtonKind = iota
	// ButtonAction invokes a named notification action.
	ButtonAction
	// ButtonAnchor opens a hyperlink found in the notification body.
	ButtonAnchor
)

// String returns the kind name.
func (k ButtonKind) String() string {
	switch k {
	case ButtonDismiss:
		return "dismiss"
	case ButtonAction:
		return "action"
	case ButtonAnchor:
		return "anchor"
	default:
		return "unknown"
	}
}

// Button is one clickable element of a notification. Action and anchor
// buttons are rebuilt whenever the notification content changes; only the
// dismiss button is permanent.
type Button struct {
	Kind   ButtonKind
	Label  string // Display label (action label, anchor text)
	Key    string // Action key, for ButtonAction
	Target string // Link target, for ButtonAnchor
	Hint   string // Assigned hint label, empty until hints are built
	Bounds render.Rect
}
