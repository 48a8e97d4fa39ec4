package dbus

import (
	"github.com/godbus/dbus/v5"
)

// Urgency levels defined by the freedesktop.org notification specification.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined per the freedesktop spec.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ParsedActions converts the D-Bus action array to structured form.
// D-Bus actions are passed as alternating key/label pairs.
func (n *DBusNotification) ParsedActions() []Action {
	actions := make([]Action, 0, len(n.Actions)/2)
	for i := 0; i+1 < len(n.Actions); i += 2 {
		actions = append(actions, Action{
			Key:   n.Actions[i],
			Label: n.Actions[i+1],
		})
	}
	return actions
}

func (n *DBusNotification) stringHint(name string) string {
	if v, ok := n.Hints[name]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (n *DBusNotification) boolHint(name string) bool {
	if v, ok := n.Hints[name]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return UrgencyNormal
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// SoundFile extracts the sound-file hint.
func (n *DBusNotification) SoundFile() string {
	return n.stringHint("sound-file")
}

// SoundName extracts the sound-name hint.
func (n *DBusNotification) SoundName() string {
	return n.stringHint("sound-name")
}

// SuppressSound returns true if the suppress-sound hint is set.
func (n *DBusNotification) SuppressSound() bool {
	return n.boolHint("suppress-sound")
}

// Transient returns true if the transient hint is set.
// Transient notifications should not be persisted.
func (n *DBusNotification) Transient() bool {
	return n.boolHint("transient")
}

// Resident returns true if the resident hint is set.
// Resident notifications should not be auto-removed after an action is invoked.
func (n *DBusNotification) Resident() bool {
	return n.boolHint("resident")
}

// ImagePath extracts the image-path hint.
func (n *DBusNotification) ImagePath() string {
	return n.stringHint("image-path")
}

// Progress extracts the progress value hint.
// Returns -1 if not present, 0-100 for valid progress values.
// This is used by notify-send with the -h int:value:N option.
func (n *DBusNotification) Progress() int {
	if v, ok := n.Hints["value"]; ok {
		switch val := v.Value().(type) {
		case int32:
			return int(val)
		case uint32:
			return int(val)
		case int:
			return val
		case byte:
			return int(val)
		}
	}
	return -1
}

// ServerCapabilities lists the capabilities advertised by notid.
var ServerCapabilities = []string{
	"actions",         // Support notification actions
	"body",            // Support body text
	"body-hyperlinks", // Support hyperlinks in body
	"body-markup",     // Support Pango markup in body
	"icon-static",     // Support static icons
	"persistence",     // Persist notifications to history
	"sound",           // Play sounds
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "notid"
	Vendor      string // "notid"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "notid",
		Vendor:      "notid",
		Version:     "0.0.1", // Will be replaced by build-time version
		SpecVersion: "1.2",
	}
}
