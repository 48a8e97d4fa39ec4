package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notid/internal/dbus"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// InternalNotifier handles sending notifications about internal notid events.
// It uses a queue and rate limiting to prevent notification floods.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Handler for creating notifications
	notifyHandler func(notification *dbus.DBusNotification) uint32

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications

	// Enabled flag
	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second, // Don't repeat same notification within 5 seconds
		enabled:        true,
	}
}

// SetNotifyHandler sets the function to call when creating a notification.
// This should be the same handler used for D-Bus notifications.
func (n *InternalNotifier) SetNotifyHandler(handler func(notification *dbus.DBusNotification) uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification if not rate-limited.
// The key is used for rate limiting - same key won't notify again within minInterval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return
	}

	if n.notifyHandler == nil {
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	// Rate limiting check
	if lastTime, ok := n.lastNotifyTime[key]; ok {
		if time.Since(lastTime) < n.minInterval {
			n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
			return
		}
	}
	n.lastNotifyTime[key] = time.Now()

	// Map level to D-Bus urgency
	urgency := byte(1) // Normal
	switch level {
	case NotificationLevelInfo:
		urgency = 0 // Low
	case NotificationLevelWarning:
		urgency = 1 // Normal
	case NotificationLevelError:
		urgency = 2 // Critical
	}

	notification := &dbus.DBusNotification{
		AppName: "notid",
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(urgency),
			"transient":     godbus.MakeVariant(true), // Internal notifications are transient
			"desktop-entry": godbus.MakeVariant("notid"),
		},
		ExpireTimeout: 5000, // 5 seconds for internal notifications
	}

	// Set icon based on level
	switch level {
	case NotificationLevelInfo:
		notification.AppIcon = "dialog-information"
	case NotificationLevelWarning:
		notification.AppIcon = "dialog-warning"
	case NotificationLevelError:
		notification.AppIcon = "dialog-error"
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)

	// Send the notification (this will be handled by the normal notify path)
	_ = n.notifyHandler(notification)
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"notid configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyInhibitChanged sends a notification about inhibit state change.
func (n *InternalNotifier) NotifyInhibitChanged(enabled bool, waiting int) {
	var summary, body string
	if enabled {
		summary = "Notifications Inhibited"
		body = "New notifications will go straight to history."
	} else {
		summary = "Notifications Resumed"
		if waiting == 1 {
			body = "1 notification went to history while inhibited."
		} else if waiting > 1 {
			body = fmt.Sprintf("%d notifications went to history while inhibited.", waiting)
		} else {
			body = "Notifications will now be displayed."
		}
	}
	n.Notify(
		"inhibit-change",
		summary,
		body,
		NotificationLevelInfo,
	)
}

// NotifyStartup sends a notification that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"notid Started",
		"Notification daemon v"+version+" is now running.",
		NotificationLevelInfo,
	)
}

// NotifyAudioError sends a notification about audio playback error.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify(
		"audio-error",
		"Audio Error",
		"Failed to play notification sound: "+err.Error(),
		NotificationLevelWarning,
	)
}
