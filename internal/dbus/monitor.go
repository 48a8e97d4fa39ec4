package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const notifyMatchRule = "type='method_call',interface='" + DBusInterface + "',member='Notify'"

// Monitor passively observes Notify traffic on the session bus without
// claiming the notification service name, so it can run alongside another
// notification daemon. Captured notifications carry no server-assigned id;
// the handler receives id 0.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onNotify NotificationHandler
}

// NewMonitor creates a notification traffic monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

// SetNotifyHandler sets the callback for captured notifications.
func (m *Monitor) SetNotifyHandler(handler NotificationHandler) {
	m.onNotify = handler
}

// Start connects to the session bus and begins capturing. It prefers the
// Monitoring interface and falls back to an eavesdrop match rule on buses
// that predate BecomeMonitor.
func (m *Monitor) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn

	err = conn.BusObject().Call(
		"org.freedesktop.DBus.Monitoring.BecomeMonitor", 0,
		[]string{notifyMatchRule}, uint32(0),
	).Err
	if err != nil {
		m.logger.Warn("BecomeMonitor unavailable, falling back to eavesdrop", "error", err)
		err = conn.BusObject().Call(
			"org.freedesktop.DBus.AddMatch", 0,
			notifyMatchRule+",eavesdrop='true'",
		).Err
		if err != nil {
			return fmt.Errorf("failed to add eavesdrop match rule: %w", err)
		}
	}

	go m.capture()
	m.logger.Info("monitoring notification traffic")
	return nil
}

func (m *Monitor) capture() {
	ch := make(chan *dbus.Message, 100)
	m.conn.Eavesdrop(ch)

	for msg := range ch {
		if msg.Type != dbus.TypeMethodCall {
			continue
		}
		if msg.Headers[dbus.FieldInterface].Value() != DBusInterface ||
			msg.Headers[dbus.FieldMember].Value() != "Notify" {
			continue
		}

		n, err := parseNotifyCall(msg)
		if err != nil {
			m.logger.Warn("skipping malformed Notify call", "error", err)
			continue
		}
		m.logger.Debug("captured notification", "app", n.AppName, "summary", n.Summary)
		if m.onNotify != nil {
			m.onNotify(n, 0)
		}
	}
}

// parseNotifyCall decodes the eight Notify arguments from a raw message.
// Since we only eavesdrop, the server's reply (and so the real id) is
// never seen.
func parseNotifyCall(msg *dbus.Message) (*DBusNotification, error) {
	if len(msg.Body) < 8 {
		return nil, fmt.Errorf("want 8 arguments, got %d", len(msg.Body))
	}

	n := &DBusNotification{}
	var ok bool
	if n.AppName, ok = msg.Body[0].(string); !ok {
		return nil, fmt.Errorf("app_name is not a string")
	}
	if n.ReplacesID, ok = msg.Body[1].(uint32); !ok {
		return nil, fmt.Errorf("replaces_id is not a uint32")
	}
	if n.AppIcon, ok = msg.Body[2].(string); !ok {
		return nil, fmt.Errorf("app_icon is not a string")
	}
	if n.Summary, ok = msg.Body[3].(string); !ok {
		return nil, fmt.Errorf("summary is not a string")
	}
	if n.Body, ok = msg.Body[4].(string); !ok {
		return nil, fmt.Errorf("body is not a string")
	}
	if actions, ok := msg.Body[5].([]string); ok {
		n.Actions = actions
	}
	if hints, ok := msg.Body[6].(map[string]dbus.Variant); ok {
		n.Hints = hints
	}
	if timeout, ok := msg.Body[7].(int32); ok {
		n.ExpireTimeout = timeout
	}
	return n, nil
}

// Stop closes the monitor connection.
func (m *Monitor) Stop() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}
