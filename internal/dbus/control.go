package dbus

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// ControlBusName is the bus name claimed for the daemon control interface.
	ControlBusName = "io.github.jmylchreest.notid"
	// ControlPath is the control object path.
	ControlPath = "/io/github/jmylchreest/notid"
	// ControlInterface is the control interface name.
	ControlInterface = "io.github.jmylchreest.notid.Control"
)

// Controller is the surface the control interface drives. Implementations
// run the calls on the daemon event loop and return once applied.
type Controller interface {
	// Focus grabs keyboard focus for the popup surface.
	Focus() error
	// Unfocus releases keyboard focus.
	Unfocus() error
	// Dismiss dismisses a single notification by ID, or every
	// notification when all is true (id is then ignored).
	Dismiss(all bool, id uint32) error
	// List returns the active notifications as a JSON document.
	List() (string, error)
	// Mute suppresses notification sounds.
	Mute() error
	// Unmute re-enables notification sounds.
	Unmute() error
	// Inhibit stops new notifications from being displayed; they are
	// archived instead.
	Inhibit() error
	// Uninhibit resumes display. Notifications diverted while inhibited
	// are not resurrected.
	Uninhibit() error
	// State reports daemon state flags (muted, inhibited) and the number
	// of notifications diverted while inhibited.
	State() (muted bool, inhibited bool, waiting uint32, err error)
	// Key feeds a key sequence through the daemon keymap, exactly as if
	// the user had typed it on the focused popup.
	Key(sequence string) error
}

// ControlServer exports the daemon control interface on the session bus.
type ControlServer struct {
	conn       *dbus.Conn
	logger     *slog.Logger
	controller Controller
}

// NewControlServer creates a new ControlServer driving the given controller.
func NewControlServer(controller Controller, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		controller: controller,
		logger:     logger,
	}
}

// Start exports the control object on the given connection and claims the
// control bus name. The connection is shared with the notification server.
func (s *ControlServer) Start(conn *dbus.Conn) error {
	s.conn = conn

	if err := conn.Export(s, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: ControlPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ControlInterface,
				Methods: controlMethods(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export control introspectable: %w", err)
	}

	reply, err := conn.RequestName(ControlBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request control bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("control bus name %s already taken", ControlBusName)
	}

	s.logger.Info("control interface started", "interface", ControlInterface, "path", ControlPath)
	return nil
}

// Stop releases the control bus name.
func (s *ControlServer) Stop() error {
	if s.conn == nil {
		return nil
	}
	_, err := s.conn.ReleaseName(ControlBusName)
	return err
}

func (s *ControlServer) wrap(name string, err error) *dbus.Error {
	if err == nil {
		return nil
	}
	s.logger.Warn("control call failed", "method", name, "error", err)
	return dbus.MakeFailedError(err)
}

// Focus handles the Focus D-Bus method.
func (s *ControlServer) Focus() *dbus.Error {
	return s.wrap("Focus", s.controller.Focus())
}

// Unfocus handles the Unfocus D-Bus method.
func (s *ControlServer) Unfocus() *dbus.Error {
	return s.wrap("Unfocus", s.controller.Unfocus())
}

// Dismiss handles the Dismiss D-Bus method.
func (s *ControlServer) Dismiss(all bool, id uint32) *dbus.Error {
	return s.wrap("Dismiss", s.controller.Dismiss(all, id))
}

// List handles the List D-Bus method.
func (s *ControlServer) List() (string, *dbus.Error) {
	out, err := s.controller.List()
	return out, s.wrap("List", err)
}

// Mute handles the Mute D-Bus method.
func (s *ControlServer) Mute() *dbus.Error {
	return s.wrap("Mute", s.controller.Mute())
}

// Unmute handles the Unmute D-Bus method.
func (s *ControlServer) Unmute() *dbus.Error {
	return s.wrap("Unmute", s.controller.Unmute())
}

// Inhibit handles the Inhibit D-Bus method.
func (s *ControlServer) Inhibit() *dbus.Error {
	return s.wrap("Inhibit", s.controller.Inhibit())
}

// Uninhibit handles the Uninhibit D-Bus method.
func (s *ControlServer) Uninhibit() *dbus.Error {
	return s.wrap("Uninhibit", s.controller.Uninhibit())
}

// State handles the State D-Bus method.
func (s *ControlServer) State() (bool, bool, uint32, *dbus.Error) {
	muted, inhibited, waiting, err := s.controller.State()
	return muted, inhibited, waiting, s.wrap("State", err)
}

// Key handles the Key D-Bus method.
func (s *ControlServer) Key(sequence string) *dbus.Error {
	return s.wrap("Key", s.controller.Key(sequence))
}

func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "Focus"},
		{Name: "Unfocus"},
		{
			Name: "Dismiss",
			Args: []introspect.Arg{
				{Name: "all", Type: "b", Direction: "in"},
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "List",
			Args: []introspect.Arg{
				{Name: "notifications", Type: "s", Direction: "out"},
			},
		},
		{Name: "Mute"},
		{Name: "Unmute"},
		{Name: "Inhibit"},
		{Name: "Uninhibit"},
		{
			Name: "State",
			Args: []introspect.Arg{
				{Name: "muted", Type: "b", Direction: "out"},
				{Name: "inhibited", Type: "b", Direction: "out"},
				{Name: "waiting", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "Key",
			Args: []introspect.Arg{
				{Name: "sequence", Type: "s", Direction: "in"},
			},
		},
	}
}

// ControlClient calls the daemon control interface from the CLI.
type ControlClient struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewControlClient connects to the session bus and binds the control object.
func NewControlClient() (*ControlClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &ControlClient{
		conn: conn,
		obj:  conn.Object(ControlBusName, ControlPath),
	}, nil
}

func (c *ControlClient) call(method string, args ...interface{}) *dbus.Call {
	return c.obj.Call(ControlInterface+"."+method, 0, args...)
}

// Focus asks the daemon to grab keyboard focus.
func (c *ControlClient) Focus() error {
	return c.call("Focus").Err
}

// Unfocus asks the daemon to release keyboard focus.
func (c *ControlClient) Unfocus() error {
	return c.call("Unfocus").Err
}

// Dismiss dismisses one notification by ID, or all of them.
func (c *ControlClient) Dismiss(all bool, id uint32) error {
	return c.call("Dismiss", all, id).Err
}

// List returns the active notifications as a JSON document.
func (c *ControlClient) List() (string, error) {
	var out string
	if err := c.call("List").Store(&out); err != nil {
		return "", err
	}
	return out, nil
}

// Mute suppresses notification sounds.
func (c *ControlClient) Mute() error {
	return c.call("Mute").Err
}

// Unmute re-enables notification sounds.
func (c *ControlClient) Unmute() error {
	return c.call("Unmute").Err
}

// Inhibit stops new notifications from being displayed.
func (c *ControlClient) Inhibit() error {
	return c.call("Inhibit").Err
}

// Uninhibit resumes notification display.
func (c *ControlClient) Uninhibit() error {
	return c.call("Uninhibit").Err
}

// State reports the daemon state flags.
func (c *ControlClient) State() (muted bool, inhibited bool, waiting uint32, err error) {
	err = c.call("State").Store(&muted, &inhibited, &waiting)
	return muted, inhibited, waiting, err
}

// Key feeds a key sequence through the daemon keymap.
func (c *ControlClient) Key(sequence string) error {
	return c.call("Key", sequence).Err
}
