package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/notid/internal/audio"
	"github.com/jmylchreest/notid/internal/keys"
	"github.com/jmylchreest/notid/internal/popup"
)

// Controller bridges the control D-Bus interface onto the event loop. Every
// method hops into the loop so callers never touch manager state from a
// bus goroutine.
type Controller struct {
	loop       *Loop
	manager    *popup.Manager
	audio      *audio.Manager
	dispatcher *Dispatcher
	notifier   *InternalNotifier
	logger     *slog.Logger
}

// NewController creates a controller for the given loop and managers.
func NewController(loop *Loop, manager *popup.Manager, audioMgr *audio.Manager, dispatcher *Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		loop:       loop,
		manager:    manager,
		audio:      audioMgr,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetNotifier makes state changes surface as internal notifications.
func (c *Controller) SetNotifier(n *InternalNotifier) { c.notifier = n }

// Focus selects the first notification when nothing is selected yet.
func (c *Controller) Focus() error {
	c.loop.Call(func() {
		if _, ok := c.manager.SelectedID(); !ok {
			c.manager.SelectFirst()
		}
	})
	return nil
}

// Unfocus clears the selection and leaves hint mode.
func (c *Controller) Unfocus() error {
	c.loop.Call(c.manager.Deselect)
	return nil
}

// Dismiss removes one notification, the selected one when id is zero, or
// every notification when all is set.
func (c *Controller) Dismiss(all bool, id uint32) error {
	var err error
	c.loop.Call(func() {
		switch {
		case all:
			c.manager.DismissAll()
		case id == 0:
			if _, ok := c.manager.SelectedID(); !ok {
				err = fmt.Errorf("no notification selected")
				return
			}
			c.manager.DismissSelected()
		default:
			c.manager.Dismiss(id)
		}
	})
	return err
}

type listEntry struct {
	ID       uint32 `json:"id"`
	AppName  string `json:"app_name"`
	Summary  string `json:"summary"`
	Body     string `json:"body"`
	Urgency  int    `json:"urgency"`
	Value    int    `json:"value"`
	Selected bool   `json:"selected,omitempty"`
	Visible  bool   `json:"visible,omitempty"`
}

// List renders the active notifications as JSON.
func (c *Controller) List() (string, error) {
	var entries []listEntry
	c.loop.Call(func() {
		start, end := c.manager.View().Range()
		selected, hasSelection := c.manager.SelectedID()
		for i, n := range c.manager.Notifications() {
			entries = append(entries, listEntry{
				ID:       n.ID,
				AppName:  n.AppName,
				Summary:  n.Summary,
				Body:     n.Body,
				Urgency:  n.Urgency,
				Value:    n.Value,
				Selected: hasSelection && n.ID == selected,
				Visible:  i >= start && i < end,
			})
		}
	})
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling notification list: %w", err)
	}
	return string(data), nil
}

// Mute suppresses notification sounds.
func (c *Controller) Mute() error {
	c.audio.Mute()
	return nil
}

// Unmute re-enables notification sounds.
func (c *Controller) Unmute() error {
	c.audio.Unmute()
	return nil
}

// Inhibit diverts incoming notifications to history instead of the screen.
func (c *Controller) Inhibit() error {
	changed := false
	c.loop.Call(func() {
		changed = !c.manager.Inhibited()
		c.manager.Inhibit()
	})
	if changed && c.notifier != nil {
		c.notifier.NotifyInhibitChanged(true, 0)
	}
	return nil
}

// Uninhibit resumes display for new arrivals.
func (c *Controller) Uninhibit() error {
	changed := false
	diverted := 0
	c.loop.Call(func() {
		changed = c.manager.Inhibited()
		diverted = c.manager.Waiting()
		c.manager.Uninhibit()
	})
	if changed && c.notifier != nil {
		c.notifier.NotifyInhibitChanged(false, diverted)
	}
	return nil
}

// Key parses a key sequence and feeds it through the dispatcher, press by
// press, as if typed on the focused popup.
func (c *Controller) Key(sequence string) error {
	seq, err := keys.ParseSequence(sequence)
	if err != nil {
		return fmt.Errorf("parsing key sequence: %w", err)
	}
	c.loop.Call(func() {
		for _, p := range seq {
			c.dispatcher.HandleKey(p)
		}
	})
	return nil
}

// State reports the daemon's mute and inhibit flags and the diverted count.
func (c *Controller) State() (muted bool, inhibited bool, waiting uint32, err error) {
	muted = c.audio.Muted()
	c.loop.Call(func() {
		inhibited = c.manager.Inhibited()
		waiting = uint32(c.manager.Waiting())
	})
	return muted, inhibited, waiting, nil
}
