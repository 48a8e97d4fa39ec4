// Package popup owns the authoritative collection of active notifications:
// lifecycle, expiry scheduling, the pagination window, selection and hint
// dispatch. Everything here runs on the daemon event loop; there is no
// locking because there is exactly one mutator.
package popup

import (
	"log/slog"

	"github.com/jmylchreest/notid/internal/config"
	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/hint"
	"github.com/jmylchreest/notid/internal/keys"
	"github.com/jmylchreest/notid/internal/render"
)

// CloseCallback is invoked when a notification leaves the collection for
// any reason.
type CloseCallback func(id uint32, reason dbus.CloseReason)

// ActionCallback is invoked when a notification action button is activated.
type ActionCallback func(id uint32, actionKey string)

// OpenCallback is invoked when a body hyperlink is activated.
type OpenCallback func(target string)

// SoundCallback is invoked when a freshly added notification should play a
// sound.
type SoundCallback func(n *Notification)

// ArchiveCallback is invoked with the full notification as it leaves the
// collection, before the close callback fires.
type ArchiveCallback func(n *Notification, reason dbus.CloseReason)

// Manager owns the ordered notification collection and mediates every
// mutation: add, replace, dismissal, expiry, selection and hint dispatch.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  Clock
	hints  *hint.Allocator

	// post transfers timer callbacks onto the event loop.
	post func(func())

	notifications []*Notification
	view          View

	// Selection is a plain id, never a cached reference; every use looks
	// it up and tolerates absence.
	selected     uint32
	hasSelection bool

	mode keys.Mode

	inhibited bool
	waiting   int

	onClose   CloseCallback
	onAction  ActionCallback
	onOpen    OpenCallback
	onSound   SoundCallback
	onArchive ArchiveCallback
	onRender  func()
}

// NewManager creates a Manager. The configuration must already be
// validated; a malformed hint alphabet is the one startup-fatal error here.
func NewManager(cfg *config.Config, clock Clock, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = RealClock()
	}
	alloc, err := hint.NewAllocator(cfg.General.HintCharacters)
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		clock:  clock,
		hints:  alloc,
		view:   NewView(cfg.General.MaxVisible),
		post:   func(f func()) { f() },
	}, nil
}

// SetPoster routes timer callbacks onto the event loop. Must be set before
// any notification is added when timers can fire concurrently.
func (m *Manager) SetPoster(post func(func())) { m.post = post }

// UpdateConfig swaps in a reloaded configuration. The hint alphabet, window
// capacity and styles take effect immediately. Timeouts already resolved on
// displayed notifications keep their original premise; only new arrivals see
// the new timeout table.
func (m *Manager) UpdateConfig(cfg *config.Config) error {
	alloc, err := hint.NewAllocator(cfg.General.HintCharacters)
	if err != nil {
		return err
	}
	m.cfg = cfg
	m.hints = alloc
	m.view.SetMaxVisible(cfg.General.MaxVisible)
	if m.mode == keys.ModeHint {
		if n := m.byID(m.selected); m.hasSelection && n != nil {
			n.AssignHints(m.hints)
		}
	}
	m.afterMutation()
	return nil
}

// SetCloseCallback sets the close notification callback.
func (m *Manager) SetCloseCallback(cb CloseCallback) { m.onClose = cb }

// SetActionCallback sets the action invocation callback.
func (m *Manager) SetActionCallback(cb ActionCallback) { m.onAction = cb }

// SetOpenCallback sets the hyperlink activation callback.
func (m *Manager) SetOpenCallback(cb OpenCallback) { m.onOpen = cb }

// SetSoundCallback sets the sound trigger callback.
func (m *Manager) SetSoundCallback(cb SoundCallback) { m.onSound = cb }

// SetArchiveCallback sets the notification archive callback.
func (m *Manager) SetArchiveCallback(cb ArchiveCallback) { m.onArchive = cb }

// SetRenderCallback sets the render request callback, invoked after any
// visible state change.
func (m *Manager) SetRenderCallback(cb func()) { m.onRender = cb }

// Notifications returns the ordered collection. Callers must not mutate it.
func (m *Manager) Notifications() []*Notification { return m.notifications }

// Len returns the number of active notifications.
func (m *Manager) Len() int { return len(m.notifications) }

// View returns the current pagination window.
func (m *Manager) View() *View { return &m.view }

// Mode returns the current input mode.
func (m *Manager) Mode() keys.Mode { return m.mode }

// SelectedID returns the focused notification id, if any.
func (m *Manager) SelectedID() (uint32, bool) { return m.selected, m.hasSelection }

// Inhibited reports whether new notifications are being diverted to the
// archive instead of displayed.
func (m *Manager) Inhibited() bool { return m.inhibited }

// Waiting returns the number of notifications diverted since Inhibit.
func (m *Manager) Waiting() int { return m.waiting }

func (m *Manager) indexOf(id uint32) int {
	for i, n := range m.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) byID(id uint32) *Notification {
	if i := m.indexOf(id); i >= 0 {
		return m.notifications[i]
	}
	return nil
}

// Add inserts a notification, or replaces the active notification with the
// same id in place. While inhibited the notification is archived unseen.
func (m *Manager) Add(dn *dbus.DBusNotification, id uint32) {
	if m.inhibited {
		m.waiting++
		m.logger.Debug("notification inhibited", "id", id, "waiting", m.waiting)
		if m.onArchive != nil {
			m.onArchive(NewNotification(m.cfg, dn, id), dbus.CloseReasonUndefined)
		}
		return
	}

	if i := m.indexOf(id); i >= 0 {
		// Replace in place: same index, same hover state. The timer premise
		// may have changed, so cancel first and let syncTimers re-arm
		// against the newly resolved timeout.
		n := m.notifications[i]
		m.cancelTimer(n)
		n.apply(m.cfg, dn)
		m.logger.Debug("notification replaced", "id", id, "app", n.AppName)
	} else {
		n := NewNotification(m.cfg, dn, id)
		m.notifications = append(m.notifications, n)
		m.logger.Debug("notification added",
			"id", id,
			"app", n.AppName,
			"urgency", config.UrgencyNames[n.Urgency],
			"expires", n.Expires,
		)
	}

	m.afterMutation()

	if n := m.byID(id); n != nil && m.onSound != nil {
		m.onSound(n)
	}
}

// Dismiss removes a notification at the user's request. Unknown ids are a
// silent no-op since user input races against expiry.
func (m *Manager) Dismiss(id uint32) {
	m.dismiss(id, dbus.CloseReasonDismissed)
}

// DismissSelected removes the focused notification, if any.
func (m *Manager) DismissSelected() {
	if m.hasSelection {
		m.dismiss(m.selected, dbus.CloseReasonDismissed)
	}
}

// DismissAll removes every notification as user-dismissed.
func (m *Manager) DismissAll() {
	for len(m.notifications) > 0 {
		m.dismiss(m.notifications[0].ID, dbus.CloseReasonDismissed)
	}
}

// Close removes a notification in response to a CloseNotification call.
func (m *Manager) Close(id uint32) {
	m.dismiss(id, dbus.CloseReasonClosed)
}

// Expire handles a fired expiry timer. gen guards against stale timers:
// any state change that touched the notification since arming bumped its
// generation, so a late callback is ignored.
func (m *Manager) Expire(id uint32, gen uint64) {
	n := m.byID(id)
	if n == nil {
		return
	}
	if n.gen != gen {
		m.logger.Debug("stale expiry timer ignored", "id", id)
		return
	}
	m.dismiss(id, dbus.CloseReasonExpired)
}

func (m *Manager) dismiss(id uint32, reason dbus.CloseReason) {
	i := m.indexOf(id)
	if i < 0 {
		return
	}

	n := m.notifications[i]
	m.cancelTimer(n)
	m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
	m.logger.Debug("notification dismissed", "id", id, "reason", reason.String())

	if m.hasSelection && m.selected == id {
		m.hasSelection = false
		if len(m.notifications) > 0 {
			// Focus the entry that slid into the dismissed slot
			next := i
			if next >= len(m.notifications) {
				next = len(m.notifications) - 1
			}
			m.selectAt(next)
		} else if m.mode == keys.ModeHint {
			m.mode = keys.ModeNormal
		}
	}

	m.afterMutation()

	if m.onArchive != nil {
		m.onArchive(n, reason)
	}
	if m.onClose != nil {
		m.onClose(id, reason)
	}
}

// Select focuses the notification with the given id: the previous focus is
// released and its timer re-armed with a full fresh timeout, the new
// focus's timer is cancelled, and the window scrolls to include it.
// Selecting the already focused id is a no-op; an unknown id is ignored.
func (m *Manager) Select(id uint32) {
	if m.hasSelection && m.selected == id {
		return
	}
	i := m.indexOf(id)
	if i < 0 {
		return
	}
	m.releaseSelection()
	m.selectAt(i)
	m.afterMutation()
}

// selectAt focuses the notification at collection index i without touching
// the previous selection.
func (m *Manager) selectAt(i int) {
	n := m.notifications[i]
	n.Hovered = true
	m.cancelTimer(n)
	m.selected = n.ID
	m.hasSelection = true
	m.view.ScrollTo(i, len(m.notifications))
}

// releaseSelection unhovers the focused entry. Its timer re-arms on the
// next syncTimers pass, with the full timeout rather than a resumed clock.
func (m *Manager) releaseSelection() {
	if !m.hasSelection {
		return
	}
	if n := m.byID(m.selected); n != nil {
		n.Hovered = false
	}
	m.hasSelection = false
}

// Deselect clears focus and re-arms the released entry's timer.
func (m *Manager) Deselect() {
	if !m.hasSelection {
		return
	}
	m.releaseSelection()
	if m.mode == keys.ModeHint {
		m.mode = keys.ModeNormal
	}
	m.afterMutation()
}

// SelectNext moves focus forward, wrapping at the end. With no current
// focus it starts at the first entry.
func (m *Manager) SelectNext() {
	count := len(m.notifications)
	if count == 0 {
		return
	}
	idx := 0
	if m.hasSelection {
		if cur := m.indexOf(m.selected); cur >= 0 {
			idx = (cur + 1) % count
		}
	}
	m.moveFocus(idx)
	m.view.Next(idx, count)
	m.afterMutation()
}

// SelectPrev moves focus backward, wrapping at the front. With no current
// focus it starts at the last entry.
func (m *Manager) SelectPrev() {
	count := len(m.notifications)
	if count == 0 {
		return
	}
	idx := count - 1
	if m.hasSelection {
		if cur := m.indexOf(m.selected); cur >= 0 {
			idx = (cur - 1 + count) % count
		}
	}
	m.moveFocus(idx)
	m.view.Prev(idx, count)
	m.afterMutation()
}

// SelectFirst focuses the first entry and resets the window to the top.
func (m *Manager) SelectFirst() {
	if len(m.notifications) == 0 {
		return
	}
	m.moveFocus(0)
	m.view.Next(0, len(m.notifications))
	m.afterMutation()
}

// SelectLast focuses the last entry and moves the window to the tail.
func (m *Manager) SelectLast() {
	count := len(m.notifications)
	if count == 0 {
		return
	}
	m.moveFocus(count - 1)
	m.view.Prev(count-1, count)
	m.afterMutation()
}

func (m *Manager) moveFocus(i int) {
	if m.hasSelection && m.selected == m.notifications[i].ID {
		return
	}
	m.releaseSelection()
	m.selectAt(i)
}

// SetMode switches the input mode. Entering hint mode assigns hint labels
// to the focused notification's buttons; leaving it clears them.
func (m *Manager) SetMode(mode keys.Mode) {
	if m.mode == mode {
		return
	}
	m.mode = mode
	if mode == keys.ModeHint {
		if n := m.byID(m.selected); m.hasSelection && n != nil {
			n.AssignHints(m.hints)
		}
	} else {
		for _, n := range m.notifications {
			n.ClearHints()
		}
	}
	m.requestRender()
}

// HintDispatch matches typed input against the focused notification's hint
// labels and activates the matching button. Only exact matches count; a
// miss is silent. Reports whether a button was activated.
func (m *Manager) HintDispatch(input string) bool {
	if !m.hasSelection {
		return false
	}
	n := m.byID(m.selected)
	if n == nil {
		return false
	}
	b := n.ButtonByHint(input)
	if b == nil {
		return false
	}
	m.clickButton(n, b)
	return true
}

// clickButton activates a button. Non-resident notifications close after
// an action is invoked, per the notification spec.
func (m *Manager) clickButton(n *Notification, b *Button) {
	switch b.Kind {
	case ButtonDismiss:
		m.dismiss(n.ID, dbus.CloseReasonDismissed)
	case ButtonAction:
		if m.onAction != nil {
			m.onAction(n.ID, b.Key)
		}
		if !n.Resident {
			m.dismiss(n.ID, dbus.CloseReasonDismissed)
		}
	case ButtonAnchor:
		if m.onOpen != nil {
			m.onOpen(b.Target)
		}
	}
}

// NotificationAt returns the visible notification under the point, or nil.
func (m *Manager) NotificationAt(x, y float32) *Notification {
	start, end := m.view.Range()
	for _, n := range m.notifications[start:end] {
		style := m.cfg.Styles.FindStyle(n.AppName, n.Hovered)
		if n.Bounds(style).Contains(x, y) {
			return n
		}
	}
	return nil
}

// Click activates whatever sits under the point: a button if one is hit,
// otherwise the notification body, which focuses it.
func (m *Manager) Click(x, y float32) {
	n := m.NotificationAt(x, y)
	if n == nil {
		return
	}
	for _, b := range n.Buttons {
		if b.Bounds.Contains(x, y) {
			m.clickButton(n, b)
			return
		}
	}
	m.Select(n.ID)
}

// Hover focuses the notification under the pointer, if any.
func (m *Manager) Hover(x, y float32) {
	if n := m.NotificationAt(x, y); n != nil {
		m.Select(n.ID)
	}
}

// Inhibit diverts all new notifications away from display. They are
// archived immediately and never shown.
func (m *Manager) Inhibit() {
	if m.inhibited {
		return
	}
	m.inhibited = true
	m.logger.Info("notifications inhibited")
}

// Uninhibit resumes display. Notifications that arrived while inhibited
// stay archived; only new arrivals are shown.
func (m *Manager) Uninhibit() {
	if !m.inhibited {
		return
	}
	m.inhibited = false
	m.logger.Info("notifications uninhibited", "inhibited_count", m.waiting)
	m.waiting = 0
}

// cancelTimer tears down an armed timer and bumps the generation so any
// in-flight callback becomes stale. Safe to call on an unarmed entry.
func (m *Manager) cancelTimer(n *Notification) {
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.armed = false
	n.gen++
}

// armTimer registers a fresh expiry timer for the notification's full
// resolved timeout.
func (m *Manager) armTimer(n *Notification) {
	n.gen++
	gen := n.gen
	id := n.ID
	n.armed = true
	n.cancel = m.clock.AfterFunc(n.Timeout, func() {
		m.post(func() {
			m.Expire(id, gen)
		})
	})
}

// syncTimers enforces the queue policy after any mutation. Under FIFO only
// the entry at index 0 may hold an armed timer; under Unordered every
// entry expires independently. Hovered entries never hold a timer.
func (m *Manager) syncTimers() {
	fifo := m.cfg.General.Queue == config.QueueFIFO
	for i, n := range m.notifications {
		eligible := n.Expires && !n.Hovered && (!fifo || i == 0)
		switch {
		case eligible && !n.armed:
			m.armTimer(n)
		case !eligible && n.armed:
			m.cancelTimer(n)
		}
	}
}

// afterMutation re-establishes every derived invariant: window bounds and
// counters, vertical layout, timer policy, and finally a render request.
func (m *Manager) afterMutation() {
	m.view.Sync(len(m.notifications))
	m.layout()
	m.syncTimers()
	m.requestRender()
}

// layout recomputes the authoritative vertical offsets of the visible
// slice, including space for the overflow counters.
func (m *Manager) layout() {
	y := float32(0)
	if m.view.PrevHidden() > 0 {
		y += m.counterExtent()
	}
	start, end := m.view.Range()
	for _, n := range m.notifications[start:end] {
		style := m.cfg.Styles.FindStyle(n.AppName, n.Hovered)
		n.Layout(style, y+style.Margin.Top)
		y += n.Extent(style)
	}
}

func (m *Manager) counterExtent() float32 {
	style := &m.cfg.Styles.Default.Style
	return style.Font.Size*1.4 + style.Margin.Vertical()
}

func (m *Manager) requestRender() {
	if m.onRender != nil {
		m.onRender()
	}
}

// Frame builds the draw list for the current state: the prev counter, the
// visible notifications with their buttons (plus hint overlays in hint
// mode), and the next counter.
func (m *Manager) Frame() render.Frame {
	var frame render.Frame

	style := &m.cfg.Styles.Default.Style
	width := style.Width + style.Margin.Horizontal()
	y := float32(0)

	if hidden := m.view.PrevHidden(); hidden > 0 {
		label := m.cfg.Styles.Counter.Format(m.cfg.Styles.Counter.PrevFormat, hidden)
		y = m.appendCounter(&frame, label, y)
	}

	start, end := m.view.Range()
	for _, n := range m.notifications[start:end] {
		m.appendNotification(&frame, n)
		ns := m.cfg.Styles.FindStyle(n.AppName, n.Hovered)
		bottom := n.Y + n.Height + ns.Margin.Bottom
		if bottom > y {
			y = bottom
		}
	}

	if hidden := m.view.NextHidden(); hidden > 0 {
		label := m.cfg.Styles.Counter.Format(m.cfg.Styles.Counter.NextFormat, hidden)
		y = m.appendCounter(&frame, label, y)
	}

	frame.Width = width
	frame.Height = y
	return frame
}

func (m *Manager) appendCounter(frame *render.Frame, label string, y float32) float32 {
	style := &m.cfg.Styles.Default.Style
	height := style.Font.Size * 1.4
	rect := render.Rect{
		X:      style.Margin.Left,
		Y:      y + style.Margin.Top,
		Width:  style.Width,
		Height: height,
	}
	frame.Instances = append(frame.Instances, render.Instance{
		Rect:         rect,
		Color:        render.Color(style.Background.Normal),
		BorderColor:  render.Color(style.Border.Color.Normal),
		BorderSize:   style.Border.Size,
		BorderRadius: style.Border.Radius,
	})
	frame.Texts = append(frame.Texts, render.TextArea{
		Text:   label,
		X:      rect.X + style.Padding.Left,
		Y:      rect.Y,
		Bounds: rect,
		Size:   style.Font.Size,
		Color:  render.Color(style.Font.Color.Normal),
	})
	return rect.Y + rect.Height + style.Margin.Bottom
}

func (m *Manager) appendNotification(frame *render.Frame, n *Notification) {
	style := m.cfg.Styles.FindStyle(n.AppName, n.Hovered)
	rect := n.Bounds(style)

	frame.Instances = append(frame.Instances, render.Instance{
		Rect:         rect,
		Color:        render.Color(style.Background.Get(n.Urgency)),
		BorderColor:  render.Color(style.Border.Color.Get(n.Urgency)),
		BorderSize:   style.Border.Size,
		BorderRadius: style.Border.Radius,
	})

	textX := rect.X + style.Padding.Left
	textY := rect.Y + style.Padding.Top
	lineHeight := style.Font.Size * 1.4

	frame.Texts = append(frame.Texts, render.TextArea{
		Text:   n.Summary,
		X:      textX,
		Y:      textY,
		Bounds: rect,
		Size:   style.Font.Size,
		Color:  render.Color(style.Font.Color.Get(n.Urgency)),
		Bold:   true,
	})
	if n.Text != "" {
		frame.Texts = append(frame.Texts, render.TextArea{
			Text:   n.Text,
			X:      textX,
			Y:      textY + lineHeight,
			Bounds: rect,
			Size:   style.Font.Size,
			Color:  render.Color(style.Font.Color.Get(n.Urgency)),
		})
	}

	hintStyle := m.cfg.Styles.HintStyle()
	for _, b := range n.Buttons {
		if b.Kind == ButtonAction {
			frame.Instances = append(frame.Instances, render.Instance{
				Rect:         b.Bounds,
				Color:        render.Color(style.Background.Get(n.Urgency)),
				BorderColor:  render.Color(style.Border.Color.Get(n.Urgency)),
				BorderSize:   style.Border.Size,
				BorderRadius: style.Border.Radius,
			})
			frame.Texts = append(frame.Texts, render.TextArea{
				Text:   b.Label,
				X:      b.Bounds.X + style.Padding.Left,
				Y:      b.Bounds.Y,
				Bounds: b.Bounds,
				Size:   style.Font.Size,
				Color:  render.Color(style.Font.Color.Get(n.Urgency)),
			})
		}
		if m.mode == keys.ModeHint && b.Hint != "" {
			frame.Instances = append(frame.Instances, render.Instance{
				Rect: render.Rect{
					X:      b.Bounds.X,
					Y:      b.Bounds.Y,
					Width:  hintStyle.Font.Size * float32(len(b.Hint)+1),
					Height: hintStyle.Font.Size * 1.4,
				},
				Color:        render.Color(hintStyle.Background.Normal),
				BorderColor:  render.Color(hintStyle.Border.Color.Normal),
				BorderSize:   hintStyle.Border.Size,
				BorderRadius: hintStyle.Border.Radius,
			})
			frame.Texts = append(frame.Texts, render.TextArea{
				Text:  b.Hint,
				X:     b.Bounds.X,
				Y:     b.Bounds.Y,
				Size:  hintStyle.Font.Size,
				Color: render.Color(hintStyle.Font.Color.Normal),
				Bold:  true,
			})
		}
	}
}
