package popup

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notid/internal/config"
	notifdbus "github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/keys"
)

// fakeTimer is a registration on the fake clock. Firing a cancelled timer
// simulates the race where a timer goes off just as it is being cancelled.
type fakeTimer struct {
	d         time.Duration
	f         func()
	cancelled bool
	fired     bool
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) CancelFunc {
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return func() { t.cancelled = true }
}

// armed returns the live registrations.
func (c *fakeClock) armed() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.cancelled && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire triggers a registration, live or not.
func (c *fakeClock) fire(t *fakeTimer) {
	t.fired = true
	t.f()
}

func newTestManager(t *testing.T, mutate func(*config.Config)) (*Manager, *fakeClock) {
	t.Helper()
	cfg := config.Default()
	cfg.General.MaxVisible = 3
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	clock := &fakeClock{}
	m, err := NewManager(cfg, clock, nil)
	require.NoError(t, err)
	return m, clock
}

func notify(app, summary string, timeout int32) *notifdbus.DBusNotification {
	return &notifdbus.DBusNotification{
		AppName:       app,
		Summary:       summary,
		ExpireTimeout: timeout,
	}
}

func notifyUrgency(urgency byte, timeout int32) *notifdbus.DBusNotification {
	return &notifdbus.DBusNotification{
		AppName:       "test",
		Summary:       "urgent-ish",
		ExpireTimeout: timeout,
		Hints: map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(urgency),
		},
	}
}

func addN(m *Manager, n int) {
	for i := 1; i <= n; i++ {
		m.Add(notify("test", "msg", -1), uint32(i))
	}
}

func ids(m *Manager) []uint32 {
	out := make([]uint32, 0, m.Len())
	for _, n := range m.Notifications() {
		out = append(out, n.ID)
	}
	return out
}

func requireViewInvariants(t *testing.T, m *Manager) {
	t.Helper()
	start, end := m.View().Range()
	count := m.Len()
	require.GreaterOrEqual(t, start, 0)
	require.LessOrEqual(t, start, end)
	require.LessOrEqual(t, end-start, m.View().MaxVisible())
	require.LessOrEqual(t, end, count)
	if count < m.View().MaxVisible() {
		require.Equal(t, count, end)
	}
}

func TestAddAssignsUniqueActiveIDs(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 5)
	// Re-submitting an active id must replace, not duplicate
	m.Add(notify("test", "again", -1), 3)

	seen := map[uint32]bool{}
	for _, id := range ids(m) {
		assert.False(t, seen[id], "duplicate active id %d", id)
		seen[id] = true
	}
	assert.Equal(t, 5, m.Len())
}

func TestReplaceRoundTrip(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Add(notify("test", "first", -1), 4)
	m.Add(notify("test", "old", -1), 5)
	m.Add(notify("test", "third", -1), 6)

	m.Add(notify("test", "new data", -1), 5)

	require.Equal(t, []uint32{4, 5, 6}, ids(m))
	assert.Equal(t, "new data", m.Notifications()[1].Summary)
}

func TestReplacePreservesHover(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Add(notify("test", "old", -1), 5)
	m.Select(5)

	m.Add(notify("test", "new", -1), 5)

	n := m.Notifications()[0]
	assert.True(t, n.Hovered)
	id, ok := m.SelectedID()
	assert.True(t, ok)
	assert.Equal(t, uint32(5), id)
	// Hovered entries hold no timer even across a replace
	assert.Empty(t, mustClock(m).armed())
}

func mustClock(m *Manager) *fakeClock {
	return m.clock.(*fakeClock)
}

func TestViewportBoundUnderChurn(t *testing.T) {
	m, _ := newTestManager(t, nil)
	requireViewInvariants(t, m)

	for i := 1; i <= 10; i++ {
		m.Add(notify("test", "msg", -1), uint32(i))
		requireViewInvariants(t, m)
	}
	for _, id := range []uint32{10, 1, 5, 6, 2} {
		m.Dismiss(id)
		requireViewInvariants(t, m)
	}
	for i := 0; i < 7; i++ {
		m.SelectNext()
		requireViewInvariants(t, m)
	}
	m.DismissAll()
	requireViewInvariants(t, m)
	assert.Equal(t, 0, m.Len())
}

func TestOverflowCounters(t *testing.T) {
	m, _ := newTestManager(t, nil) // max_visible = 3
	addN(m, 5)

	start, end := m.View().Range()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
	assert.Equal(t, 0, m.View().PrevHidden())
	assert.Equal(t, 2, m.View().NextHidden())

	frame := m.Frame()
	var counterTexts []string
	for _, txt := range frame.Texts {
		if txt.Text == "(2 more)" {
			counterTexts = append(counterTexts, txt.Text)
		}
	}
	assert.Len(t, counterTexts, 1)
}

func TestNextSlidesWindowWithLookahead(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 5)

	wantSelected := []uint32{1, 2, 3}
	for _, want := range wantSelected {
		m.SelectNext()
		id, ok := m.SelectedID()
		require.True(t, ok)
		assert.Equal(t, want, id)
	}

	start, end := m.View().Range()
	assert.Equal(t, 1, start)
	assert.Equal(t, 4, end)
	assert.Equal(t, 1, m.View().PrevHidden())
	assert.Equal(t, 1, m.View().NextHidden())
}

func TestFocusStaysInWindow(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 8)

	steps := []func(){m.SelectNext, m.SelectNext, m.SelectPrev, m.SelectNext,
		m.SelectLast, m.SelectNext, m.SelectPrev, m.SelectFirst, m.SelectPrev}
	for _, step := range steps {
		step()
		id, ok := m.SelectedID()
		require.True(t, ok)
		idx := m.indexOf(id)
		assert.True(t, m.View().Visible(idx), "selected index %d outside window", idx)
		requireViewInvariants(t, m)
	}
}

func TestSelectionWrapsAtEnds(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 3)

	m.SelectLast()
	m.SelectNext()
	id, _ := m.SelectedID()
	assert.Equal(t, uint32(1), id)

	m.SelectPrev()
	id, _ = m.SelectedID()
	assert.Equal(t, uint32(3), id)
}

func TestSelectPrevFromNoSelectionStartsAtEnd(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 5)

	m.SelectPrev()
	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, uint32(5), id)

	start, end := m.View().Range()
	assert.Equal(t, 2, start)
	assert.Equal(t, 5, end)
}

func TestDefaultTimeoutByUrgency(t *testing.T) {
	m, clock := newTestManager(t, func(cfg *config.Config) {
		cfg.General.DefaultTimeout.Normal = 10
	})

	m.Add(notifyUrgency(config.UrgencyNormal, -1), 10)

	n := m.Notifications()[0]
	assert.True(t, n.Expires)
	assert.Equal(t, 10000*time.Millisecond, n.Timeout)

	armed := clock.armed()
	require.Len(t, armed, 1)
	assert.Equal(t, 10000*time.Millisecond, armed[0].d)
}

func TestZeroTimeoutNeverArms(t *testing.T) {
	for _, queue := range []config.QueuePolicy{config.QueueFIFO, config.QueueUnordered} {
		t.Run(string(queue), func(t *testing.T) {
			m, clock := newTestManager(t, func(cfg *config.Config) {
				cfg.General.Queue = queue
			})
			m.Add(notify("test", "sticky", 0), 10)
			assert.Empty(t, clock.armed())

			// Selection churn must not conjure a timer either
			m.Select(10)
			m.Deselect()
			assert.Empty(t, clock.armed())
		})
	}
}

func TestDismissSelectedMovesSelectionToSameIndex(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 3)

	m.Select(2)
	m.DismissSelected()

	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, uint32(3), id, "selection should move to the entry now at the same index")

	// Dismissing the last entry falls back to the new tail
	m.DismissSelected()
	id, ok = m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)

	m.DismissSelected()
	_, ok = m.SelectedID()
	assert.False(t, ok, "selection should clear when the collection empties")
}

func TestFIFOTimerSingleton(t *testing.T) {
	m, clock := newTestManager(t, func(cfg *config.Config) {
		cfg.General.Queue = config.QueueFIFO
	})
	addN(m, 4)

	armed := clock.armed()
	require.Len(t, armed, 1, "FIFO allows exactly one armed timer")

	// Expire the head: the timer must hand off to the new head
	clock.fire(armed[0])
	assert.Equal(t, []uint32{2, 3, 4}, ids(m))
	armed = clock.armed()
	require.Len(t, armed, 1)
}

func TestFIFOHoveredHeadSuppressesAllTimers(t *testing.T) {
	m, clock := newTestManager(t, func(cfg *config.Config) {
		cfg.General.Queue = config.QueueFIFO
	})
	addN(m, 3)

	m.Select(1)
	assert.Empty(t, clock.armed(), "hovering the head must not shift the timer to another entry")

	m.Deselect()
	assert.Len(t, clock.armed(), 1)
}

func TestUnorderedTimersIndependent(t *testing.T) {
	m, clock := newTestManager(t, nil)
	addN(m, 3)
	assert.Len(t, clock.armed(), 3)

	m.Select(2)
	assert.Len(t, clock.armed(), 2)
}

func TestDeselectGrantsFullFreshTimeout(t *testing.T) {
	m, clock := newTestManager(t, nil)
	m.Add(notify("test", "msg", 5000), 1)

	require.Len(t, clock.armed(), 1)
	m.Select(1)
	require.Empty(t, clock.armed())

	m.Deselect()
	armed := clock.armed()
	require.Len(t, armed, 1)
	// A full timeout again, not a resumed remainder
	assert.Equal(t, 5000*time.Millisecond, armed[0].d)
}

func TestStaleTimerNeverFiresAgainstChangedState(t *testing.T) {
	m, clock := newTestManager(t, nil)
	m.Add(notify("test", "msg", 5000), 1)

	stale := clock.armed()[0]
	// Selecting cancels the timer and invalidates its generation
	m.Select(1)

	// Simulate the callback racing past the cancellation
	clock.fire(stale)
	assert.Equal(t, 1, m.Len(), "stale expiry must not dismiss")

	// Same race against a replace
	m.Deselect()
	stale = clock.armed()[0]
	m.Add(notify("test", "replaced", 5000), 1)
	clock.fire(stale)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "replaced", m.Notifications()[0].Summary)
}

func TestExpiryReportsExpiredReason(t *testing.T) {
	m, clock := newTestManager(t, nil)

	var gotID uint32
	var gotReason notifdbus.CloseReason
	m.SetCloseCallback(func(id uint32, reason notifdbus.CloseReason) {
		gotID = id
		gotReason = reason
	})

	m.Add(notify("test", "msg", 1000), 7)
	clock.fire(clock.armed()[0])

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, uint32(7), gotID)
	assert.Equal(t, notifdbus.CloseReasonExpired, gotReason)
}

func TestCloseReasons(t *testing.T) {
	m, _ := newTestManager(t, nil)

	var reasons []notifdbus.CloseReason
	m.SetCloseCallback(func(id uint32, reason notifdbus.CloseReason) {
		reasons = append(reasons, reason)
	})

	m.Add(notify("test", "a", -1), 1)
	m.Add(notify("test", "b", -1), 2)
	m.Dismiss(1)
	m.Close(2)

	assert.Equal(t, []notifdbus.CloseReason{
		notifdbus.CloseReasonDismissed,
		notifdbus.CloseReasonClosed,
	}, reasons)
}

func TestDismissUnknownIDIsNoOp(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 2)

	m.Dismiss(99)
	m.Close(99)
	m.Select(99)
	assert.Equal(t, 2, m.Len())
}

func TestSelectIsIdempotent(t *testing.T) {
	m, clock := newTestManager(t, nil)
	addN(m, 2)

	m.Select(1)
	timersBefore := len(clock.timers)
	m.Select(1)
	assert.Equal(t, timersBefore, len(clock.timers), "re-selecting must not touch timers")
}

func TestHintDispatch(t *testing.T) {
	m, _ := newTestManager(t, nil)
	dn := notify("test", "msg", -1)
	dn.Actions = []string{"default", "Open", "reply", "Reply"}
	m.Add(dn, 1)

	m.Select(1)
	m.SetMode(keys.ModeHint)
	require.Equal(t, keys.ModeHint, m.Mode())

	n := m.Notifications()[0]
	require.Len(t, n.Buttons, 3) // dismiss + 2 actions
	for _, b := range n.Buttons {
		assert.NotEmpty(t, b.Hint)
	}

	var invoked []string
	m.SetActionCallback(func(id uint32, key string) {
		invoked = append(invoked, key)
	})

	// No match is silent
	assert.False(t, m.HintDispatch("zz"))
	assert.Equal(t, 1, m.Len())

	// Exact match on the second action button
	assert.True(t, m.HintDispatch(n.Buttons[2].Hint))
	assert.Equal(t, []string{"reply"}, invoked)
	// Non-resident notifications close after an action fires
	assert.Equal(t, 0, m.Len())
}

func TestHintDispatchDismissButton(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Add(notify("test", "msg", -1), 1)
	m.Select(1)
	m.SetMode(keys.ModeHint)

	hintLabel := m.Notifications()[0].Buttons[0].Hint
	assert.True(t, m.HintDispatch(hintLabel))
	assert.Equal(t, 0, m.Len())
}

func TestResidentSurvivesAction(t *testing.T) {
	m, _ := newTestManager(t, nil)
	dn := notify("test", "msg", -1)
	dn.Actions = []string{"default", "Open"}
	dn.Hints = map[string]dbus.Variant{"resident": dbus.MakeVariant(true)}
	m.Add(dn, 1)
	m.Select(1)
	m.SetMode(keys.ModeHint)

	n := m.Notifications()[0]
	require.True(t, m.HintDispatch(n.Buttons[1].Hint))
	assert.Equal(t, 1, m.Len())
}

func TestAnchorHintOpensLink(t *testing.T) {
	m, _ := newTestManager(t, nil)
	dn := notify("test", "msg", -1)
	dn.Body = `See <a href="https://example.com/build/42">the build</a>`
	m.Add(dn, 1)
	m.Select(1)
	m.SetMode(keys.ModeHint)

	var opened string
	m.SetOpenCallback(func(target string) { opened = target })

	n := m.Notifications()[0]
	require.Len(t, n.Buttons, 2)
	require.True(t, m.HintDispatch(n.Buttons[1].Hint))
	assert.Equal(t, "https://example.com/build/42", opened)
	// Anchors never close the notification
	assert.Equal(t, 1, m.Len())
}

func TestLeavingHintModeClearsLabels(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Add(notify("test", "msg", -1), 1)
	m.Select(1)

	m.SetMode(keys.ModeHint)
	m.SetMode(keys.ModeNormal)
	for _, b := range m.Notifications()[0].Buttons {
		assert.Empty(t, b.Hint)
	}
}

func TestInhibitDivertsToArchive(t *testing.T) {
	m, _ := newTestManager(t, nil)

	var archived []uint32
	var reasons []notifdbus.CloseReason
	m.SetArchiveCallback(func(n *Notification, reason notifdbus.CloseReason) {
		archived = append(archived, n.ID)
		reasons = append(reasons, reason)
	})

	m.Inhibit()
	assert.True(t, m.Inhibited())
	m.Add(notify("test", "a", -1), 1)
	m.Add(notify("test", "b", -1), 2)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 2, m.Waiting())
	assert.Equal(t, []uint32{1, 2}, archived)
	assert.Equal(t, []notifdbus.CloseReason{notifdbus.CloseReasonUndefined, notifdbus.CloseReasonUndefined}, reasons)

	// Uninhibit does not resurrect diverted notifications.
	m.Uninhibit()
	assert.False(t, m.Inhibited())
	assert.Equal(t, 0, m.Waiting())
	assert.Equal(t, 0, m.Len())

	m.Add(notify("test", "c", -1), 3)
	assert.Equal(t, []uint32{3}, ids(m))
}

func TestDismissAllEmitsCloseForEach(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 4)

	var closed []uint32
	m.SetCloseCallback(func(id uint32, reason notifdbus.CloseReason) {
		closed = append(closed, id)
	})

	m.DismissAll()
	assert.Equal(t, []uint32{1, 2, 3, 4}, closed)
	assert.Equal(t, 0, m.Len())
}

func TestLayoutAssignsMonotonicOffsets(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 3)

	prev := float32(-1)
	for _, n := range m.Notifications() {
		assert.Greater(t, n.Y, prev)
		assert.Greater(t, n.Height, float32(0))
		prev = n.Y
	}
}

func TestClickDismissButton(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Add(notify("test", "msg", -1), 1)

	b := m.Notifications()[0].Buttons[0]
	require.Equal(t, ButtonDismiss, b.Kind)
	m.Click(b.Bounds.X+1, b.Bounds.Y+1)
	assert.Equal(t, 0, m.Len())
}

func TestClickBodySelects(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 2)

	n := m.Notifications()[1]
	styles := config.DefaultStyles()
	style := styles.FindStyle(n.AppName, false)
	m.Click(style.Margin.Left+1, n.Y+n.Height-1)

	id, ok := m.SelectedID()
	require.True(t, ok)
	assert.Equal(t, uint32(2), id)
}

func TestArchiveCallbackSeesFullNotification(t *testing.T) {
	m, _ := newTestManager(t, nil)

	var archived []*Notification
	var reasons []notifdbus.CloseReason
	m.SetArchiveCallback(func(n *Notification, reason notifdbus.CloseReason) {
		archived = append(archived, n)
		reasons = append(reasons, reason)
	})

	m.Add(notify("mail", "new message", -1), 1)
	m.Dismiss(1)

	require.Len(t, archived, 1)
	assert.Equal(t, "mail", archived[0].AppName)
	assert.Equal(t, "new message", archived[0].Summary)
	assert.Equal(t, notifdbus.CloseReasonDismissed, reasons[0])
}

func TestUpdateConfigAppliesImmediately(t *testing.T) {
	m, _ := newTestManager(t, nil)
	addN(m, 5)
	m.Select(1)
	m.SetMode(keys.ModeHint)

	cfg := config.Default()
	cfg.General.MaxVisible = 2
	cfg.General.HintCharacters = "ab"
	require.NoError(t, cfg.Validate())
	require.NoError(t, m.UpdateConfig(cfg))

	// The window shrinks right away, not on the next mutation
	start, end := m.View().Range()
	assert.Equal(t, 2, end-start)
	requireViewInvariants(t, m)

	// The focused entry's hint labels come from the new alphabet
	assert.Equal(t, "a", m.Notifications()[0].Buttons[0].Hint)

	// A malformed alphabet is rejected and the old state stays live
	bad := config.Default()
	bad.General.HintCharacters = "aa"
	assert.Error(t, m.UpdateConfig(bad))
	assert.Equal(t, 2, m.View().MaxVisible())
}
