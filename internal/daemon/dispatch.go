package daemon

import (
	"log/slog"

	"github.com/jmylchreest/notid/internal/audio"
	"github.com/jmylchreest/notid/internal/keys"
	"github.com/jmylchreest/notid/internal/popup"
)

// Dispatcher turns key presses into manager and audio operations. It owns
// the key buffer, so multi-key sequences like "gg" and "dd" accumulate
// across calls. HandleKey must run on the event loop.
type Dispatcher struct {
	buffer  keys.Buffer
	keymap  *keys.Keymap
	manager *popup.Manager
	audio   *audio.Manager
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher bound to the given manager and keymap.
func NewDispatcher(keymap *keys.Keymap, manager *popup.Manager, audioMgr *audio.Manager, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		keymap:  keymap,
		manager: manager,
		audio:   audioMgr,
		logger:  logger,
	}
}

// HandleKey feeds one press through the buffer and applies the resulting
// action, if any. In hint mode, presses that resolve to no binding are
// offered to the hint labels of the selected notification instead.
func (d *Dispatcher) HandleKey(p keys.Press) {
	mode := d.manager.Mode()
	action, pending := d.buffer.Feed(d.keymap, mode, p)

	if action != keys.ActionNone {
		d.logger.Debug("key action", "action", string(action), "sequence", pending.String())
		d.apply(action)
		return
	}

	if mode == keys.ModeHint && len(pending) > 0 {
		if d.manager.HintDispatch(pending.String()) {
			d.buffer.Clear()
		}
	}
}

// Pending returns the buffered key sequence, for display purposes.
func (d *Dispatcher) Pending() keys.Sequence {
	return d.buffer.Pending()
}

func (d *Dispatcher) apply(action keys.Action) {
	switch action {
	case keys.ActionNextNotification:
		d.manager.SelectNext()
	case keys.ActionPrevNotification:
		d.manager.SelectPrev()
	case keys.ActionFirstNotification:
		d.manager.SelectFirst()
	case keys.ActionLastNotification:
		d.manager.SelectLast()
	case keys.ActionDismissNotification:
		d.manager.DismissSelected()
	case keys.ActionUnfocus:
		d.manager.Deselect()
	case keys.ActionHintMode:
		d.manager.SetMode(keys.ModeHint)
	case keys.ActionNormalMode:
		d.manager.SetMode(keys.ModeNormal)
	case keys.ActionMute:
		d.audio.Mute()
	case keys.ActionUnmute:
		d.audio.Unmute()
	case keys.ActionToggleMute:
		d.audio.ToggleMute()
	case keys.ActionInhibit:
		d.manager.Inhibit()
	case keys.ActionUninhibit:
		d.manager.Uninhibit()
	case keys.ActionToggleInhibit:
		if d.manager.Inhibited() {
			d.manager.Uninhibit()
		} else {
			d.manager.Inhibit()
		}
	case keys.ActionNoop:
	default:
		d.logger.Warn("unhandled key action", "action", string(action))
	}
}
