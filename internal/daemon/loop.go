// Package daemon provides the main orchestration for notid: the event
// loop, key dispatch, the control interface and configuration reload.
package daemon

import (
	"context"
	"log/slog"
)

// Loop is the daemon's single-threaded event loop. All notification,
// viewport and selection state is mutated only from inside it; D-Bus
// handlers, timers and input plumbing post closures in and the loop
// applies them strictly in arrival order.
type Loop struct {
	events chan func()
	logger *slog.Logger
}

// NewLoop creates an event loop.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		events: make(chan func(), 256),
		logger: logger,
	}
}

// Post queues f for execution on the loop. Safe from any goroutine.
func (l *Loop) Post(f func()) {
	l.events <- f
}

// Call runs f on the loop and waits for it to finish. Must not be called
// from inside the loop itself.
func (l *Loop) Call(f func()) {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		f()
	})
	<-done
}

// Run drains the loop until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return ctx.Err()
		case f := <-l.events:
			f()
		}
	}
}
