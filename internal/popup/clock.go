package popup

import "time"

// CancelFunc cancels a pending timer registration. Calling it after the
// timer fired is harmless.
type CancelFunc func()

// Clock schedules callbacks. The production implementation wraps
// time.AfterFunc; tests substitute a manual clock so expiry is
// deterministic.
type Clock interface {
	AfterFunc(d time.Duration, f func()) CancelFunc
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) CancelFunc {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// RealClock returns a Clock backed by the runtime timer wheel.
func RealClock() Clock {
	return realClock{}
}
