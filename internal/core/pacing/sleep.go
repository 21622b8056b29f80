// Package pacing provides a sleeper accurate to well below a millisecond.
//
// The bulk of a wait is handed to the kernel; the final SpinWindow is spent
// yielding in a loop against the monotonic clock, which absorbs timer slack
// and scheduler wakeup latency.
package pacing

import (
	"runtime"
	"time"
)

const DefaultSpinWindow = time.Millisecond

type Sleeper struct {
	SpinWindow time.Duration
}

func New() *Sleeper {
	return &Sleeper{SpinWindow: DefaultSpinWindow}
}

func (s *Sleeper) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)

	spin := s.SpinWindow
	if spin < 0 {
		spin = 0
	}
	if coarse := d - spin; coarse > 0 {
		kernelSleep(coarse)
	}
	for time.Now().Before(deadline) {
		runtime.Gosched()
	}
}
