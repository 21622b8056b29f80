//go:build linux

package pacing

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// kernelSleep sleeps until an absolute CLOCK_MONOTONIC deadline so that
// signal interruptions do not stretch the total wait.
func kernelSleep(d time.Duration) {
	var now unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &now); err != nil {
		time.Sleep(d)
		return
	}
	deadline := unix.NsecToTimespec(now.Nano() + d.Nanoseconds())
	for {
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, unix.TIMER_ABSTIME, &deadline, nil)
		if err == nil {
			return
		}
		if !errors.Is(err, unix.EINTR) {
			time.Sleep(d)
			return
		}
	}
}
