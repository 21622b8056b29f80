//go:build !linux

package pacing

import "time"

func kernelSleep(d time.Duration) {
	time.Sleep(d)
}
