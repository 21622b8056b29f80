package autoclicker

import (
	"math"
	"time"
)

// Timing is one press/release cycle.
type Timing struct {
	Period time.Duration
	On     time.Duration
	Off    time.Duration
}

// ComputeTiming derives the press and release durations for a rate in
// clicks per second and a duty cycle in percent. Non-positive rates are
// floored to MinimumRate. The press never drops below MinimumPressTime,
// even when that makes it longer than the period; Off is then zero.
func ComputeTiming(rate, duty float64) Timing {
	if !(rate > 0) {
		rate = MinimumRate
	}
	fraction := duty / 100
	if !(fraction > 0) {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	period := 1 / rate
	on := math.Max(math.Min(period*fraction, period), MinimumPressTime.Seconds())

	t := Timing{
		Period: secondsToDuration(period),
		On:     secondsToDuration(on),
	}
	if t.Period > t.On {
		t.Off = t.Period - t.On
	}
	return t
}

func secondsToDuration(s float64) time.Duration {
	ns := s * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Round(ns))
}
