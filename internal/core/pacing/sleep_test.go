package pacing

import (
	"testing"
	"time"
)

func TestSleepNeverReturnsEarly(t *testing.T) {
	s := New()
	for _, d := range []time.Duration{
		50 * time.Microsecond,
		500 * time.Microsecond,
		time.Millisecond,
		3 * time.Millisecond,
	} {
		start := time.Now()
		s.Sleep(d)
		if elapsed := time.Since(start); elapsed < d {
			t.Fatalf("Sleep(%v) returned after %v", d, elapsed)
		}
	}
}

func TestSleepIsTighterThanCoarseSleep(t *testing.T) {
	s := New()
	const d = 2 * time.Millisecond
	const runs = 20

	var worst time.Duration
	for i := 0; i < runs; i++ {
		start := time.Now()
		s.Sleep(d)
		if over := time.Since(start) - d; over > worst {
			worst = over
		}
	}
	// Generous bound for loaded CI machines; the spin phase normally keeps
	// overshoot in the tens of microseconds.
	if worst > 5*time.Millisecond {
		t.Fatalf("worst overshoot %v", worst)
	}
}

func TestSleepNonPositiveReturnsImmediately(t *testing.T) {
	s := New()
	start := time.Now()
	s.Sleep(0)
	s.Sleep(-time.Second)
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Fatalf("non-positive sleeps took %v", elapsed)
	}
}

func TestSleepWithoutSpinWindow(t *testing.T) {
	s := &Sleeper{}
	start := time.Now()
	s.Sleep(time.Millisecond)
	if elapsed := time.Since(start); elapsed < time.Millisecond {
		t.Fatalf("Sleep returned after %v", elapsed)
	}
}
