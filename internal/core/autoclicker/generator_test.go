package autoclicker

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func newTestGenerator(cfg Config, active bool, pointer *recordingPointer, sleeper *scriptedSleeper) (*Generator, *RunState) {
	state := NewRunState(active)
	g := NewGenerator(NewSettings(cfg), state, func() (PointerDisplay, error) { return pointer, nil }, sleeper, noopLogger{})
	return g, state
}

func assertFinalRelease(t *testing.T, events []buttonEvent, button Button) {
	t.Helper()
	if len(events) == 0 {
		t.Fatalf("expected at least one event")
	}
	if last := events[len(events)-1]; last != (buttonEvent{button: button, down: false}) {
		t.Fatalf("last event = %+v, want release of %d", last, button)
	}
}

func TestGeneratorIdleEmitsOnlyFinalRelease(t *testing.T) {
	pointer := &recordingPointer{}
	sleeper := &scriptedSleeper{}
	g, state := newTestGenerator(DefaultConfig(), false, pointer, sleeper)
	sleeper.onWake = func(n int) {
		if n == 3 {
			state.Terminate()
		}
	}

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []buttonEvent{{button: ButtonPrimary, down: false}}
	if got := pointer.snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %+v, want %+v", got, want)
	}
	for _, d := range sleeper.durations() {
		if d != GeneratorIdleInterval {
			t.Fatalf("idle sleep = %v, want %v", d, GeneratorIdleInterval)
		}
	}
	if !pointer.isClosed() {
		t.Fatalf("pointer display should be closed")
	}
}

func TestGeneratorClickCycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rate = 100
	cfg.Duty = 25

	pointer := &recordingPointer{}
	sleeper := &scriptedSleeper{}
	g, state := newTestGenerator(cfg, true, pointer, sleeper)
	sleeper.onWake = func(n int) {
		if n == 2 {
			state.Terminate()
		}
	}

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantSleeps := []time.Duration{2500 * time.Microsecond, 7500 * time.Microsecond}
	if got := sleeper.durations(); !reflect.DeepEqual(got, wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", got, wantSleeps)
	}
	wantEvents := []buttonEvent{
		{button: ButtonPrimary, down: true},
		{button: ButtonPrimary, down: false},
		{button: ButtonPrimary, down: false},
	}
	if got := pointer.snapshot(); !reflect.DeepEqual(got, wantEvents) {
		t.Fatalf("events = %+v, want %+v", got, wantEvents)
	}
}

func TestGeneratorTerminateMidPressReleasesLastButton(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Button = "right"

	pointer := &recordingPointer{}
	sleeper := &scriptedSleeper{}
	g, state := newTestGenerator(cfg, true, pointer, sleeper)
	sleeper.onWake = func(n int) {
		if n == 1 {
			state.Terminate()
		}
	}

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := pointer.snapshot()
	if events[0] != (buttonEvent{button: ButtonSecondary, down: true}) {
		t.Fatalf("first event = %+v, want press of right", events[0])
	}
	assertFinalRelease(t, events, ButtonSecondary)
}

func TestGeneratorFullDutyHasNoOffSleep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rate = 50
	cfg.Duty = 100

	pointer := &recordingPointer{}
	sleeper := &scriptedSleeper{}
	g, state := newTestGenerator(cfg, true, pointer, sleeper)
	sleeper.onWake = func(n int) {
		if n == 3 {
			state.Terminate()
		}
	}

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, d := range sleeper.durations() {
		if d != 20*time.Millisecond {
			t.Fatalf("sleep %v; full duty should only sleep the press time", d)
		}
	}
	events := pointer.snapshot()
	// three cycles of down/up, then the final release
	if len(events) != 7 {
		t.Fatalf("events = %+v, want 7", events)
	}
	for i := 0; i < 6; i += 2 {
		if !events[i].down || events[i+1].down {
			t.Fatalf("events not alternating press/release: %+v", events)
		}
	}
}

func TestGeneratorInvalidButtonFallsBackToPrimary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Button = "thumb"

	pointer := &recordingPointer{}
	sleeper := &scriptedSleeper{}
	g, state := newTestGenerator(cfg, true, pointer, sleeper)
	sleeper.onWake = func(n int) {
		if n == 2 {
			state.Terminate()
		}
	}

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, ev := range pointer.snapshot() {
		if ev.button != ButtonPrimary {
			t.Fatalf("event on button %d, want fallback to primary", ev.button)
		}
	}
	if len(pointer.snapshot()) < 2 {
		t.Fatalf("a degraded button must still click")
	}
}

func TestGeneratorLongPressEndsWhenStopped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rate = 0.5
	cfg.Duty = 50

	pointer := &recordingPointer{}
	sleeper := &scriptedSleeper{}
	g, state := newTestGenerator(cfg, true, pointer, sleeper)
	sleeper.onWake = func(n int) {
		switch n {
		case 2:
			state.SetActive(false)
		case 5:
			state.Terminate()
		}
	}

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sleeps := sleeper.durations()
	if len(sleeps) > 8 {
		t.Fatalf("a one second press should be cut short after stop, got %d sleeps", len(sleeps))
	}
	events := pointer.snapshot()
	if len(events) < 2 || !events[0].down || events[1].down {
		t.Fatalf("events = %+v, want press followed by release", events)
	}
	assertFinalRelease(t, events, ButtonPrimary)
}

func TestGeneratorReleasesEvenWhenPressFails(t *testing.T) {
	pointer := &recordingPointer{downErr: errors.New("BadValue")}
	sleeper := &scriptedSleeper{}
	g, state := newTestGenerator(DefaultConfig(), true, pointer, sleeper)
	sleeper.onWake = func(n int) {
		if n == 4 {
			state.Terminate()
		}
	}

	if err := g.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	events := pointer.snapshot()
	for _, ev := range events {
		if ev.down {
			t.Fatalf("unexpected press recorded: %+v", ev)
		}
	}
	assertFinalRelease(t, events, ButtonPrimary)
}

func TestGeneratorRunFatalWithoutDisplay(t *testing.T) {
	state := NewRunState(true)
	g := NewGenerator(NewSettings(DefaultConfig()), state, func() (PointerDisplay, error) {
		return nil, errors.New("XTEST extension unavailable")
	}, &scriptedSleeper{}, noopLogger{})

	err := g.Run()
	if KindOf(err) != KindFatal || !errors.Is(err, ErrDisplayUnavailable) {
		t.Fatalf("Run() error = %v, want fatal display error", err)
	}
	if got := state.Health.Get(WorkerClicker).Status; got != StatusFailed {
		t.Fatalf("health = %v, want failed", got)
	}
}
