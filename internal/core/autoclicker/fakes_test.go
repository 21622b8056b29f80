package autoclicker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	infos []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

type grab struct {
	code Keycode
	mods ModMask
}

type fakeKeyDisplay struct {
	mu      sync.Mutex
	keymap  map[string]Keycode
	grabs   map[grab]struct{}
	ops     []string
	events  []KeyEvent
	failOn  *grab
	flushes int
	closed  bool
}

func newFakeKeyDisplay() *fakeKeyDisplay {
	return &fakeKeyDisplay{
		keymap: map[string]Keycode{"F6": 72, "F8": 74, "q": 24},
		grabs:  make(map[grab]struct{}),
	}
}

func (f *fakeKeyDisplay) ResolveKeycode(name string) (Keycode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%w: empty name", ErrUnknownKeysym)
	}
	code, ok := f.keymap[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrNoKeycode, name)
	}
	return code, nil
}

func (f *fakeKeyDisplay) GrabKey(code Keycode, mods ModMask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := grab{code: code, mods: mods}
	if f.failOn != nil && *f.failOn == g {
		return errors.New("BadAccess")
	}
	f.grabs[g] = struct{}{}
	f.ops = append(f.ops, fmt.Sprintf("grab %d", code))
	return nil
}

func (f *fakeKeyDisplay) UngrabKey(code Keycode, mods ModMask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.grabs, grab{code: code, mods: mods})
	f.ops = append(f.ops, fmt.Sprintf("ungrab %d", code))
	return nil
}

func (f *fakeKeyDisplay) PollEvent() (KeyEvent, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return KeyEvent{}, false, nil
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, true, nil
}

func (f *fakeKeyDisplay) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func (f *fakeKeyDisplay) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeKeyDisplay) push(events ...KeyEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

func (f *fakeKeyDisplay) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeKeyDisplay) setKey(name string, code Keycode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keymap[name] = code
}

func (f *fakeKeyDisplay) grabbed() []grab {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]grab, 0, len(f.grabs))
	for g := range f.grabs {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].code != out[j].code {
			return out[i].code < out[j].code
		}
		return out[i].mods < out[j].mods
	})
	return out
}

func (f *fakeKeyDisplay) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *fakeKeyDisplay) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type buttonEvent struct {
	button Button
	down   bool
}

type recordingPointer struct {
	mu      sync.Mutex
	events  []buttonEvent
	downErr error
	closed  bool
}

func (r *recordingPointer) ButtonDown(b Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.downErr != nil {
		return r.downErr
	}
	r.events = append(r.events, buttonEvent{button: b, down: true})
	return nil
}

func (r *recordingPointer) ButtonUp(b Button) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, buttonEvent{button: b, down: false})
	return nil
}

func (r *recordingPointer) Flush() error { return nil }

func (r *recordingPointer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingPointer) snapshot() []buttonEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]buttonEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingPointer) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// scriptedSleeper records requested durations and lets a test act after
// each sleep, e.g. to terminate the worker.
type scriptedSleeper struct {
	mu     sync.Mutex
	slept  []time.Duration
	onWake func(n int)
}

func (s *scriptedSleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	n := len(s.slept)
	hook := s.onWake
	s.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

func (s *scriptedSleeper) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.slept))
	copy(out, s.slept)
	return out
}

// shortSleeper keeps service tests from spinning without slowing them down.
type shortSleeper struct{}

func (shortSleeper) Sleep(d time.Duration) {
	if d > time.Millisecond {
		d = time.Millisecond
	}
	time.Sleep(d)
}

func lockCombinationsFor(code Keycode) []grab {
	out := make([]grab, 0, len(LockModifierCombinations))
	for _, mods := range LockModifierCombinations {
		out = append(out, grab{code: code, mods: mods})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].mods < out[j].mods })
	return out
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
