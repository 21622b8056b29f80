package autoclicker

import "time"

// Keycode is a hardware key code as reported by the display server.
type Keycode uint8

// ModMask is a modifier bit mask in X11 core protocol encoding.
type ModMask uint16

const (
	ModLock ModMask = 1 << 1 // Caps Lock
	ModMod2 ModMask = 1 << 4 // Num Lock on common layouts
	ModMod5 ModMask = 1 << 7 // Scroll/ISO level lock on some layouts
)

// LockModifierCombinations lists every combination of the lock-like
// modifiers. A shortcut grabbed under all of them matches regardless of
// Caps Lock or Num Lock state.
var LockModifierCombinations = [8]ModMask{
	0,
	ModLock,
	ModMod2,
	ModMod5,
	ModLock | ModMod2,
	ModLock | ModMod5,
	ModMod2 | ModMod5,
	ModLock | ModMod2 | ModMod5,
}

const (
	WatcherPollInterval   = 20 * time.Millisecond
	GeneratorIdleInterval = 5 * time.Millisecond
	MinimumPressTime      = time.Millisecond
	MinimumRate           = 0.1
)

// KeyEvent is a key press delivered by a KeyDisplay.
type KeyEvent struct {
	Keycode Keycode
	Press   bool
}

// KeyDisplay is the display connection owned by the shortcut watcher.
type KeyDisplay interface {
	ResolveKeycode(keysym string) (Keycode, error)
	GrabKey(code Keycode, mods ModMask) error
	UngrabKey(code Keycode, mods ModMask) error
	// PollEvent returns the next queued event without blocking. ok is false
	// when nothing is pending.
	PollEvent() (ev KeyEvent, ok bool, err error)
	Flush() error
	Close() error
}

// PointerDisplay is the display connection owned by the actuation generator.
type PointerDisplay interface {
	ButtonDown(button Button) error
	ButtonUp(button Button) error
	Flush() error
	Close() error
}

// Sleeper blocks for the requested duration.
type Sleeper interface {
	Sleep(d time.Duration)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
