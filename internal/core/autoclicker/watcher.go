package autoclicker

import (
	"errors"
	"time"
)

const WorkerHotkey = "hotkey"

type OpenKeyDisplayFunc func() (KeyDisplay, error)

// Watcher grabs the configured shortcut on its own display connection and
// flips RunState.active on every matching key press. The grab follows the
// shortcut text in Settings: a change is noticed on the next poll.
type Watcher struct {
	settings *Settings
	state    *RunState
	open     OpenKeyDisplayFunc
	logger   Logger

	pollInterval time.Duration
	sleep        func(time.Duration)

	display KeyDisplay
	keycode Keycode
	bound   bool
	// shortcut text whose resolution or grab last failed, to log once per change.
	failedShortcut string
}

func NewWatcher(settings *Settings, state *RunState, open OpenKeyDisplayFunc, logger Logger) *Watcher {
	return &Watcher{
		settings:     settings,
		state:        state,
		open:         open,
		logger:       logger,
		pollInterval: WatcherPollInterval,
		sleep:        time.Sleep,
	}
}

// Run blocks until RunState.Terminate is called. It returns a KindFatal
// error if the display cannot be opened.
func (w *Watcher) Run() error {
	display, err := w.open()
	if err != nil {
		werr := fatal(WorkerHotkey, errors.Join(ErrDisplayUnavailable, err))
		w.state.Health.set(WorkerHotkey, StatusFailed, werr)
		return werr
	}
	w.display = display
	w.state.Health.set(WorkerHotkey, StatusRunning, nil)
	defer w.shutdown()

	for !w.state.Terminating() {
		_ = w.syncBinding()

		ev, ok, err := w.display.PollEvent()
		if err != nil {
			w.logger.Debug("Hotkey event error", "err", err)
			w.sleep(w.pollInterval)
			continue
		}
		if !ok {
			w.sleep(w.pollInterval)
			continue
		}
		w.handleEvent(ev)
	}
	return nil
}

func (w *Watcher) handleEvent(ev KeyEvent) {
	if !ev.Press || !w.bound || ev.Keycode != w.keycode {
		return
	}
	if w.state.Toggle() {
		w.logger.Info("Hotkey", "state", "START")
	} else {
		w.logger.Info("Hotkey", "state", "STOP")
	}
}

// syncBinding re-resolves the shortcut and moves the grab when the keycode
// changed. The old keycode is fully ungrabbed before the new one is grabbed.
func (w *Watcher) syncBinding() error {
	shortcut := w.settings.Shortcut()
	code, err := w.display.ResolveKeycode(shortcut)
	if err != nil {
		werr := recoverable(WorkerHotkey, err)
		w.reportOnce(shortcut, "Hotkey does not resolve", werr)
		return werr
	}
	if w.bound && code == w.keycode {
		w.failedShortcut = ""
		return nil
	}

	if w.bound {
		w.ungrabAll(w.keycode)
		w.bound = false
	}
	if err := w.grabAll(code); err != nil {
		w.ungrabAll(code)
		_ = w.display.Flush()
		werr := recoverable(WorkerHotkey, err)
		w.reportOnce(shortcut, "Hotkey grab failed", werr)
		return werr
	}
	if err := w.display.Flush(); err != nil {
		w.logger.Debug("Hotkey flush failed", "err", err)
	}

	previous := w.keycode
	w.keycode = code
	w.bound = true
	w.failedShortcut = ""
	w.logger.Info("Hotkey rebound", "shortcut", shortcut, "keycode", code, "previous", previous)
	return nil
}

func (w *Watcher) grabAll(code Keycode) error {
	for _, mods := range LockModifierCombinations {
		if err := w.display.GrabKey(code, mods); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) ungrabAll(code Keycode) {
	for _, mods := range LockModifierCombinations {
		if err := w.display.UngrabKey(code, mods); err != nil {
			w.logger.Debug("Ungrab failed", "keycode", code, "mods", mods, "err", err)
		}
	}
}

func (w *Watcher) reportOnce(shortcut, msg string, err error) {
	if w.failedShortcut == shortcut {
		return
	}
	w.failedShortcut = shortcut
	w.logger.Warn(msg, "shortcut", shortcut, "err", err)
}

func (w *Watcher) shutdown() {
	if w.bound {
		w.ungrabAll(w.keycode)
		w.bound = false
	}
	_ = w.display.Flush()
	if err := w.display.Close(); err != nil {
		w.logger.Debug("Hotkey display close failed", "err", err)
	}
	w.state.Health.set(WorkerHotkey, StatusStopped, nil)
}
