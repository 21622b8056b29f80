package autoclicker

import (
	"sync"
	"sync/atomic"
)

// RunState holds the two independent run flags. Neither flag constrains
// the other, so each is a plain atomic.
type RunState struct {
	active    atomic.Bool
	terminate atomic.Bool

	Health *Health
}

func NewRunState(active bool) *RunState {
	s := &RunState{Health: NewHealth()}
	s.active.Store(active)
	return s
}

func (s *RunState) IsActive() bool {
	return s.active.Load()
}

func (s *RunState) SetActive(active bool) {
	s.active.Store(active)
}

// Toggle flips active and returns the new value.
func (s *RunState) Toggle() bool {
	for {
		old := s.active.Load()
		if s.active.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (s *RunState) Terminating() bool {
	return s.terminate.Load()
}

// Terminate is one-way; there is no way to clear it.
func (s *RunState) Terminate() {
	s.terminate.Store(true)
}

type WorkerStatus int

const (
	StatusStarting WorkerStatus = iota
	StatusRunning
	StatusFailed
	StatusStopped
)

func (s WorkerStatus) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusFailed:
		return "failed"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type WorkerHealth struct {
	Status WorkerStatus
	Err    error
}

// Health records per-worker status so the control surface can learn that a
// worker died, e.g. the shortcut watcher could not reach the display.
type Health struct {
	mu      sync.RWMutex
	workers map[string]WorkerHealth
}

func NewHealth() *Health {
	return &Health{workers: make(map[string]WorkerHealth)}
}

func (h *Health) set(worker string, status WorkerStatus, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.workers[worker] = WorkerHealth{Status: status, Err: err}
}

func (h *Health) Get(worker string) WorkerHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.workers[worker]
}

// Failures returns the workers currently in StatusFailed.
func (h *Health) Failures() map[string]error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]error)
	for name, wh := range h.workers {
		if wh.Status == StatusFailed {
			out[name] = wh.Err
		}
	}
	return out
}
