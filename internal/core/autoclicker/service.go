package autoclicker

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Displays struct {
	OpenKeys    OpenKeyDisplayFunc
	OpenPointer OpenPointerDisplayFunc
}

type ServiceConfig struct {
	Settings     Config
	StartEnabled bool
	Sleeper      Sleeper
}

// Service owns the shared settings and run state and runs the hotkey and
// clicker workers on dedicated OS threads.
type Service struct {
	settings  *Settings
	state     *RunState
	watcher   *Watcher
	generator *Generator
	logger    Logger

	startOnce sync.Once
	stopOnce  sync.Once
	workers   errgroup.Group
	doneCh    chan struct{}
	// first worker error, valid once doneCh is closed.
	exitErr   error
}

func NewService(cfg ServiceConfig, displays Displays, logger Logger) (*Service, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if displays.OpenKeys == nil || displays.OpenPointer == nil {
		return nil, fmt.Errorf("display openers are required")
	}
	if cfg.Sleeper == nil {
		return nil, fmt.Errorf("sleeper is nil")
	}

	settings := NewSettings(cfg.Settings)
	state := NewRunState(cfg.StartEnabled)
	return &Service{
		settings:  settings,
		state:     state,
		watcher:   NewWatcher(settings, state, displays.OpenKeys, logger),
		generator: NewGenerator(settings, state, displays.OpenPointer, cfg.Sleeper, logger),
		logger:    logger,
		doneCh:    make(chan struct{}),
	}, nil
}

// Start launches both workers. They are detached: nothing in the service
// calls into them, they only observe Settings and RunState.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		s.workers.Go(func() error { return s.runWorker(WorkerHotkey, s.watcher.Run) })
		s.workers.Go(func() error { return s.runWorker(WorkerClicker, s.generator.Run) })
		go func() {
			s.exitErr = s.workers.Wait()
			close(s.doneCh)
		}()
	})
}

func (s *Service) runWorker(name string, run func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	err := run()
	if err != nil {
		s.logger.Error("Worker exited", "worker", name, "err", err)
	}
	return err
}

// Stop clears active and raises terminate. It does not wait for the
// workers; use Wait for a bounded grace period.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.state.SetActive(false)
		s.state.Terminate()
	})
}

// Wait blocks until both workers have exited or timeout elapses, and
// reports whether they exited.
func (s *Service) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.doneCh:
		return true
	case <-timer.C:
		return false
	}
}

// Done is closed once both workers have exited.
func (s *Service) Done() <-chan struct{} {
	return s.doneCh
}

// Err returns the first fatal worker error once both workers have exited,
// and nil before that.
func (s *Service) Err() error {
	select {
	case <-s.doneCh:
		return s.exitErr
	default:
		return nil
	}
}

func (s *Service) Settings() *Settings {
	return s.settings
}

func (s *Service) State() *RunState {
	return s.state
}

func (s *Service) SetEnabled(enabled bool) {
	s.state.SetActive(enabled)
}

// Toggle flips the enabled state atomically, so a concurrent hotkey press
// is never lost, and returns the new value.
func (s *Service) Toggle() bool {
	return s.state.Toggle()
}

func (s *Service) IsEnabled() bool {
	return s.state.IsActive()
}

func (s *Service) Health() *Health {
	return s.state.Health
}
