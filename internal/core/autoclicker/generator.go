package autoclicker

import (
	"errors"
	"time"
)

const WorkerClicker = "clicker"

// waits longer than this are sliced so that stop and terminate are noticed
// within one slice even at very low rates.
const waitSlice = 20 * time.Millisecond

type OpenPointerDisplayFunc func() (PointerDisplay, error)

// Generator emits press/release pairs on its own display connection while
// RunState.active is set.
type Generator struct {
	settings *Settings
	state    *RunState
	open     OpenPointerDisplayFunc
	sleeper  Sleeper
	logger   Logger

	idleInterval time.Duration

	display    PointerDisplay
	lastButton Button
	// button text last reported as invalid, to log once per change.
	invalidButton string
	failing       bool
}

func NewGenerator(settings *Settings, state *RunState, open OpenPointerDisplayFunc, sleeper Sleeper, logger Logger) *Generator {
	return &Generator{
		settings:     settings,
		state:        state,
		open:         open,
		sleeper:      sleeper,
		logger:       logger,
		idleInterval: GeneratorIdleInterval,
		lastButton:   ButtonPrimary,
	}
}

// Run blocks until RunState.Terminate is called. Whatever happens, the last
// button used is released before the connection is closed.
func (g *Generator) Run() error {
	display, err := g.open()
	if err != nil {
		werr := fatal(WorkerClicker, errors.Join(ErrDisplayUnavailable, err))
		g.state.Health.set(WorkerClicker, StatusFailed, werr)
		return werr
	}
	g.display = display
	g.state.Health.set(WorkerClicker, StatusRunning, nil)
	defer g.shutdown()

	for !g.state.Terminating() {
		if !g.state.IsActive() {
			g.sleeper.Sleep(g.idleInterval)
			continue
		}

		cfg := g.settings.Snapshot()
		timing := ComputeTiming(cfg.Rate, cfg.Duty)
		button := g.resolveButton(cfg.Button)
		g.lastButton = button

		if err := g.click(button, timing); err != nil {
			if !g.failing {
				g.logger.Warn("Click failed", "button", button, "err", err)
			}
			g.failing = true
			g.sleeper.Sleep(g.idleInterval)
			continue
		}
		g.failing = false
	}
	return nil
}

func (g *Generator) resolveButton(name string) Button {
	button, err := ParseButton(name)
	if err != nil {
		if g.invalidButton != name {
			g.invalidButton = name
			g.logger.Warn("Invalid button, using left", "button", name, "err", degraded(WorkerClicker, err))
		}
		return ButtonPrimary
	}
	g.invalidButton = ""
	return button
}

func (g *Generator) click(button Button, timing Timing) error {
	downErr := g.display.ButtonDown(button)
	if downErr == nil {
		downErr = g.display.Flush()
	}
	g.wait(timing.On)

	upErr := g.display.ButtonUp(button)
	if upErr == nil {
		upErr = g.display.Flush()
	}
	if downErr != nil || upErr != nil {
		return errors.Join(downErr, upErr)
	}

	if timing.Off > 0 {
		g.wait(timing.Off)
	}
	return nil
}

// wait sleeps for d, returning early once the generator is stopped or
// terminated. Short waits go to the sleeper in one call to keep precision.
func (g *Generator) wait(d time.Duration) {
	for d > 2*waitSlice {
		if g.state.Terminating() || !g.state.IsActive() {
			return
		}
		g.sleeper.Sleep(waitSlice)
		d -= waitSlice
	}
	g.sleeper.Sleep(d)
}

func (g *Generator) shutdown() {
	if err := g.display.ButtonUp(g.lastButton); err != nil {
		g.logger.Warn("Final release failed", "button", g.lastButton, "err", err)
	}
	_ = g.display.Flush()
	if err := g.display.Close(); err != nil {
		g.logger.Debug("Clicker display close failed", "err", err)
	}
	g.state.Health.set(WorkerClicker, StatusStopped, nil)
}
