package autoclicker

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// Button is an X11 pointer button number.
type Button uint8

const (
	ButtonPrimary   Button = 1
	ButtonMiddle    Button = 2
	ButtonSecondary Button = 3

	maxButton Button = 9
)

// ParseButton accepts left, middle, right or a number in 1..9.
func ParseButton(name string) (Button, error) {
	raw := strings.ToLower(strings.TrimSpace(name))
	switch raw {
	case "left":
		return ButtonPrimary, nil
	case "middle":
		return ButtonMiddle, nil
	case "right":
		return ButtonSecondary, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidButton, name)
	}
	if n < int(ButtonPrimary) || n > int(maxButton) {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidButton, n)
	}
	return Button(n), nil
}

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonSecondary:
		return "right"
	default:
		return strconv.Itoa(int(b))
	}
}

// Config is a point-in-time copy of the shared settings.
type Config struct {
	Rate     float64 // clicks per second
	Duty     float64 // percent of each period held down, 0..100
	Button   string
	Shortcut string // X11 keysym name
}

func DefaultConfig() Config {
	return Config{
		Rate:     24.32345237573,
		Duty:     36.836218324712,
		Button:   "left",
		Shortcut: "F6",
	}
}

// Validate reports the first field an operator would need to fix. The
// workers tolerate invalid values, so this is for input surfaces only.
func (c Config) Validate() error {
	if err := ValidateRate(c.Rate); err != nil {
		return err
	}
	if err := ValidateDuty(c.Duty); err != nil {
		return err
	}
	if _, err := ParseButton(c.Button); err != nil {
		return err
	}
	if strings.TrimSpace(c.Shortcut) == "" {
		return fmt.Errorf("shortcut is empty")
	}
	return nil
}

// ValidateRate accepts a finite rate above zero.
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidRate, rate)
	}
	return nil
}

// ValidateDuty accepts a percentage within 0..100.
func ValidateDuty(duty float64) error {
	if math.IsNaN(duty) || duty < 0 || duty > 100 {
		return fmt.Errorf("%w, got %v", ErrInvalidDuty, duty)
	}
	return nil
}

// Settings is the mutex-guarded configuration shared by the presentation
// layer and both workers. Readers always take a Snapshot.
type Settings struct {
	mu  sync.Mutex
	cfg Config
}

func NewSettings(cfg Config) *Settings {
	return &Settings{cfg: cfg}
}

func (s *Settings) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Update applies fn to the settings atomically with respect to readers.
func (s *Settings) Update(fn func(cfg *Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
}

func (s *Settings) Replace(cfg Config) {
	s.Update(func(c *Config) { *c = cfg })
}

func (s *Settings) SetRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("rate must be finite")
	}
	s.Update(func(c *Config) { c.Rate = rate })
	return nil
}

func (s *Settings) SetDuty(duty float64) error {
	if math.IsNaN(duty) || math.IsInf(duty, 0) {
		return fmt.Errorf("duty must be finite")
	}
	s.Update(func(c *Config) { c.Duty = duty })
	return nil
}

func (s *Settings) SetButton(name string) {
	s.Update(func(c *Config) { c.Button = name })
}

func (s *Settings) SetShortcut(keysym string) {
	s.Update(func(c *Config) { c.Shortcut = keysym })
}

func (s *Settings) Shortcut() string {
	return s.Snapshot().Shortcut
}
