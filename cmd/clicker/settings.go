package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"x11clicker/internal/core/autoclicker"

	"gopkg.in/yaml.v3"
)

type fileSettings struct {
	CPS    *float64 `yaml:"cps,omitempty"`
	Duty   *float64 `yaml:"duty,omitempty"`
	Button string   `yaml:"button,omitempty"`
	Hotkey string   `yaml:"hotkey,omitempty"`
}

func settingsFromConfig(cfg autoclicker.Config) fileSettings {
	rate, duty := cfg.Rate, cfg.Duty
	return fileSettings{
		CPS:    &rate,
		Duty:   &duty,
		Button: cfg.Button,
		Hotkey: cfg.Shortcut,
	}
}

// apply overlays the stored values on cfg, skipping any value that would not
// pass validation.
func (s fileSettings) apply(cfg autoclicker.Config, logger *slog.Logger) autoclicker.Config {
	if s.CPS != nil {
		if err := autoclicker.ValidateRate(*s.CPS); err == nil {
			cfg.Rate = *s.CPS
		} else {
			logger.Warn("Saved cps is invalid; keeping previous value", "err", err)
		}
	}
	if s.Duty != nil {
		if err := autoclicker.ValidateDuty(*s.Duty); err == nil {
			cfg.Duty = *s.Duty
		} else {
			logger.Warn("Saved duty is invalid; keeping previous value", "err", err)
		}
	}
	if value := strings.TrimSpace(s.Button); value != "" {
		if _, err := autoclicker.ParseButton(value); err == nil {
			cfg.Button = value
		} else {
			logger.Warn("Saved button is invalid; using default", "button", value)
		}
	}
	if value := strings.TrimSpace(s.Hotkey); value != "" {
		cfg.Shortcut = value
	}
	return cfg
}

func defaultSettingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".clicker-settings.yaml"), nil
	}
	return filepath.Join(configDir, "clicker", "settings.yaml"), nil
}

// loadSettings returns nil, nil when the file does not exist.
func loadSettings(path string) (*fileSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg fileSettings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return &cfg, nil
}

func saveSettings(path string, cfg fileSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	return nil
}
