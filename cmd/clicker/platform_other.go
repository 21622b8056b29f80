//go:build !linux

package main

import (
	"fmt"
	"log/slog"
	"time"

	"x11clicker/internal/adapters/x11input"
	"x11clicker/internal/core/autoclicker"
)

func openDisplays() autoclicker.Displays {
	return x11input.Displays()
}

func captureShortcut(_ time.Duration) (string, error) {
	return "", fmt.Errorf("unsupported platform")
}

func permissionDeniedHint() string {
	return "Permission denied opening the X display."
}

func warnSession(logger *slog.Logger) {
	logger.Warn("The clicker only supports X11 on Linux")
}
