//go:build linux

package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"x11clicker/internal/adapters/x11input"
	"x11clicker/internal/core/autoclicker"
)

func openDisplays() autoclicker.Displays {
	return x11input.Displays()
}

func captureShortcut(timeout time.Duration) (string, error) {
	return x11input.CaptureNextKeysym(timeout)
}

func permissionDeniedHint() string {
	return "Permission denied opening the X display. Ensure an active X11 session, DISPLAY is set and the X server allows this user (xhost/XAUTHORITY)."
}

// warnSession flags sessions where X11 grabs and XTEST only reach XWayland
// clients, or where no display is reachable at all.
func warnSession(logger *slog.Logger) {
	if strings.TrimSpace(os.Getenv("DISPLAY")) == "" {
		logger.Warn("DISPLAY is not set; the clicker needs an X11 session")
		return
	}
	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	if sessionType == "wayland" || strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		logger.Warn("Wayland session detected; hotkey and clicks only reach XWayland windows")
	}
}
