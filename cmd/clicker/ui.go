package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"x11clicker/internal/core/autoclicker"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	uiRefreshInterval = 50 * time.Millisecond
	captureTimeout    = 10 * time.Second
	maxUILogLines     = 50
)

var buttonChoices = []string{"left", "middle", "right", "4", "5", "6", "7", "8", "9"}

type clickerTheme struct {
	base fyne.Theme
}

func newClickerTheme() fyne.Theme {
	return &clickerTheme{base: theme.DarkTheme()}
}

func (t *clickerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x11, G: 0x13, B: 0x17, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x1f, G: 0x24, B: 0x2b, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x17, G: 0x1b, B: 0x21, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x2e, G: 0x35, B: 0x3f, A: 0xff}
	case theme.ColorNamePrimary, theme.ColorNameHyperlink:
		return color.NRGBA{R: 0x5a, G: 0xb4, B: 0xff, A: 0xff}
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0x5a, G: 0xb4, B: 0xff, A: 0x66}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x6b, B: 0x6b, A: 0xff}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x7f, G: 0xd4, B: 0xa8, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *clickerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *clickerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *clickerTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding || name == theme.SizeNameInnerPadding {
		return 6
	}
	return t.base.Size(name)
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func canonicalButton(name string) string {
	b, err := autoclicker.ParseButton(name)
	if err != nil {
		return autoclicker.ButtonPrimary.String()
	}
	return b.String()
}

// parseRateInput reads the CPS entry. Anything ValidateRate rejects,
// including NaN and Inf, is reported without touching the settings.
func parseRateInput(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("CPS must be a number greater than 0")
	}
	if err := autoclicker.ValidateRate(v); err != nil {
		return 0, fmt.Errorf("CPS: %w", err)
	}
	return v, nil
}

func parseDutyInput(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("Duty must be a number within 0..100")
	}
	if err := autoclicker.ValidateDuty(v); err != nil {
		return 0, fmt.Errorf("Duty: %w", err)
	}
	return v, nil
}

// buttonChanged reports whether choosing choice in the select differs from
// the stored button once both are in canonical form.
func buttonChanged(stored, choice string) bool {
	return canonicalButton(stored) != canonicalButton(choice)
}

func timingText(cfg autoclicker.Config) string {
	t := autoclicker.ComputeTiming(cfg.Rate, cfg.Duty)
	return fmt.Sprintf("Period: %.6f ms   |   Press (on): %.6f ms   |   Release (off): %.6f ms",
		durationMS(t.Period), durationMS(t.On), durationMS(t.Off))
}

// healthText describes failed workers, e.g. a hotkey watcher that could
// not reach the display, so the operator knows toggling is unavailable.
func healthText(failures map[string]error) string {
	if len(failures) == 0 {
		return ""
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		switch name {
		case autoclicker.WorkerHotkey:
			parts = append(parts, "Hotkey disabled: "+failures[name].Error())
		case autoclicker.WorkerClicker:
			parts = append(parts, "Clicking disabled: "+failures[name].Error())
		default:
			parts = append(parts, failures[name].Error())
		}
	}
	return strings.Join(parts, "\n")
}

func runUI(opts options) error {
	fApp := app.New()
	fApp.Settings().SetTheme(newClickerTheme())

	window := fApp.NewWindow("X11 Autoclicker")
	window.Resize(fyne.NewSize(620, 360))
	window.CenterOnScreen()

	logGrid := widget.NewTextGrid()
	logScroll := container.NewVScroll(logGrid)
	logScroll.SetMinSize(fyne.NewSize(0, 120))

	var logMu sync.Mutex
	logLines := make([]string, 0, maxUILogLines)
	debugLogs := debugLogsEnabled()
	appendLogLine := func(line string) {
		if !debugLogs {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}

		logMu.Lock()
		logLines = append(logLines, line)
		if len(logLines) > maxUILogLines {
			logLines = logLines[len(logLines)-maxUILogLines:]
		}
		logText := strings.Join(logLines, "\n")
		logMu.Unlock()

		fyne.Do(func() {
			logGrid.SetText(logText)
			logScroll.ScrollToBottom()
		})
	}

	logger := newSlogLogger(opts.logLevel, false, appendLogLine)
	warnSession(logger)

	cfg := resolveConfig(opts, logger)
	service, err := newClickerService(cfg, opts.startEnabled, logger)
	if err != nil {
		return err
	}
	settings := service.Settings()

	errorText := canvas.NewText("", theme.Color(theme.ColorNameError))
	healthLabel := canvas.NewText("", theme.Color(theme.ColorNameError))
	setError := func(msg string) {
		errorText.Text = msg
		errorText.Refresh()
		if msg != "" {
			appendLogLine("ERROR " + msg)
		}
	}

	var saveMu sync.Mutex
	lastSaved := cfg
	persist := func() {
		if opts.noSave {
			return
		}
		current := settings.Snapshot()
		saveMu.Lock()
		defer saveMu.Unlock()
		if current == lastSaved {
			return
		}
		if err := saveSettings(opts.settingsPath, settingsFromConfig(current)); err != nil {
			setError(fmt.Sprintf("Failed to save settings: %v", err))
			return
		}
		lastSaved = current
	}

	timingLabel := widget.NewLabel(timingText(cfg))
	refreshTiming := func() {
		timingLabel.SetText(timingText(settings.Snapshot()))
	}

	cpsEntry := widget.NewEntry()
	cpsEntry.SetText(formatDecimal(cfg.Rate))
	cpsEntry.OnChanged = func(text string) {
		v, err := parseRateInput(text)
		if err != nil {
			setError(err.Error())
			return
		}
		if err := settings.SetRate(v); err != nil {
			setError(err.Error())
			return
		}
		setError("")
		refreshTiming()
		persist()
	}

	dutyEntry := widget.NewEntry()
	dutyEntry.SetText(formatDecimal(cfg.Duty))
	dutyEntry.OnChanged = func(text string) {
		v, err := parseDutyInput(text)
		if err != nil {
			setError(err.Error())
			return
		}
		if err := settings.SetDuty(v); err != nil {
			setError(err.Error())
			return
		}
		setError("")
		refreshTiming()
		persist()
	}

	buttonSelect := widget.NewSelect(buttonChoices, nil)
	buttonSelect.SetSelected(canonicalButton(cfg.Button))
	buttonSelect.OnChanged = func(choice string) {
		if !buttonChanged(settings.Snapshot().Button, choice) {
			return
		}
		settings.SetButton(choice)
		persist()
	}

	hotkeyEntry := widget.NewEntry()
	hotkeyEntry.SetPlaceHolder("X11 keysym, e.g. F6")
	hotkeyEntry.SetText(cfg.Shortcut)
	hotkeyEntry.OnChanged = func(text string) {
		keysym := strings.TrimSpace(text)
		if keysym == "" {
			setError("Hotkey must not be empty")
			return
		}
		setError("")
		settings.SetShortcut(keysym)
		persist()
	}

	var captureBtn *widget.Button
	captureBtn = widget.NewButton("Capture", func() {
		captureBtn.Disable()
		captureBtn.SetText("Press a key...")
		appendLogLine("INFO Waiting for hotkey input")
		go func() {
			keysym, err := captureShortcut(captureTimeout)
			fyne.Do(func() {
				captureBtn.SetText("Capture")
				captureBtn.Enable()
				if err != nil {
					setError(err.Error())
					return
				}
				hotkeyEntry.SetText(keysym)
				appendLogLine("INFO Captured hotkey " + keysym)
			})
		}()
	})

	statusLabel := widget.NewLabel("Status: idle")
	statusLabel.TextStyle = fyne.TextStyle{Bold: true}
	startStopBtn := widget.NewButton("▶ Start (or press hotkey)", func() {
		service.Toggle()
	})
	startStopBtn.Importance = widget.HighImportance

	setRunningUI := func(running bool) {
		if running {
			startStopBtn.SetText("⏹ Stop")
			statusLabel.SetText("Status: RUNNING")
			return
		}
		startStopBtn.SetText("▶ Start (or press hotkey)")
		statusLabel.SetText("Status: idle")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onReload := func(next autoclicker.Config) {
		fyne.Do(func() {
			if v, err := strconv.ParseFloat(strings.TrimSpace(cpsEntry.Text), 64); err != nil || v != next.Rate {
				cpsEntry.SetText(formatDecimal(next.Rate))
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(dutyEntry.Text), 64); err != nil || v != next.Duty {
				dutyEntry.SetText(formatDecimal(next.Duty))
			}
			if button := canonicalButton(next.Button); buttonSelect.Selected != button {
				buttonSelect.SetSelected(button)
			}
			if strings.TrimSpace(hotkeyEntry.Text) != next.Shortcut {
				hotkeyEntry.SetText(next.Shortcut)
			}
			refreshTiming()
		})
	}
	if err := watchSettings(ctx, opts.settingsPath, settings, logger, onReload); err != nil {
		logger.Warn("Settings live reload disabled", "err", err)
	}

	service.Start()
	logStartup(logger, cfg, opts.startEnabled)

	go func() {
		ticker := time.NewTicker(uiRefreshInterval)
		defer ticker.Stop()

		lastRunning := !service.IsEnabled()
		lastHealth := ""
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				running := service.IsEnabled()
				health := healthText(service.Health().Failures())
				if running == lastRunning && health == lastHealth {
					continue
				}
				lastRunning, lastHealth = running, health
				fyne.Do(func() {
					setRunningUI(running)
					healthLabel.Text = health
					healthLabel.Refresh()
				})
			}
		}
	}()

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			cancel()
			service.Stop()
			if !service.Wait(shutdownGrace) {
				logger.Warn("Workers did not exit within grace period", "grace", shutdownGrace)
			}
		})
	}

	quit := func() {
		persist()
		cleanup()
		if currentApp := fyne.CurrentApp(); currentApp != nil {
			currentApp.Quit()
			return
		}
		window.SetCloseIntercept(nil)
		window.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fyne.Do(quit)
		case <-ctx.Done():
		}
	}()

	window.SetCloseIntercept(quit)

	form := widget.NewForm(
		widget.NewFormItem("Clicks per second", cpsEntry),
		widget.NewFormItem("Duty cycle (%)", dutyEntry),
		widget.NewFormItem("Mouse button", buttonSelect),
		widget.NewFormItem("Toggle hotkey", container.NewBorder(nil, nil, nil, captureBtn, hotkeyEntry)),
	)

	mainContent := container.NewVBox(
		widget.NewCard("Settings", "", form),
		timingLabel,
		widget.NewSeparator(),
		container.NewHBox(startStopBtn, statusLabel),
		errorText,
		healthLabel,
		widget.NewLabel("Tip: X11 only. Hover over the target window and press the hotkey to toggle."),
	)
	mainPanel := container.NewPadded(mainContent)

	var rootContent fyne.CanvasObject = mainPanel
	if debugLogs {
		split := container.NewVSplit(mainPanel, widget.NewCard("Logs", "", logScroll))
		split.SetOffset(0.72)
		rootContent = split
	}

	setRunningUI(service.IsEnabled())
	window.SetContent(rootContent)
	window.ShowAndRun()
	cleanup()
	return nil
}
