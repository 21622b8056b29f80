package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"x11clicker/internal/core/autoclicker"
	"x11clicker/internal/core/pacing"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/term"
)

const shutdownGrace = 500 * time.Millisecond

type options struct {
	cps          float64
	duty         float64
	button       string
	hotkey       string
	settingsPath string
	startEnabled bool
	noSave       bool
	logLevel     slog.Level

	// set records which flags were given explicitly, on the command line or
	// through CLICKER_* environment variables.
	set map[string]bool
}

type lineSinkWriter struct {
	sink  func(line string)
	mu    sync.Mutex
	lines bytes.Buffer
}

func (w *lineSinkWriter) Write(p []byte) (int, error) {
	if w.sink == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			_, _ = w.lines.Write(p)
			break
		}
		_, _ = w.lines.Write(p[:idx])
		line := strings.TrimSpace(w.lines.String())
		w.lines.Reset()
		if line != "" {
			w.sink(line)
		}
		p = p[idx+1:]
	}
	return total, nil
}

// newSlogLogger writes to stderr when verbose is set or DEBUG=1, and tees
// every line into sink when one is given. Without a sink and with stderr
// redirected away from a terminal, records are written as JSON.
func newSlogLogger(level slog.Level, verbose bool, sink func(line string)) *slog.Logger {
	if !verbose && !debugLogsEnabled() && sink == nil {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: level,
		}))
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if sink == nil && !term.IsTerminal(int(os.Stderr.Fd())) {
		// Structured records for journald and other log collectors.
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts))
	}

	var out io.Writer = io.Discard
	if verbose || debugLogsEnabled() {
		out = os.Stderr
	}
	if sink != nil {
		out = io.MultiWriter(out, &lineSinkWriter{sink: sink})
	}

	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

type engineFlags struct {
	fs          *flag.FlagSet
	opts        *options
	logLevelRaw string
}

func newEngineFlags(name string, stderr io.Writer) *engineFlags {
	ef := &engineFlags{
		fs:   flag.NewFlagSet(name, flag.ContinueOnError),
		opts: &options{},
	}
	ef.fs.SetOutput(stderr)

	defaults := autoclicker.DefaultConfig()
	ef.fs.Float64Var(&ef.opts.cps, "cps", defaults.Rate, "Clicks per second (decimal, > 0).")
	ef.fs.Float64Var(&ef.opts.duty, "duty", defaults.Duty, "Percent of each click period the button is held (0..100).")
	ef.fs.StringVar(&ef.opts.button, "button", defaults.Button, "Button to click: left|middle|right|1..9.")
	ef.fs.StringVar(&ef.opts.hotkey, "hotkey", defaults.Shortcut, "Toggle hotkey as an X11 keysym name, e.g. F6, F8, q.")
	ef.fs.StringVar(&ef.opts.settingsPath, "settings", "", "Settings file (default: $XDG_CONFIG_HOME/clicker/settings.yaml).")
	ef.fs.BoolVar(&ef.opts.startEnabled, "start", false, "Start clicking immediately instead of waiting for the hotkey.")
	ef.fs.BoolVar(&ef.opts.noSave, "no-save", false, "Do not write settings changes back to the settings file.")
	ef.fs.StringVar(&ef.logLevelRaw, "log-level", "info", "Log verbosity. Allowed: debug, info, warning, error.")
	return ef
}

// finish validates parsed flags and records which ones were set explicitly.
func (ef *engineFlags) finish(args []string) (options, error) {
	if len(args) > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	opts := *ef.opts

	level, err := parseLogLevel(ef.logLevelRaw)
	if err != nil {
		return opts, err
	}
	opts.logLevel = level

	opts.set = make(map[string]bool)
	ef.fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.set["cps"] {
		if err := autoclicker.ValidateRate(opts.cps); err != nil {
			return opts, fmt.Errorf("--cps: %w", err)
		}
	}
	if opts.set["duty"] {
		if err := autoclicker.ValidateDuty(opts.duty); err != nil {
			return opts, fmt.Errorf("--duty: %w", err)
		}
	}
	if opts.set["button"] {
		if _, err := autoclicker.ParseButton(opts.button); err != nil {
			return opts, err
		}
	}
	if opts.settingsPath == "" {
		path, err := defaultSettingsPath()
		if err != nil {
			return opts, err
		}
		opts.settingsPath = path
	}
	return opts, nil
}

// resolveConfig layers explicit flags over the settings file over defaults.
func resolveConfig(opts options, logger *slog.Logger) autoclicker.Config {
	cfg := autoclicker.DefaultConfig()

	stored, err := loadSettings(opts.settingsPath)
	switch {
	case err != nil:
		logger.Warn("Ignoring unreadable settings file", "path", opts.settingsPath, "err", err)
	case stored != nil:
		cfg = stored.apply(cfg, logger)
	}

	if opts.set["cps"] {
		cfg.Rate = opts.cps
	}
	if opts.set["duty"] {
		cfg.Duty = opts.duty
	}
	if opts.set["button"] {
		cfg.Button = opts.button
	}
	if opts.set["hotkey"] {
		cfg.Shortcut = opts.hotkey
	}
	return cfg
}

func newClickerService(cfg autoclicker.Config, startEnabled bool, logger *slog.Logger) (*autoclicker.Service, error) {
	return autoclicker.NewService(
		autoclicker.ServiceConfig{
			Settings:     cfg,
			StartEnabled: startEnabled,
			Sleeper:      pacing.New(),
		},
		openDisplays(),
		logger,
	)
}

func logStartup(logger *slog.Logger, cfg autoclicker.Config, startEnabled bool) {
	timing := autoclicker.ComputeTiming(cfg.Rate, cfg.Duty)
	logger.Info("Backend", "name", "x11")
	logger.Info("Hotkey", "keysym", cfg.Shortcut)
	logger.Info("Rate", "cps", cfg.Rate, "duty", cfg.Duty, "button", cfg.Button)
	logger.Info("Timing", "period", timing.Period, "on", timing.On, "off", timing.Off)
	if startEnabled {
		logger.Info("Initial state enabled (press hotkey to stop/start)")
	} else {
		logger.Info("Initial state disabled (press hotkey to start/stop)")
	}
}

func runHeadless(ctx context.Context, opts options) error {
	logger := newSlogLogger(opts.logLevel, true, nil)
	warnSession(logger)

	cfg := resolveConfig(opts, logger)
	service, err := newClickerService(cfg, opts.startEnabled, logger)
	if err != nil {
		return err
	}
	service.Start()
	logStartup(logger, cfg, opts.startEnabled)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := watchSettings(ctx, opts.settingsPath, service.Settings(), logger, nil); err != nil {
		logger.Warn("Settings live reload disabled", "err", err)
	}

	select {
	case <-ctx.Done():
	case <-service.Done():
		return service.Err()
	}
	service.Stop()
	if !service.Wait(shutdownGrace) {
		logger.Warn("Workers did not exit within grace period", "grace", shutdownGrace)
	}
	return nil
}

func runTiming(stdout io.Writer, cps, duty float64) {
	fmt.Fprintln(stdout, timingText(autoclicker.Config{Rate: cps, Duty: duty}))
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func buildCLI(stdout, stderr io.Writer) *ffcli.Command {
	envOpts := []ff.Option{ff.WithEnvVarPrefix("CLICKER")}

	uiFlags := newEngineFlags("clicker", stderr)
	runFlags := newEngineFlags("clicker run", stderr)

	timingFlags := flag.NewFlagSet("clicker timing", flag.ContinueOnError)
	timingFlags.SetOutput(stderr)
	defaults := autoclicker.DefaultConfig()
	timingCPS := timingFlags.Float64("cps", defaults.Rate, "Clicks per second.")
	timingDuty := timingFlags.Float64("duty", defaults.Duty, "Duty cycle in percent.")

	runCmd := &ffcli.Command{
		Name:       "run",
		ShortUsage: "clicker run [flags]",
		ShortHelp:  "Run the autoclicker without a window",
		FlagSet:    runFlags.fs,
		Options:    envOpts,
		Exec: func(ctx context.Context, args []string) error {
			opts, err := runFlags.finish(args)
			if err != nil {
				return usageError{err}
			}
			return runHeadless(ctx, opts)
		},
	}

	timingCmd := &ffcli.Command{
		Name:       "timing",
		ShortUsage: "clicker timing [--cps N] [--duty P]",
		ShortHelp:  "Print the press/release timing for a rate and duty cycle",
		FlagSet:    timingFlags,
		Options:    envOpts,
		Exec: func(_ context.Context, _ []string) error {
			runTiming(stdout, *timingCPS, *timingDuty)
			return nil
		},
	}

	return &ffcli.Command{
		ShortUsage:  "clicker [flags] [<subcommand>]",
		ShortHelp:   "X11 autoclicker with adjustable rate and duty cycle",
		LongHelp:    "Without a subcommand, opens the settings window. Every flag can also be set\nthrough a CLICKER_<FLAG> environment variable, e.g. CLICKER_CPS=12.",
		FlagSet:     uiFlags.fs,
		Options:     envOpts,
		Subcommands: []*ffcli.Command{runCmd, timingCmd},
		Exec: func(ctx context.Context, args []string) error {
			opts, err := uiFlags.finish(args)
			if err != nil {
				return usageError{err}
			}
			return runUI(opts)
		},
	}
}

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := buildCLI(stdout, stderr)
	if err := root.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := root.Run(context.Background()); err != nil {
		var uerr usageError
		switch {
		case errors.As(err, &uerr):
			fmt.Fprintln(stderr, err)
			return 2
		case isPermissionError(err):
			fmt.Fprintln(stderr, permissionDeniedHint())
		default:
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
