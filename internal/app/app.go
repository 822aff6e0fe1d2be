package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/hubdash/internal/config"
	"github.com/five82/hubdash/internal/maker"
	"github.com/five82/hubdash/internal/metrics"
	"github.com/five82/hubdash/internal/prefs"
	"github.com/five82/hubdash/internal/state"
	"github.com/five82/hubdash/internal/ui"
)

// ErrCheckFailed is returned by Run in check mode when the hub is unreachable
// or the URL is not usable.
var ErrCheckFailed = errors.New("connection test failed")

// Options configure the hubdash application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/hubdash/prefs.toml
	PollEvery  int    // seconds; zero uses the configured refresh interval
	Check      bool   // run one connection test and exit
	Debug      bool   // log request traces
	Stdout     io.Writer
}

// Run boots hubdash until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load hubdash config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg.LogFile, opts.Debug)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	conn := cfg.Connection()
	m := metrics.New()
	client := maker.NewClient(conn, maker.WithLogger(logger), maker.WithObserver(m))

	if opts.Check {
		return check(ctx, client, opts.Stdout)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics endpoint stopped", "error", err)
			}
		}()
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	store := &state.Store{}

	interval := conn.RefreshInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	if interval <= 0 {
		interval = maker.DefaultRefreshInterval
	}

	if client.Configured() {
		poller := &Poller{
			API:            client,
			Store:          store,
			Interval:       interval,
			WellnessPrefix: cfg.WellnessPrefix,
			Logger:         logger,
			Recorder:       m,
		}
		poller.Start(ctx)
	}

	return ui.Run(ctx, ui.Options{
		Store:          store,
		Client:         client,
		Connection:     conn,
		LogPath:        cfg.LogFile,
		PollTick:       interval,
		ThemeName:      userPrefs.Theme,
		SortBy:         userPrefs.SortBy,
		PrefsPath:      opts.PrefsPath,
		WellnessPrefix: cfg.WellnessPrefix,
		Logger:         logger,
	})
}

func check(ctx context.Context, client *maker.Client, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	res := client.TestConnection(ctx)
	if !res.Success {
		return fmt.Errorf("%w: %s", ErrCheckFailed, res.Message)
	}
	fmt.Fprintln(out, res.Message)
	return nil
}

// openLogger writes slog text records to path. The TUI owns the terminal, so
// nothing is logged to stderr.
func openLogger(path string, debug bool) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = file.Close() }, nil
}
