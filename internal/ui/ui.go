package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hubdash/internal/maker"
	"github.com/five82/hubdash/internal/state"
)

// Options configure the UI runtime.
type Options struct {
	Store          *state.Store
	Client         *maker.Client
	Connection     maker.Connection
	LogPath        string
	PollTick       time.Duration
	ThemeName      string
	SortBy         string
	PrefsPath      string
	WellnessPrefix string
	Logger         *slog.Logger
}

const (
	defaultUIInterval = time.Second
	logLineLimit      = 500
)

// Run starts the bubbletea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}

	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
