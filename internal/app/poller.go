package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/hubdash/internal/maker"
	"github.com/five82/hubdash/internal/state"
)

// PollRecorder receives the outcome of each refresh cycle.
type PollRecorder interface {
	RecordPoll(deviceCount int, err error)
}

// Poller refreshes the store from the Maker API at a fixed cadence. A failed
// cycle is recorded and the next one runs on schedule; there is no backoff.
type Poller struct {
	API            maker.API
	Store          *state.Store
	Interval       time.Duration
	WellnessPrefix string
	Logger         *slog.Logger
	Recorder       PollRecorder
}

// Start launches a background goroutine that refreshes the store once right
// away and then on every interval until ctx is cancelled. It returns
// immediately; the UI shows its waiting state until the first refresh lands.
func (p *Poller) Start(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = maker.DefaultRefreshInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if ctx.Err() == nil {
			_ = p.Refresh(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = p.Refresh(ctx)
			}
		}
	}()
}

// Refresh fetches devices and hub variables concurrently and updates the
// store. It returns the device fetch error, if any.
func (p *Poller) Refresh(ctx context.Context) error {
	var (
		devices  []maker.Device
		wellness maker.WellnessResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := p.API.AllDevices(gctx)
		if err != nil {
			return fmt.Errorf("devices: %w", err)
		}
		devices = d
		return nil
	})
	g.Go(func() error {
		wellness = p.API.WellnessData(gctx, p.WellnessPrefix)
		return nil
	})

	err := g.Wait()
	if p.Recorder != nil {
		p.Recorder.RecordPoll(len(devices), err)
	}
	if err != nil {
		p.Store.Update(nil, err)
		p.logger().Warn("poll failed", "error", err)
		return err
	}

	poll := &state.Poll{Devices: devices, Variables: wellness.Data, Hub: wellness.Info}
	if !wellness.Success {
		poll.VariablesErr = fmt.Errorf("hub variables: %s", wellness.Error)
		p.logger().Debug("hub variables unavailable", "error", wellness.Error)
	}
	p.Store.Update(poll, nil)
	return nil
}

func (p *Poller) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}
