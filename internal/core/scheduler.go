package core

// scheduler.go drives dataset loads in the background.
//
// The first load runs as soon as the scheduler starts. When an interval is
// configured the sheet is reloaded on every tick; a failed tick is logged and
// the next tick simply tries again. With no interval the scheduler returns
// after the first load, which matches a one-shot page load.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartRefreshScheduler loads the dataset immediately and then every
// interval until ctx is cancelled. A non-positive interval disables the
// periodic reload.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	if s.source == nil {
		slog.Warn("refresh scheduler not started: no data source configured")
		return
	}

	s.runLoad(ctx)

	if interval <= 0 {
		return
	}

	slog.Info("refresh scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runLoad(ctx)
		}
	}
}

// runLoad performs one load. Errors are already recorded in the status.
func (s *Service) runLoad(ctx context.Context) {
	slog.Debug("refresh job started")
	if err := s.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("refresh job failed", "error", err)
	}
}
