package core

// export_limiter.go bounds how many workbooks are built at once.
//
// Every export holds the full filtered table plus an in-memory workbook, so
// parallel exports are capped by a semaphore. A request that cannot get a
// slot within maxWait fails with ErrTooManyExports. WaitForDrain lets
// shutdown finish in-flight downloads first.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyExports is returned when every export slot stays busy for the
// whole wait.
var ErrTooManyExports = errors.New("too many concurrent exports")

const (
	// DefaultMaxConcurrentExports is the slot count when none is configured.
	DefaultMaxConcurrentExports = 4

	// DefaultExportWait is how long an export waits for a slot.
	DefaultExportWait = 10 * time.Second
)

// ExportLimiter is a counting semaphore for workbook builds.
type ExportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewExportLimiter allows at most maxConcurrent exports. Non-positive
// arguments select the defaults.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultExportWait
	}
	return &ExportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. The caller must Release a
// slot it acquired.
func (l *ExportLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyExports
	}
}

// Release returns a slot.
func (l *ExportLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active is the number of exports in progress.
func (l *ExportLimiter) Active() int {
	return int(l.active.Load())
}

// MaxConcurrent is the slot count.
func (l *ExportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no export is in progress or ctx ends.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
