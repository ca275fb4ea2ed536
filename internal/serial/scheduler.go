package serial

import (
	"context"
	"log/slog"
	"time"
)

// Resetter zeroes a counter.
type Resetter interface {
	Reset(ctx context.Context, tag string) error
}

// ResetScheduler zeroes a fixed set of counters at every local midnight so
// serials restart with the calendar day used in identifiers.
type ResetScheduler struct {
	resetter Resetter
	tags     []string
	logger   *slog.Logger
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

// SchedulerOption configures a ResetScheduler.
type SchedulerOption func(*ResetScheduler)

// WithClock overrides time.Now and time.After.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) SchedulerOption {
	return func(s *ResetScheduler) {
		if now != nil {
			s.now = now
		}
		if after != nil {
			s.after = after
		}
	}
}

// NewResetScheduler builds a scheduler for tags.
func NewResetScheduler(resetter Resetter, tags []string, logger *slog.Logger, opts ...SchedulerOption) *ResetScheduler {
	s := &ResetScheduler{
		resetter: resetter,
		tags:     tags,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled, resetting all tags at each midnight.
// A failed reset is logged and retried at the next midnight.
func (s *ResetScheduler) Run(ctx context.Context) error {
	for {
		wait := untilNextMidnight(s.now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(wait):
			s.ResetAll(ctx)
		}
	}
}

// ResetAll zeroes every configured tag once.
func (s *ResetScheduler) ResetAll(ctx context.Context) {
	for _, tag := range s.tags {
		if err := s.resetter.Reset(ctx, tag); err != nil {
			s.logger.ErrorContext(ctx, "failed to reset serial", "tag", tag, "error", err)
			continue
		}
		s.logger.InfoContext(ctx, "serial reset", "tag", tag)
	}
}

func untilNextMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
