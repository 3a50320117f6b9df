package cleanup

import (
	"context"
	"log/slog"
	"time"

	"leadgate/internal/ratelimit/metrics"
)

// Result describes one sweep.
type Result struct {
	Removed  int
	Duration time.Duration
}

// Sweeper drops expired window entries. Only the in-memory store needs it;
// Redis expires keys itself.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	store    Sweeper
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(store Sweeper, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		interval: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start sweeps on every tick until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("rate_limit_cleanup_failed", "error", err)
				continue
			}
			if res.Removed > 0 {
				s.logger.Debug("rate_limit_cleanup_completed",
					"removed", res.Removed,
					"duration_ms", res.Duration.Milliseconds(),
				)
			}
		case <-ctx.Done():
			s.logger.Info("rate limit cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep and records metrics.
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	start := time.Now()
	removed, err := s.store.Sweep(ctx, s.now())
	duration := time.Since(start)
	s.metrics.ObserveCleanupDuration(duration)
	if err != nil {
		s.metrics.IncrementCleanupRuns("error")
		return nil, err
	}
	s.metrics.IncrementCleanupRuns("success")
	s.metrics.AddCleanupRemoved(removed)
	return &Result{Removed: removed, Duration: duration}, nil
}
