// Package service applies per-endpoint fixed-window limits to client identities.
//
// Fixed windows allow a burst of up to twice the limit around a window
// boundary. That is a known property of the algorithm, not a bug.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leadgate/internal/ratelimit/config"
	"leadgate/internal/ratelimit/metrics"
	"leadgate/internal/ratelimit/models"
	"leadgate/internal/platform/privacy"
)

// Store is the counter backend. Implementations: store/memory (single
// instance) and store/redis (shared).
type Store interface {
	Get(ctx context.Context, key string, now time.Time) (*models.Entry, error)
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (models.Entry, error)
	Reset(ctx context.Context, key string) error
}

type Service struct {
	store   Store
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}
	s := &Service{
		store:  store,
		config: config.DefaultConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check counts one request from identity against endpoint and returns the
// verdict. Store failures are returned to the caller, which decides whether
// to fail open.
func (s *Service) Check(ctx context.Context, identity string, endpoint models.Endpoint) (*models.RateLimitResult, error) {
	limit := s.config.LimitFor(endpoint)
	key := models.NewRateLimitKey(identity, endpoint)
	now := s.now()

	entry, err := s.store.Increment(ctx, key.String(), limit.Window, now)
	if err != nil {
		s.metrics.IncStoreError(endpoint)
		return nil, fmt.Errorf("check rate limit for %s: %w", endpoint, err)
	}

	res := models.NewResult(entry, limit.RequestsPerWindow, now)
	s.metrics.ObserveCheck(endpoint, res.Allowed)
	if !res.Allowed {
		s.logger.InfoContext(ctx, "rate limit exceeded",
			"endpoint", endpoint,
			"ip_prefix", privacy.AnonymizeIP(identity),
			"count", entry.Count,
			"limit", limit.RequestsPerWindow,
			"retry_after", res.RetryAfter,
		)
	}
	return res, nil
}

// Peek returns the current verdict without counting a request.
func (s *Service) Peek(ctx context.Context, identity string, endpoint models.Endpoint) (*models.RateLimitResult, error) {
	limit := s.config.LimitFor(endpoint)
	key := models.NewRateLimitKey(identity, endpoint)
	now := s.now()

	entry, err := s.store.Get(ctx, key.String(), now)
	if err != nil {
		return nil, fmt.Errorf("peek rate limit for %s: %w", endpoint, err)
	}
	if entry == nil {
		return &models.RateLimitResult{
			Allowed:   true,
			Limit:     limit.RequestsPerWindow,
			Remaining: limit.RequestsPerWindow,
			ResetAt:   now.Add(limit.Window),
		}, nil
	}
	return models.NewResult(*entry, limit.RequestsPerWindow, now), nil
}

// Reset clears the counter for identity on endpoint.
func (s *Service) Reset(ctx context.Context, identity string, endpoint models.Endpoint) error {
	key := models.NewRateLimitKey(identity, endpoint)
	if err := s.store.Reset(ctx, key.String()); err != nil {
		return fmt.Errorf("reset rate limit for %s: %w", endpoint, err)
	}
	return nil
}
