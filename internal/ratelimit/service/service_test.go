package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"leadgate/internal/ratelimit/config"
	"leadgate/internal/ratelimit/metrics"
	"leadgate/internal/ratelimit/models"
	"leadgate/internal/ratelimit/store/memory"
	dErrors "leadgate/pkg/domain-errors"
	concurrent "leadgate/pkg/testutil"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string, time.Time) (*models.Entry, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Increment(context.Context, string, time.Duration, time.Time) (models.Entry, error) {
	return models.Entry{}, errors.New("connection refused")
}

func (failingStore) Reset(context.Context, string) error {
	return errors.New("connection refused")
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	store   *memory.Store
	metrics *metrics.Metrics
	svc     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.store = memory.New()
	s.metrics = metrics.New(prometheus.NewRegistry())

	cfg := config.DefaultConfig().WithOverrides(map[string]config.Limit{
		string(models.EndpointSendDevis): {RequestsPerWindow: 3, Window: time.Minute},
	})
	svc, err := New(s.store,
		WithConfig(cfg),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCheck() {
	s.Run("allows up to the limit then denies", func() {
		for i := 1; i <= 3; i++ {
			res, err := s.svc.Check(s.ctx, "203.0.113.7", models.EndpointSendDevis)
			s.Require().NoError(err)
			s.True(res.Allowed, "request %d", i)
			s.Equal(3-i, res.Remaining)
			s.Equal(3, res.Limit)
		}

		res, err := s.svc.Check(s.ctx, "203.0.113.7", models.EndpointSendDevis)
		s.Require().NoError(err)
		s.False(res.Allowed)
		s.Equal(0, res.Remaining)
		s.Equal(60, res.RetryAfter)
		s.Equal(s.now.Add(time.Minute), res.ResetAt)
	})

	s.Run("window elapsed resets the counter", func() {
		s.now = s.now.Add(time.Minute)

		res, err := s.svc.Check(s.ctx, "203.0.113.7", models.EndpointSendDevis)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2, res.Remaining)
		s.Zero(res.RetryAfter)
	})

	s.Run("identities and endpoints are counted separately", func() {
		res, err := s.svc.Check(s.ctx, "198.51.100.1", models.EndpointSendDevis)
		s.Require().NoError(err)
		s.Equal(2, res.Remaining)

		res, err = s.svc.Check(s.ctx, "203.0.113.7", models.EndpointBlogs)
		s.Require().NoError(err)
		s.Equal(59, res.Remaining)
	})

	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ChecksTotal.WithLabelValues("send-devis", "denied")))
}

func (s *ServiceSuite) TestConcurrentChecksHonourLimit() {
	res := concurrent.Burst(s.ctx, 20, func(ctx context.Context, _ int) error {
		out, err := s.svc.Check(ctx, "192.0.2.44", models.EndpointSendDevis)
		if err != nil {
			return err
		}
		if !out.Allowed {
			return dErrors.New(dErrors.CodeRateLimited, "")
		}
		return nil
	})

	s.Equal(int32(3), res.Allowed)
	s.Equal(int32(17), res.Limited)
	s.Zero(res.Failed, "first error: %v", res.FirstErr)
}

func (s *ServiceSuite) TestPeekDoesNotCount() {
	res, err := s.svc.Peek(s.ctx, "203.0.113.9", models.EndpointSendDevis)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(3, res.Remaining)

	_, err = s.svc.Check(s.ctx, "203.0.113.9", models.EndpointSendDevis)
	s.Require().NoError(err)

	res, err = s.svc.Peek(s.ctx, "203.0.113.9", models.EndpointSendDevis)
	s.Require().NoError(err)
	s.Equal(2, res.Remaining)
}

func (s *ServiceSuite) TestReset() {
	for range 4 {
		_, err := s.svc.Check(s.ctx, "203.0.113.10", models.EndpointSendDevis)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.svc.Reset(s.ctx, "203.0.113.10", models.EndpointSendDevis))

	res, err := s.svc.Check(s.ctx, "203.0.113.10", models.EndpointSendDevis)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *ServiceSuite) TestStoreErrorIsReturned() {
	svc, err := New(failingStore{}, WithMetrics(s.metrics))
	s.Require().NoError(err)

	res, err := svc.Check(s.ctx, "203.0.113.7", models.EndpointBlogs)
	s.Error(err)
	s.Nil(res)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.StoreErrorsTotal.WithLabelValues("blogs")))
}
