package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"leadgate/internal/ratelimit/config"
	"leadgate/internal/ratelimit/models"
	"leadgate/internal/ratelimit/service"
	"leadgate/internal/ratelimit/store/memory"
)

type brokenLimiter struct{}

func (brokenLimiter) Peek(context.Context, string, models.Endpoint) (*models.RateLimitResult, error) {
	return nil, errors.New("redis: connection refused")
}

func (brokenLimiter) Reset(context.Context, string, models.Endpoint) error {
	return errors.New("redis: connection refused")
}

type HandlerSuite struct {
	suite.Suite
	svc    *service.Service
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	cfg := config.DefaultConfig().WithOverrides(map[string]config.Limit{
		string(models.EndpointSendDevis): {RequestsPerWindow: 3, Window: time.Minute},
	})
	svc, err := service.New(memory.New(), service.WithConfig(cfg))
	s.Require().NoError(err)
	s.svc = svc
	s.router = s.mount(svc)
}

func (s *HandlerSuite) mount(l Limiter) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", New(l, slog.New(slog.DiscardHandler)).RegisterAdmin)
	return r
}

func (s *HandlerSuite) do(router chi.Router, method, target string) (*httptest.ResponseRecorder, counterResponse) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	var body counterResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func (s *HandlerSuite) exhaust(ip string) {
	for range 4 {
		_, err := s.svc.Check(context.Background(), ip, models.EndpointSendDevis)
		s.Require().NoError(err)
	}
}

func (s *HandlerSuite) TestPeekDoesNotCount() {
	s.exhaust("203.0.113.7")

	for range 2 {
		w, body := s.do(s.router, http.MethodGet, "/api/admin/rate-limits/send-devis?ip=203.0.113.7")

		s.Equal(http.StatusOK, w.Code)
		s.Require().NotNil(body.Counter)
		s.False(body.Counter.Allowed)
		s.Equal(3, body.Counter.Limit)
		s.Zero(body.Counter.Remaining)
	}
}

func (s *HandlerSuite) TestResetUnblocksVisitor() {
	s.exhaust("203.0.113.8")

	w, body := s.do(s.router, http.MethodDelete, "/api/admin/rate-limits/send-devis?ip=203.0.113.8")
	s.Equal(http.StatusOK, w.Code)
	s.True(body.Success)

	res, err := s.svc.Check(context.Background(), "203.0.113.8", models.EndpointSendDevis)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(2, res.Remaining)
}

func (s *HandlerSuite) TestResetLeavesOtherVisitors() {
	s.exhaust("203.0.113.9")
	s.do(s.router, http.MethodDelete, "/api/admin/rate-limits/send-devis?ip=198.51.100.1")

	_, body := s.do(s.router, http.MethodGet, "/api/admin/rate-limits/send-devis?ip=203.0.113.9")
	s.Require().NotNil(body.Counter)
	s.False(body.Counter.Allowed)
}

func (s *HandlerSuite) TestBadTargets() {
	w, _ := s.do(s.router, http.MethodGet, "/api/admin/rate-limits/unknown?ip=203.0.113.7")
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(s.router, http.MethodDelete, "/api/admin/rate-limits/blogs?ip=not-an-ip")
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(s.router, http.MethodGet, "/api/admin/rate-limits/blogs")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestStoreFailureIsOpaque() {
	router := s.mount(brokenLimiter{})

	w, _ := s.do(router, http.MethodGet, "/api/admin/rate-limits/blogs?ip=203.0.113.7")

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "redis")
}
