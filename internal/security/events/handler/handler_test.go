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

	"leadgate/internal/security/events/models"
	"leadgate/internal/security/events/store/memory"
)

type failingReader struct{}

func (failingReader) List(context.Context, models.Filter) ([]models.Event, error) {
	return nil, errors.New("connection refused")
}

type HandlerSuite struct {
	suite.Suite
	recent *memory.Recent
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.recent = memory.NewRecent(100)
	s.router = s.mount(s.recent)

	now := time.Now()
	s.Require().NoError(s.recent.Append(context.Background(), []models.Event{
		models.NewEvent(models.TypeRateLimitExceeded, now, map[string]any{"endpoint": "send-devis"}),
		models.NewEvent(models.TypeAttackPatternDetected, now, nil),
		models.NewEvent(models.TypeRateLimitExceeded, now, map[string]any{"endpoint": "blogs"}),
	}))
}

func (s *HandlerSuite) mount(reader Reader) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", New(reader, slog.New(slog.DiscardHandler)).RegisterAdmin)
	return r
}

func (s *HandlerSuite) get(router chi.Router, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (s *HandlerSuite) TestListAll() {
	w := s.get(s.router, "/api/admin/security-events")

	s.Equal(http.StatusOK, w.Code)
	var resp listResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal(3, resp.Count)
}

func (s *HandlerSuite) TestFilterByTypeAndLimit() {
	w := s.get(s.router, "/api/admin/security-events?type=RATE_LIMIT_EXCEEDED&limit=1")

	s.Equal(http.StatusOK, w.Code)
	var resp listResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Events, 1)
	s.Equal(models.TypeRateLimitExceeded, resp.Events[0].Type)
	s.Equal("blogs", resp.Events[0].Metadata["endpoint"])
}

func (s *HandlerSuite) TestRejectsBadParameters() {
	for _, target := range []string{
		"/api/admin/security-events?type=NOPE",
		"/api/admin/security-events?limit=abc",
		"/api/admin/security-events?limit=0",
	} {
		w := s.get(s.router, target)
		s.Equal(http.StatusBadRequest, w.Code, target)
	}
}

func (s *HandlerSuite) TestEmptyResultIsArray() {
	w := s.get(s.mount(memory.NewRecent(10)), "/api/admin/security-events")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"success":true,"count":0,"events":[]}`, w.Body.String())
}

func (s *HandlerSuite) TestReaderFailureIsGeneric() {
	w := s.get(s.mount(failingReader{}), "/api/admin/security-events")

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "connection refused")
}
