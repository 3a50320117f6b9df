package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"leadgate/internal/cms"
	"leadgate/internal/content/service"
	"leadgate/internal/security/events"
	eventmodels "leadgate/internal/security/events/models"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/platform/retry"
)

type captureEmitter struct {
	events []eventmodels.Event
}

func (c *captureEmitter) Emit(e eventmodels.Event) {
	c.events = append(c.events, e)
}

func (c *captureEmitter) types() []eventmodels.Type {
	var out []eventmodels.Type
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

type HandlerSuite struct {
	suite.Suite
	upstream    *httptest.Server
	detailCalls atomic.Int32
	detailFails int32
	emitted     *captureEmitter
	router      chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.detailCalls.Store(0)
	s.detailFails = 0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/blogs", func(w http.ResponseWriter, r *http.Request) {
		if slug := r.URL.Query().Get("filters[slug][$eq]"); slug != "" {
			n := s.detailCalls.Add(1)
			switch {
			case n <= s.detailFails:
				w.WriteHeader(http.StatusBadGateway)
			case slug == "mon-article-1":
				_, _ = w.Write([]byte(`{"data":[{"id":1,"slug":"mon-article-1","titre":"Bonus malus"}]}`))
			default:
				_, _ = w.Write([]byte(`{"data":[]}`))
			}
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":1}],"meta":{"pagination":{"page":1,"pageSize":10,"total":1}}}`))
	})
	mux.HandleFunc("GET /api/blog-categories", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"code":"auto","nom":"Auto"}]}`))
	})
	s.upstream = httptest.NewServer(mux)
	s.T().Cleanup(s.upstream.Close)

	client, err := cms.New(cms.Config{BaseURL: s.upstream.URL})
	s.Require().NoError(err)
	logger := slog.New(slog.DiscardHandler)
	svc := service.New(client,
		service.WithLogger(logger),
		service.WithDetailRetry(retry.Policy{MaxAttempts: 3, Backoff: retry.Linear(time.Millisecond)}),
	)

	s.emitted = &captureEmitter{}
	h := New(svc, logger, events.NewLogger(logger, events.WithEmitter(s.emitted)))
	s.router = chi.NewRouter()
	s.router.Route("/api", func(r chi.Router) { h.Register(r, nil) })
}

func (s *HandlerSuite) get(target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (s *HandlerSuite) TestList() {
	w := s.get("/api/blogs?page=1&pageSize=10&sort=titre:asc")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"data":[{"id":1}],"meta":{"pagination":{"page":1,"pageSize":10,"total":1}}}`, w.Body.String())
}

func (s *HandlerSuite) TestListRejectsBadParameters() {
	w := s.get("/api/blogs?pageSize=500")

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal([]eventmodels.Type{eventmodels.TypeInvalidParameter}, s.emitted.types())
}

func (s *HandlerSuite) TestListLogsSuspiciousSearch() {
	w := s.get("/api/blogs?search=auto%27%20union%20select%20password%20from%20users")

	s.Equal(http.StatusOK, w.Code)
	s.Require().Equal([]eventmodels.Type{eventmodels.TypeSuspiciousSearchQuery}, s.emitted.types())
	s.Contains(s.emitted.events[0].Metadata["search"], "union select")
}

func (s *HandlerSuite) TestDetail() {
	s.Run("found", func() {
		w := s.get("/api/blogs/mon-article-1")

		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"data":{"id":1,"slug":"mon-article-1","titre":"Bonus malus"}}`, w.Body.String())
	})

	s.Run("short slug is rejected", func() {
		w := s.get("/api/blogs/ab")
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("traversal slug is logged and rejected", func() {
		s.SetupTest()
		w := s.get("/api/blogs/..%2F..%2Fetc%2Fpasswd")

		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal([]eventmodels.Type{eventmodels.TypeSuspiciousSlugAccess}, s.emitted.types())
		s.EqualValues(0, s.detailCalls.Load())
	})

	s.Run("unknown article is 404", func() {
		w := s.get("/api/blogs/article-absent")

		s.Equal(http.StatusNotFound, w.Code)
		var resp httputil.ErrorResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("Article introuvable.", resp.Message)
	})

	s.Run("transient upstream failures are retried", func() {
		s.SetupTest()
		s.detailFails = 2

		w := s.get("/api/blogs/mon-article-1")

		s.Equal(http.StatusOK, w.Code)
		s.EqualValues(3, s.detailCalls.Load())
	})

	s.Run("persistent upstream failure is a generic 500", func() {
		s.SetupTest()
		s.detailFails = 10

		w := s.get("/api/blogs/mon-article-1")

		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(w.Body.String(), s.upstream.URL)
		s.Equal([]eventmodels.Type{eventmodels.TypeAPIError}, s.emitted.types())
	})
}

func (s *HandlerSuite) TestCategories() {
	w := s.get("/api/blog-categories")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"data":[{"code":"auto","nom":"Auto"}]}`, w.Body.String())
}
