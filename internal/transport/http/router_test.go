package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"

	"leadgate/internal/cms"
	contenthandler "leadgate/internal/content/handler"
	contentservice "leadgate/internal/content/service"
	leadhandler "leadgate/internal/lead/handler"
	"leadgate/internal/lead/notify"
	leadservice "leadgate/internal/lead/service"
	mediahandler "leadgate/internal/media/handler"
	mediaservice "leadgate/internal/media/service"
	"leadgate/internal/platform/health"
	ratelimithandler "leadgate/internal/ratelimit/handler"
	ratelimitmw "leadgate/internal/ratelimit/middleware"
	ratelimitservice "leadgate/internal/ratelimit/service"
	ratelimitmemory "leadgate/internal/ratelimit/store/memory"
	"leadgate/internal/security/events"
	eventshandler "leadgate/internal/security/events/handler"
	eventmodels "leadgate/internal/security/events/models"
	"leadgate/internal/security/events/store/memory"
	"leadgate/internal/security/guard"
	"leadgate/pkg/platform/middleware/admin"
	"leadgate/pkg/platform/middleware/metadata"
	"leadgate/pkg/platform/middleware/request"
)

type recentEmitter struct {
	recent *memory.Recent
}

func (e recentEmitter) Emit(event eventmodels.Event) {
	_ = e.recent.Append(context.Background(), []eventmodels.Event{event})
}

type RouterSuite struct {
	suite.Suite
	cms    *httptest.Server
	recent *memory.Recent
	secret []byte
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.secret = []byte("router-test-secret")
	s.recent = memory.NewRecent(100)
	s.cms = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/blog-categories":
			_, _ = io.WriteString(w, `{"data":[{"id":1,"code":"auto","nom":"Auto"}],"meta":{}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"data":null,"error":{"status":404}}`)
		}
	}))
	s.T().Cleanup(s.cms.Close)
}

func (s *RouterSuite) router(pages http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	ev := events.NewLogger(logger, events.WithEmitter(recentEmitter{recent: s.recent}))

	client, err := cms.New(cms.Config{BaseURL: s.cms.URL, Timeout: time.Second})
	s.Require().NoError(err)

	limiter, err := ratelimitservice.New(ratelimitmemory.New())
	s.Require().NoError(err)

	return NewRouter(Dependencies{
		Logger: logger,
		Events: ev,
		Guard: guard.New(guard.Config{
			AllowedOrigins: []string{"http://localhost:3000"},
		}, ev, logger),
		ClientMetadata: metadata.NewMiddleware(nil),
		RequestMetrics: request.NewMetrics(reg),
		RateLimit:      ratelimitmw.New(limiter, logger, ev),
		Health:         health.New("test"),
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),

		Lead:           leadhandler.New(leadservice.New(client, notify.NewLogNotifier(logger)), logger, ev),
		Content:        contenthandler.New(contentservice.New(client), logger, ev),
		Media:          mediahandler.New(mediaservice.New(client, logger), logger, ev),
		SecurityEvents: eventshandler.New(s.recent, logger),
		RateLimitAdmin: ratelimithandler.New(limiter, logger),
		AdminSecret:    s.secret,

		Pages: pages,
	})
}

func (s *RouterSuite) do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) recorded(t eventmodels.Type) int {
	list, err := s.recent.List(context.Background(), eventmodels.Filter{Type: t, Limit: 100})
	s.Require().NoError(err)
	return len(list)
}

func (s *RouterSuite) TestProbesPassTheGuard() {
	w := s.do(s.router(nil), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	s.Equal(http.StatusOK, w.Code)
	s.Equal("DENY", w.Header().Get("X-Frame-Options"))
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestGuardBlocksTraversalPages() {
	w := s.do(s.router(nil), httptest.NewRequest(http.MethodGet, "/..%2e%2e/etc/passwd", nil))

	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("nosniff", w.Header().Get("X-Content-Type-Options"))
	s.Equal(1, s.recorded(eventmodels.TypeAttackPatternDetected))
}

func (s *RouterSuite) TestPages() {
	s.Run("without a frontend pages are 404", func() {
		w := s.do(s.router(nil), httptest.NewRequest(http.MethodGet, "/assurance-auto", nil))
		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("DENY", w.Header().Get("X-Frame-Options"))
	})

	s.Run("frontend pages are proxied with headers attached", func() {
		frontend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "page:"+r.URL.Path)
		}))
		defer frontend.Close()
		pages, err := NewPageProxy(frontend.URL, slog.Default())
		s.Require().NoError(err)

		w := s.do(s.router(pages), httptest.NewRequest(http.MethodGet, "/assurance-auto", nil))

		s.Equal(http.StatusOK, w.Code)
		s.Equal("page:/assurance-auto", w.Body.String())
		s.Equal("DENY", w.Header().Get("X-Frame-Options"))
	})

	s.Run("invalid frontend url", func() {
		_, err := NewPageProxy("ftp://web", slog.Default())
		s.Error(err)
	})
}

func (s *RouterSuite) TestAPIPreflight() {
	h := s.router(nil)

	s.Run("allowed origin", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/send-devis", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		w := s.do(h, req)

		s.Equal(http.StatusNoContent, w.Code)
		s.Equal("http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	s.Run("unknown origin", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/send-devis", nil)
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		w := s.do(h, req)

		s.Equal(http.StatusForbidden, w.Code)
		s.Equal(1, s.recorded(eventmodels.TypeCORSOriginRejected))
	})
}

func (s *RouterSuite) TestSendDevisIsRateLimited() {
	h := s.router(nil)
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/send-devis", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		return s.do(h, req)
	}

	for range 5 {
		s.Equal(http.StatusBadRequest, post().Code)
	}
	w := post()

	s.Equal(http.StatusTooManyRequests, w.Code)
	s.NotEmpty(w.Header().Get("Retry-After"))
	s.Equal("0", w.Header().Get("X-RateLimit-Remaining"))
	s.Equal(1, s.recorded(eventmodels.TypeRateLimitExceeded))
}

func (s *RouterSuite) TestCategories() {
	w := s.do(s.router(nil), httptest.NewRequest(http.MethodGet, "/api/blog-categories", nil))

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"code":"auto"`)
	s.Equal("29", w.Header().Get("X-RateLimit-Remaining"))
}

func (s *RouterSuite) TestUnknownAPIRoute() {
	w := s.do(s.router(nil), httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), `"success":false`)
}

func (s *RouterSuite) TestAdminSecurityEvents() {
	h := s.router(nil)

	s.Run("missing token", func() {
		w := s.do(h, httptest.NewRequest(http.MethodGet, "/api/admin/security-events", nil))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.Equal(1, s.recorded(eventmodels.TypeAdminAuthFailed))
	})

	s.Run("admin token lists recorded events", func() {
		token, err := admin.IssueToken(s.secret, "ops", time.Hour, time.Now())
		s.Require().NoError(err)
		req := httptest.NewRequest(http.MethodGet, "/api/admin/security-events?type=ADMIN_AUTH_FAILED", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := s.do(h, req)

		s.Require().Equal(http.StatusOK, w.Code)
		var body struct {
			Count  int                 `json:"count"`
			Events []eventmodels.Event `json:"events"`
		}
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal(1, body.Count)
		s.Equal(eventmodels.TypeAdminAuthFailed, body.Events[0].Type)
	})
}

func (s *RouterSuite) TestAdminRateLimits() {
	h := s.router(nil)

	s.Run("reset requires a token", func() {
		w := s.do(h, httptest.NewRequest(http.MethodDelete, "/api/admin/rate-limits/blogs?ip=192.0.2.1", nil))

		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("admin token reads the counter", func() {
		s.do(h, httptest.NewRequest(http.MethodGet, "/api/blog-categories", nil))

		token, err := admin.IssueToken(s.secret, "ops", time.Hour, time.Now())
		s.Require().NoError(err)
		req := httptest.NewRequest(http.MethodGet, "/api/admin/rate-limits/blog-categories?ip=192.0.2.1", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := s.do(h, req)

		s.Require().Equal(http.StatusOK, w.Code)
		var body struct {
			Counter struct {
				Limit     int `json:"limit"`
				Remaining int `json:"remaining"`
			} `json:"counter"`
		}
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal(body.Counter.Limit-1, body.Counter.Remaining)
	})
}

func (s *RouterSuite) TestMetricsEndpoint() {
	h := s.router(nil)
	s.do(h, httptest.NewRequest(http.MethodGet, "/health", nil))

	w := s.do(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "leadgate_http_requests_total")
}
