// Package guard is the page-level request guard. Every request that is not a
// static asset or an /api route gets security headers, user-agent and
// attack-signature classification, CORS preflight handling and slow-request
// reporting. Internal failures become a 500 that still carries the headers.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"leadgate/internal/security/events/models"
	"leadgate/pkg/requestcontext"
)

// EventLogger records security events. It must never block or panic.
type EventLogger interface {
	Log(ctx context.Context, t models.Type, metadata map[string]any, r *http.Request)
}

type Config struct {
	Production     bool
	AllowedOrigins []string
	// SlowThreshold is the guarded duration above which SLOW_REQUEST is recorded.
	SlowThreshold time.Duration
}

type Guard struct {
	cfg     Config
	events  EventLogger
	logger  *slog.Logger
	metrics *Metrics
	since   func(time.Time) time.Duration
}

// Option configures the Guard.
type Option func(*Guard)

func WithMetrics(m *Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// WithSince replaces time.Since; tests use it to simulate slow handlers.
func WithSince(since func(time.Time) time.Duration) Option {
	return func(g *Guard) {
		g.since = since
	}
}

func New(cfg Config, events EventLogger, logger *slog.Logger, opts ...Option) *Guard {
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = time.Second
	}
	g := &Guard{
		cfg:    cfg,
		events: events,
		logger: logger,
		since:  time.Since,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware runs the guard state machine:
// ENTRY -> STATIC_BYPASS | SECURITY_CHECK -> {BLOCKED, CORS_PREFLIGHT, PASSED}.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsStaticBypass(r.URL) {
			g.metrics.IncDecision(DecisionBypass)
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		SetSecurityHeaders(w.Header(), g.cfg.Production)
		tw := &trackingWriter{ResponseWriter: w}

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				g.fail(tw, r, rec)
			}
		}()

		if g.check(tw, r) {
			return
		}

		next.ServeHTTP(tw, r)
		g.metrics.IncDecision(DecisionPassed)

		if elapsed := g.since(start); elapsed > g.cfg.SlowThreshold {
			g.metrics.IncSlow()
			g.events.Log(r.Context(), models.TypeSlowRequest, map[string]any{
				"duration_ms":  elapsed.Milliseconds(),
				"threshold_ms": g.cfg.SlowThreshold.Milliseconds(),
			}, r)
		}
	})
}

// check runs the SECURITY_CHECK state. It returns true when the request was
// answered here (blocked or preflight).
func (g *Guard) check(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()

	ua := requestcontext.UserAgent(ctx)
	if ua == "" {
		ua = r.UserAgent()
	}
	if reason := ClassifyUserAgent(ua); reason != "" {
		g.metrics.IncSuspiciousUA(reason)
		g.events.Log(ctx, models.TypeSuspiciousUserAgent, map[string]any{
			"reason":     reason,
			"user_agent": truncateForLog(ua),
		}, r)
	}

	if signature := MatchAttack(r.URL.EscapedPath(), r.URL.RawQuery); signature != "" {
		g.metrics.IncDecision(DecisionBlocked)
		g.metrics.IncBlocked(signature)
		g.events.Log(ctx, models.TypeAttackPatternDetected, map[string]any{
			"signature": signature,
			"path":      truncateForLog(r.URL.EscapedPath()),
			"query":     truncateForLog(r.URL.RawQuery),
		}, r)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return true
	}

	if IsPreflight(r) {
		g.handlePreflight(w, r)
		return true
	}
	return false
}

func (g *Guard) fail(w *trackingWriter, r *http.Request, rec any) {
	g.metrics.IncDecision(DecisionError)
	g.logger.ErrorContext(r.Context(), "panic in guarded handler",
		"panic", rec,
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	g.events.Log(r.Context(), models.TypeAPIError, map[string]any{
		"stage": "guard",
	}, r)
	if w.wroteHeader {
		return
	}
	SetSecurityHeaders(w.Header(), g.cfg.Production)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func truncateForLog(s string) string {
	const maxLen = 256
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.wroteHeader = true
		f.Flush()
	}
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
