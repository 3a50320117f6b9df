package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"leadgate/internal/platform/privacy"
	"leadgate/internal/ratelimit/models"
	eventmodels "leadgate/internal/security/events/models"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/requestcontext"
)

type RateLimiter interface {
	Check(ctx context.Context, identity string, endpoint models.Endpoint) (*models.RateLimitResult, error)
}

// EventLogger records security events.
type EventLogger interface {
	Log(ctx context.Context, t eventmodels.Type, metadata map[string]any, r *http.Request)
}

type Middleware struct {
	limiter RateLimiter
	logger  *slog.Logger
	events  EventLogger
}

func New(limiter RateLimiter, logger *slog.Logger, events EventLogger) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  logger,
		events:  events,
	}
}

// RateLimit limits requests per client IP on endpoint.
func (m *Middleware) RateLimit(endpoint models.Endpoint) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.limiter.Check(ctx, ip, endpoint)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"endpoint", endpoint,
					"ip_prefix", privacy.AnonymizeIP(ip),
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			// Add headers regardless of outcome
			addRateLimitHeaders(w, result)

			if !result.Allowed {
				if m.events != nil {
					m.events.Log(ctx, eventmodels.TypeRateLimitExceeded, map[string]any{
						"endpoint":    string(endpoint),
						"limit":       result.Limit,
						"retry_after": result.RetryAfter,
					}, r)
				}
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
		Success:    false,
		Message:    httputil.MessageRateLimited,
		Error:      "rate_limited",
		Type:       "rate_limit",
		RetryAfter: result.RetryAfter,
	})
}
