package httptransport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	contenthandler "leadgate/internal/content/handler"
	leadhandler "leadgate/internal/lead/handler"
	mediahandler "leadgate/internal/media/handler"
	mediamodels "leadgate/internal/media/models"
	"leadgate/internal/platform/health"
	ratelimithandler "leadgate/internal/ratelimit/handler"
	ratelimitmw "leadgate/internal/ratelimit/middleware"
	ratelimitmodels "leadgate/internal/ratelimit/models"
	eventshandler "leadgate/internal/security/events/handler"
	eventmodels "leadgate/internal/security/events/models"
	"leadgate/internal/security/guard"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/platform/middleware/admin"
	"leadgate/pkg/platform/middleware/metadata"
	"leadgate/pkg/platform/middleware/request"
)

// apiBodyLimit caps every /api body. Handlers apply tighter limits of their own.
const apiBodyLimit = mediamodels.MaxUploadBytes + 1<<20

// EventLogger records security events.
type EventLogger interface {
	Log(ctx context.Context, t eventmodels.Type, metadata map[string]any, r *http.Request)
}

// Dependencies is everything the router mounts. Pages is optional; without
// it page routes answer 404 once the guard has passed them.
type Dependencies struct {
	Logger         *slog.Logger
	Events         EventLogger
	Guard          *guard.Guard
	ClientMetadata *metadata.Middleware
	RequestMetrics *request.Metrics
	RateLimit      *ratelimitmw.Middleware
	Health         *health.Handler
	Metrics        http.Handler

	Lead           *leadhandler.Handler
	Content        *contenthandler.Handler
	Media          *mediahandler.Handler
	SecurityEvents *eventshandler.Handler
	RateLimitAdmin *ratelimithandler.Handler
	AdminSecret    []byte

	Pages http.Handler
}

// NewRouter wires the public API, the admin API, probes and the guarded page
// fallback.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger, panicEvent(d.Events)))
	r.Use(request.RequestID)
	r.Use(d.ClientMetadata.Handler)
	r.Use(request.Logger(d.Logger))
	r.Use(request.LatencyMiddleware(d.RequestMetrics))
	r.Use(d.Guard.Middleware)

	d.Health.Register(r)
	r.Handle("/metrics", d.Metrics)

	r.Route("/api", func(api chi.Router) {
		api.Use(d.Guard.CORS)
		api.Use(request.BodyLimit(apiBodyLimit))

		d.Lead.Register(api, d.RateLimit.RateLimit(ratelimitmodels.EndpointSendDevis))
		d.Content.Register(api, d.RateLimit.RateLimit)
		d.Media.Register(api, d.RateLimit.RateLimit)

		api.Group(func(r chi.Router) {
			r.Use(admin.RequireAdmin(d.AdminSecret, d.Logger, adminFailureEvent(d.Events)))
			d.SecurityEvents.RegisterAdmin(r)
			d.RateLimitAdmin.RegisterAdmin(r)
		})

		api.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Ressource introuvable."))
		})
	})

	pages := d.Pages
	if pages == nil {
		pages = http.NotFoundHandler()
	}
	r.NotFound(pages.ServeHTTP)

	return r
}

func panicEvent(events EventLogger) request.PanicHook {
	return func(r *http.Request, recovered any) {
		events.Log(r.Context(), eventmodels.TypeAPIError, map[string]any{
			"endpoint": r.URL.Path,
			"panic":    fmt.Sprint(recovered),
		}, r)
	}
}

func adminFailureEvent(events EventLogger) admin.FailureHook {
	return func(r *http.Request, reason error) {
		events.Log(r.Context(), eventmodels.TypeAdminAuthFailed, map[string]any{
			"endpoint": r.URL.Path,
			"reason":   reason.Error(),
		}, r)
	}
}
