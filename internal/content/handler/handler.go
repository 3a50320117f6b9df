// Package handler serves the public blog API.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadgate/internal/content/models"
	ratelimitmodels "leadgate/internal/ratelimit/models"
	eventmodels "leadgate/internal/security/events/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/requestcontext"
)

// Service reads blog content.
type Service interface {
	ListBlogs(ctx context.Context, q models.ListQuery) (*models.Envelope, error)
	GetBlog(ctx context.Context, slug string) (json.RawMessage, error)
	Categories(ctx context.Context) (*models.Envelope, error)
}

// EventLogger records security events.
type EventLogger interface {
	Log(ctx context.Context, t eventmodels.Type, metadata map[string]any, r *http.Request)
}

// Limiter returns the rate-limit middleware for an endpoint.
type Limiter func(endpoint ratelimitmodels.Endpoint) func(http.Handler) http.Handler

type Handler struct {
	service Service
	logger  *slog.Logger
	events  EventLogger
}

func New(service Service, logger *slog.Logger, events EventLogger) *Handler {
	return &Handler{service: service, logger: logger, events: events}
}

// Register mounts the blog routes. limit may be nil.
func (h *Handler) Register(r chi.Router, limit Limiter) {
	with := func(e ratelimitmodels.Endpoint) chi.Router {
		if limit == nil {
			return r.With()
		}
		return r.With(limit(e))
	}
	with(ratelimitmodels.EndpointBlogs).Get("/blogs", h.HandleList)
	with(ratelimitmodels.EndpointBlogDetail).Get("/blogs/{slug}", h.HandleDetail)
	with(ratelimitmodels.EndpointBlogCategories).Get("/blog-categories", h.HandleCategories)
}

type detailResponse struct {
	Data json.RawMessage `json:"data"`
}

// HandleList implements GET /api/blogs.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query, findings, err := models.ParseListQuery(r.URL.Query())
	if findings.SuspiciousSearch {
		h.logEvent(ctx, eventmodels.TypeSuspiciousSearchQuery, map[string]any{
			"search":    findings.OriginalSearch,
			"signature": findings.SearchMatches,
		}, r)
	}
	if err != nil {
		h.reject(w, r, err)
		return
	}

	env, err := h.service.ListBlogs(ctx, query)
	if err != nil {
		h.fail(w, r, "blogs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, env)
}

// HandleDetail implements GET /api/blogs/{slug}.
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := chi.URLParam(r, "slug")

	slug, findings, err := models.ParseSlug(raw)
	if findings.Suspicious {
		h.logEvent(ctx, eventmodels.TypeSuspiciousSlugAccess, map[string]any{
			"slug":      raw,
			"signature": findings.Matches,
		}, r)
		httputil.WriteError(w, err)
		return
	}
	if err != nil {
		h.reject(w, r, err)
		return
	}

	article, err := h.service.GetBlog(ctx, slug)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.fail(w, r, "blog-detail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detailResponse{Data: article})
}

// HandleCategories implements GET /api/blog-categories.
func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	env, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, r, "blog-categories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, env)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	h.logEvent(r.Context(), eventmodels.TypeInvalidParameter, map[string]any{
		"query":  r.URL.RawQuery,
		"reason": err.Error(),
	}, r)
	httputil.WriteError(w, err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "content request failed",
		"endpoint", endpoint,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	h.logEvent(ctx, eventmodels.TypeAPIError, map[string]any{
		"endpoint": endpoint,
		"code":     string(dErrors.CodeOf(err)),
	}, r)
	httputil.WriteError(w, err)
}

func (h *Handler) logEvent(ctx context.Context, t eventmodels.Type, md map[string]any, r *http.Request) {
	if h.events != nil {
		h.events.Log(ctx, t, md, r)
	}
}
