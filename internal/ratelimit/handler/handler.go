// Package handler exposes rate limit counters to operators on the admin API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"

	"leadgate/internal/ratelimit/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/platform/middleware/admin"
	"leadgate/pkg/requestcontext"
)

// Limiter is the subset of the rate limit service the admin routes use.
type Limiter interface {
	Peek(ctx context.Context, identity string, endpoint models.Endpoint) (*models.RateLimitResult, error)
	Reset(ctx context.Context, identity string, endpoint models.Endpoint) error
}

type Handler struct {
	limiter Limiter
	logger  *slog.Logger
}

func New(limiter Limiter, logger *slog.Logger) *Handler {
	return &Handler{limiter: limiter, logger: logger}
}

// RegisterAdmin mounts the routes on a router already guarded by admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/rate-limits/{endpoint}", h.HandlePeek)
	r.Delete("/admin/rate-limits/{endpoint}", h.HandleReset)
}

type counterResponse struct {
	Success  bool                    `json:"success"`
	Endpoint models.Endpoint         `json:"endpoint"`
	IP       string                  `json:"ip"`
	Counter  *models.RateLimitResult `json:"counter,omitempty"`
}

// HandlePeek implements GET /api/admin/rate-limits/{endpoint}?ip=.
// Looking does not count as a request.
func (h *Handler) HandlePeek(w http.ResponseWriter, r *http.Request) {
	endpoint, ip, err := parseTarget(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.limiter.Peek(r.Context(), ip, endpoint)
	if err != nil {
		h.internal(w, r, "peek", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counterResponse{Success: true, Endpoint: endpoint, IP: ip, Counter: res})
}

// HandleReset implements DELETE /api/admin/rate-limits/{endpoint}?ip=, for
// a visitor locked out by a shared office NAT and the like.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint, ip, err := parseTarget(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.limiter.Reset(ctx, ip, endpoint); err != nil {
		h.internal(w, r, "reset", err)
		return
	}
	h.logger.InfoContext(ctx, "rate limit reset",
		"actor", admin.GetAdminActorID(ctx),
		"endpoint", endpoint,
		"ip", ip,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, counterResponse{Success: true, Endpoint: endpoint, IP: ip})
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), "rate limit admin operation failed",
		"op", op,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, op+" rate limit"))
}

func parseTarget(r *http.Request) (models.Endpoint, string, error) {
	endpoint, ok := models.ParseEndpoint(chi.URLParam(r, "endpoint"))
	if !ok {
		return "", "", dErrors.New(dErrors.CodeNotFound, "Point d'accès inconnu.")
	}
	ip := strings.TrimSpace(r.URL.Query().Get("ip"))
	if _, err := netip.ParseAddr(ip); err != nil {
		return "", "", dErrors.New(dErrors.CodeValidation, "Le paramètre ip doit être une adresse IP valide.")
	}
	return endpoint, ip, nil
}
