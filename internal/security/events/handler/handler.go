// Package handler serves the admin read API over recorded security events.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"leadgate/internal/security/events/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/platform/middleware/admin"
	"leadgate/pkg/requestcontext"
)

// Reader lists recorded events, newest first.
type Reader interface {
	List(ctx context.Context, filter models.Filter) ([]models.Event, error)
}

type Handler struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

// RegisterAdmin mounts the routes on a router already guarded by admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/security-events", h.HandleList)
}

type listResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Events  []models.Event `json:"events"`
}

// HandleList implements GET /api/admin/security-events?type=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.reader.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list security events",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list security events"))
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	h.logger.InfoContext(ctx, "security events listed",
		"actor", admin.GetAdminActorID(ctx),
		"type", filter.Type,
		"count", len(events),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Success: true,
		Count:   len(events),
		Events:  events,
	})
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{Type: models.Type(q.Get("type"))}
	if filter.Type != "" && !filter.Type.IsValid() {
		return filter, dErrors.New(dErrors.CodeValidation, "Type d'événement inconnu.")
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, dErrors.New(dErrors.CodeValidation, "Le paramètre limit doit être un entier positif.")
		}
		filter.Limit = limit
	}
	return filter.Normalized(), nil
}
