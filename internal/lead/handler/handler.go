// Package handler serves POST /api/send-devis.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadgate/internal/lead/models"
	eventmodels "leadgate/internal/security/events/models"
	dErrors "leadgate/pkg/domain-errors"
	limits "leadgate/pkg/platform/validation"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/requestcontext"
)

// MaxBodyBytes bounds a submission body.
const MaxBodyBytes = limits.MaxBodySize

// Service processes lead submissions.
type Service interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResponse, error)
}

// EventLogger records security events.
type EventLogger interface {
	Log(ctx context.Context, t eventmodels.Type, metadata map[string]any, r *http.Request)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	events  EventLogger
}

func New(service Service, logger *slog.Logger, events EventLogger) *Handler {
	return &Handler{service: service, logger: logger, events: events}
}

// Register mounts the route; mw wraps only this route (rate limiting).
func (h *Handler) Register(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.With(mw...).Post("/send-devis", h.HandleSubmit)
}

// HandleSubmit implements POST /api/send-devis.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	req, ok := httputil.DecodeJSON[models.SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		h.logEvent(ctx, eventmodels.TypeInvalidParameter, map[string]any{"reason": "undecodable body"}, r)
		return
	}
	if err := httputil.PrepareRequest(req); err != nil {
		h.fail(w, r, req.FormType, err)
		return
	}

	resp, err := h.service.Submit(ctx, req)
	if err != nil {
		h.fail(w, r, req.FormType, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, formType string, err error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if dErrors.HasCode(err, dErrors.CodeValidation) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
		h.logger.WarnContext(ctx, "lead submission rejected",
			"form_type", formType,
			"error", err,
			"request_id", requestID,
		)
		h.logEvent(ctx, eventmodels.TypeInvalidParameter, map[string]any{
			"form_type": formType,
			"reason":    err.Error(),
		}, r)
		httputil.WriteError(w, err)
		return
	}

	h.logger.ErrorContext(ctx, "lead submission failed",
		"form_type", formType,
		"error", err,
		"request_id", requestID,
	)
	h.logEvent(ctx, eventmodels.TypeAPIError, map[string]any{
		"endpoint":  "send-devis",
		"form_type": formType,
		"code":      string(dErrors.CodeOf(err)),
	}, r)
	httputil.WriteError(w, err)
}

func (h *Handler) logEvent(ctx context.Context, t eventmodels.Type, md map[string]any, r *http.Request) {
	if h.events != nil {
		h.events.Log(ctx, t, md, r)
	}
}
