// Package handler serves the upload and media proxy routes.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"leadgate/internal/cms"
	"leadgate/internal/media/models"
	ratelimitmodels "leadgate/internal/ratelimit/models"
	eventmodels "leadgate/internal/security/events/models"
	"leadgate/internal/security/sanitize"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/requestcontext"
)

const (
	// multipart framing allowance on top of the file cap
	formOverhead   = 1 << 20
	formMemory     = 4 << 20
	sniffLen       = 512
	cacheImmutable = "public, max-age=31536000, immutable"
)

// Service relays media to and from the CMS.
type Service interface {
	Upload(ctx context.Context, up *models.Upload, content io.Reader) (*models.UploadedFile, error)
	ResolveServeURL(raw string) (string, bool)
	Open(ctx context.Context, path string) (*cms.Stream, error)
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
	now     func() time.Time
}

func New(service Service, logger *slog.Logger, events EventLogger) *Handler {
	return &Handler{service: service, logger: logger, events: events, now: time.Now}
}

// Register mounts the media routes. limit may be nil.
func (h *Handler) Register(r chi.Router, limit Limiter) {
	with := func(e ratelimitmodels.Endpoint) chi.Router {
		if limit == nil {
			return r.With()
		}
		return r.With(limit(e))
	}
	with(ratelimitmodels.EndpointUploadFile).Post("/upload-file", h.HandleUpload)
	with(ratelimitmodels.EndpointServeFile).Get("/serve-file", h.HandleServeFile)
	with(ratelimitmodels.EndpointMedia).Get("/media/*", h.HandleMedia)
}

// HandleUpload implements POST /api/upload-file (multipart field "file").
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, models.MaxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rejectUpload(w, r, &models.RejectedError{Reason: models.ReasonTooLarge})
			return
		}
		h.invalid(w, r, "multipart", dErrors.New(dErrors.CodeBadRequest, "Le formulaire d'envoi est invalide."))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.invalid(w, r, "file", dErrors.New(dErrors.CodeValidation, "Aucun fichier fourni."))
		return
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "read upload"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "rewind upload"))
		return
	}

	up, err := models.CheckUpload(header.Filename, header.Size, head[:n], h.now())
	if err != nil {
		var rejected *models.RejectedError
		if errors.As(err, &rejected) {
			h.rejectUpload(w, r, rejected)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	if declared := header.Header.Get("Content-Type"); declared != "" && declared != up.ContentType {
		h.logger.DebugContext(ctx, "upload content type corrected",
			"declared", declared,
			"corrected", up.ContentType,
		)
	}

	uploaded, err := h.service.Upload(ctx, up, file)
	if err != nil {
		h.fail(w, r, "upload-file", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.UploadResponse{
		Success: true,
		Message: "Fichier envoyé avec succès.",
		File:    *uploaded,
	})
}

// HandleServeFile implements GET /api/serve-file?url=.
func (h *Handler) HandleServeFile(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	upstream, ok := h.service.ResolveServeURL(raw)
	if !ok {
		h.invalidPath(w, r, raw)
		return
	}
	h.stream(w, r, upstream, "serve-file")
}

// HandleMedia implements GET /api/media/*.
func (h *Handler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		h.invalidPath(w, r, raw)
		return
	}
	upstream, ok := models.CleanMediaPath(decoded)
	if !ok {
		h.invalidPath(w, r, raw)
		return
	}
	h.stream(w, r, upstream, "media")
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, upstream, endpoint string) {
	ctx := r.Context()
	s, err := h.service.Open(ctx, upstream)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}
		h.fail(w, r, endpoint, err)
		return
	}
	defer s.Body.Close()

	name := path.Base(upstream)
	hdr := w.Header()
	hdr.Set("Content-Type", models.ContentTypeFor(name, s.ContentType))
	hdr.Set("Cache-Control", cacheImmutable)
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	if s.ETag != "" {
		hdr.Set("ETag", s.ETag)
		if r.Header.Get("If-None-Match") == s.ETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	if s.LastModified != "" {
		hdr.Set("Last-Modified", s.LastModified)
	}
	if s.ContentLength > 0 {
		hdr.Set("Content-Length", strconv.FormatInt(s.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, s.Body); err != nil {
		h.logger.WarnContext(ctx, "media stream interrupted",
			"path", upstream,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (h *Handler) rejectUpload(w http.ResponseWriter, r *http.Request, rejected *models.RejectedError) {
	h.logger.WarnContext(r.Context(), "upload rejected",
		"reason", rejected.Reason,
		"filename", rejected.Filename,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	h.logEvent(r.Context(), eventmodels.TypeFileUploadRejected, map[string]any{
		"reason":    rejected.Reason,
		"filename":  rejected.Filename,
		"extension": rejected.Extension,
	}, r)
	httputil.WriteError(w, rejected.DomainError())
}

func (h *Handler) invalidPath(w http.ResponseWriter, r *http.Request, raw string) {
	md := map[string]any{"path": raw}
	if matches := sanitize.Detect(raw); len(matches) > 0 {
		md["signature"] = matches
		h.logEvent(r.Context(), eventmodels.TypeAttackPatternDetected, md, r)
	} else {
		h.logEvent(r.Context(), eventmodels.TypeInvalidParameter, md, r)
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Chemin de fichier invalide."))
}

func (h *Handler) invalid(w http.ResponseWriter, r *http.Request, field string, err error) {
	h.logEvent(r.Context(), eventmodels.TypeInvalidParameter, map[string]any{
		"field":  field,
		"reason": err.Error(),
	}, r)
	httputil.WriteError(w, err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "media request failed",
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
