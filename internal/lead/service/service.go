// Package service relays lead submissions to the CMS and notifies sales.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"leadgate/internal/lead/metrics"
	"leadgate/internal/lead/models"
	"leadgate/internal/lead/notify"
	eventmodels "leadgate/internal/security/events/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/requestcontext"
)

// CMS persists canonical payloads.
type CMS interface {
	PostJSON(ctx context.Context, path string, body, out any) error
}

// Notifier delivers lead notifications.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// EventLogger records security events.
type EventLogger interface {
	Log(ctx context.Context, t eventmodels.Type, metadata map[string]any, r *http.Request)
}

// Submission outcomes used as metric labels.
const (
	OutcomeSuccess          = "success"
	OutcomeInvalid          = "invalid"
	OutcomePersistFailed    = "persist_failed"
	OutcomeNotifyFailed     = "notify_failed"
	OutcomeNotifyOnlyFailed = "notification_lost"
)

type Service struct {
	cms      CMS
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	events   EventLogger
	strict   bool
	timeout  time.Duration
	newID    func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEvents(events EventLogger) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithStrictMapping rejects submissions carrying labels or dates that have
// no canonical mapping instead of passing them through.
func WithStrictMapping(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithTimeout bounds the CMS and notification legs. They run detached from
// the caller's cancellation so a visitor closing the tab does not lose a
// lead halfway through.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func New(cms CMS, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		cms:      cms,
		notifier: notifier,
		logger:   slog.Default(),
		timeout:  30 * time.Second,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs the pipeline: decode, scrub, validate, map, persist, notify.
//
// When persistence was requested and every collection endpoint failed, the
// notification is still sent (flagged persisted=false) and the caller gets
// an upstream error: the visitor is told to retry instead of being shown a
// success for a lead the CMS never stored.
func (s *Service) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResponse, error) {
	product, ok := models.ParseProduct(req.FormType)
	if !ok {
		s.metrics.IncSubmission(req.FormType, OutcomeInvalid)
		return nil, dErrors.New(dErrors.CodeValidation, "Type de formulaire inconnu.")
	}

	form, err := models.DecodeForm(product, req.FormData)
	if err != nil {
		s.metrics.IncSubmission(string(product), OutcomeInvalid)
		return nil, err
	}

	form.Identity().Fallback(req.FirstName, req.LastName, req.Email)

	var scrubber models.Scrubber
	form.Scrub(&scrubber)
	if flagged := scrubber.Flagged(); len(flagged) > 0 {
		s.logEvent(ctx, eventmodels.TypeAttackPatternDetected, map[string]any{
			"endpoint": "send-devis",
			"product":  string(product),
			"fields":   flagged,
		})
	}

	if err := models.ValidateForm(form); err != nil {
		s.metrics.IncSubmission(string(product), OutcomeInvalid)
		return nil, err
	}

	mapper := models.NewMapper(s.strict)
	payload := form.Canonical(mapper)
	if unmapped := mapper.Unmapped(); len(unmapped) > 0 {
		s.metrics.IncUnmapped(string(product), unmapped)
		s.logger.WarnContext(ctx, "lead fields without canonical mapping",
			"product", product,
			"fields", unmapped,
			"strict", s.strict,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if err := mapper.Err(); err != nil {
		s.metrics.IncSubmission(string(product), OutcomeInvalid)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	id := s.newID()
	resp := &models.SubmitResponse{
		Success:      true,
		Message:      models.MessageSubmitted,
		SubmissionID: id,
	}

	if req.SubmitToStrapi {
		var err error
		resp.StrapiResult, err = s.persist(ctx, product, payload)
		if err != nil {
			// Sales is only told about leads the client will not resubmit.
			s.metrics.IncSubmission(string(product), OutcomePersistFailed)
			s.logger.ErrorContext(ctx, "lead not persisted, notification skipped",
				"product", product,
				"submission_id", id,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "lead persistence failed")
		}
	}

	notification := notify.Notification{
		SubmissionID: id,
		Product:      product,
		ProductLabel: product.Label(),
		SubmittedAt:  requestcontext.Now(ctx),
		Contact:      *form.Identity(),
		Payload:      payload,
		Persisted:    req.SubmitToStrapi,
	}
	if resp.StrapiResult != nil {
		notification.PersistEndpoint = resp.StrapiResult.Endpoint
	}
	notifyErr := s.notifier.Notify(ctx, notification)
	s.metrics.IncNotification(notifyErr == nil)

	switch {
	case notifyErr != nil && !req.SubmitToStrapi:
		s.metrics.IncSubmission(string(product), OutcomeNotifyOnlyFailed)
		s.logger.ErrorContext(ctx, "lead notification failed and no CMS copy requested",
			"product", product,
			"submission_id", id,
			"error", notifyErr,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(notifyErr, dErrors.CodeUpstream, "lead notification failed")

	case notifyErr != nil:
		s.metrics.IncSubmission(string(product), OutcomeNotifyFailed)
		s.logger.WarnContext(ctx, "lead persisted but notification failed",
			"product", product,
			"submission_id", id,
			"error", notifyErr,
		)
		return resp, nil
	}

	s.metrics.IncSubmission(string(product), OutcomeSuccess)
	s.logger.InfoContext(ctx, "lead submitted",
		"product", product,
		"submission_id", id,
		"persisted", notification.Persisted,
	)
	return resp, nil
}

// persist walks the product's collection endpoints and stops at the first
// accepted write.
func (s *Service) persist(ctx context.Context, product models.Product, payload any) (*models.PersistResult, error) {
	paths := product.CollectionPaths()
	var errs []error
	for i, path := range paths {
		var out json.RawMessage
		err := s.cms.PostJSON(ctx, path, map[string]any{"data": payload}, &out)
		s.metrics.IncPersistAttempt(string(product), path, err == nil)
		if err == nil {
			return &models.PersistResult{Endpoint: path, Attempts: i + 1, Data: out}, nil
		}
		s.logger.WarnContext(ctx, "cms lead write failed",
			"product", product,
			"endpoint", path,
			"attempt", i+1,
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

func (s *Service) logEvent(ctx context.Context, t eventmodels.Type, md map[string]any) {
	if s.events != nil {
		s.events.Log(ctx, t, md, nil)
	}
}
