// Package service relays blog content from the CMS.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"leadgate/internal/cms"
	"leadgate/internal/content/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/retry"
	"leadgate/pkg/requestcontext"
)

const (
	blogsPath      = "/api/blogs"
	categoriesPath = "/api/blog-categories"
)

var errNotFound = dErrors.New(dErrors.CodeNotFound, "Article introuvable.")

// CMS reads JSON documents from the content backend.
type CMS interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

type Service struct {
	cms    CMS
	logger *slog.Logger
	detail retry.Policy
	group  singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDetailRetry replaces the blog detail retry policy.
func WithDetailRetry(p retry.Policy) Option {
	return func(s *Service) {
		s.detail = p
	}
}

func New(client CMS, opts ...Option) *Service {
	s := &Service{
		cms:    client,
		logger: slog.Default(),
		detail: retry.Policy{MaxAttempts: 3, Backoff: retry.Linear(time.Second)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListBlogs returns the CMS pagination envelope for q.
func (s *Service) ListBlogs(ctx context.Context, q models.ListQuery) (*models.Envelope, error) {
	var env models.Envelope
	if err := s.cms.GetJSON(ctx, blogsPath, q.CMSValues(), &env); err != nil {
		return nil, s.upstream(ctx, "list blogs", err)
	}
	return &env, nil
}

// GetBlog fetches one published blog by slug. Server and transport failures
// are retried; a missing article is terminal.
func (s *Service) GetBlog(ctx context.Context, slug string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("filters[slug][$eq]", slug)
	query.Set("filters[publishedAt][$notNull]", "true")
	query.Set("populate", "*")

	var article json.RawMessage
	policy := s.detail
	policy.OnRetry = func(attempt int, err error, next time.Duration) {
		s.logger.WarnContext(ctx, "blog fetch failed, retrying",
			"slug", slug,
			"attempt", attempt,
			"next_in", next,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	res := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		var env struct {
			Data []json.RawMessage `json:"data"`
		}
		err := s.cms.GetJSON(ctx, blogsPath, query, &env)
		switch {
		case err == nil && len(env.Data) == 0:
			return retry.Permanent(errNotFound)
		case err == nil:
			article = env.Data[0]
			return nil
		case cms.IsNotFound(err), !cms.IsRetryable(err):
			return retry.Permanent(err)
		default:
			return err
		}
	})

	switch {
	case res.Err == nil:
		return article, nil
	case errors.Is(res.Err, errNotFound), cms.IsNotFound(res.Err):
		return nil, errNotFound
	default:
		s.logger.ErrorContext(ctx, "blog fetch failed",
			"slug", slug,
			"attempts", res.Attempts,
			"duration_ms", res.Duration.Milliseconds(),
			"error", res.Err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(res.Err, dErrors.CodeUpstream, "fetch blog")
	}
}

// Categories lists blog categories. Concurrent callers share one CMS call.
func (s *Service) Categories(ctx context.Context) (*models.Envelope, error) {
	ch := s.group.DoChan(categoriesPath, func() (any, error) {
		// Detached so one caller going away does not fail the others.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()

		query := url.Values{}
		query.Set("sort", "nom:asc")
		query.Set("pagination[pageSize]", "100")
		var env models.Envelope
		if err := s.cms.GetJSON(ctx, categoriesPath, query, &env); err != nil {
			return nil, err
		}
		return &env, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, s.upstream(ctx, "list categories", res.Err)
		}
		return res.Val.(*models.Envelope), nil
	}
}

func (s *Service) upstream(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "cms request failed",
		"op", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeUpstream, op)
}
