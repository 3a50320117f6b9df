// Package client submits lead forms to a leadgate server the way the
// website's forms do.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leadgate/internal/lead/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/httputil"
)

const submitPath = "/api/send-devis"

// maxResponseBytes bounds the response body read for classification.
const maxResponseBytes = 1 << 20

type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitForm validates then sends a typed form. An invalid form, missing
// identity fields or unaccepted terms included, is answered locally without
// contacting the server. Identity fields are repeated at the top level of
// the request like the website does.
func (c *Client) SubmitForm(ctx context.Context, form models.Form, persist bool) models.SubmissionResult {
	if err := models.ValidateForm(form); err != nil {
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) || (domainErr.Code != dErrors.CodeValidation && domainErr.Code != dErrors.CodeBadRequest) {
			return failure(err)
		}
		c.logger.InfoContext(ctx, "lead form rejected before submission",
			"form_type", form.Product(),
			"reason", domainErr.Message,
		)
		return models.SubmissionResult{
			Message: httputil.UserMessage(domainErr),
			Error:   httputil.DomainCodeToHTTPCode(domainErr.Code),
			Type:    models.ResultValidation,
		}
	}

	data, err := json.Marshal(form)
	if err != nil {
		c.logger.ErrorContext(ctx, "encode lead form", "error", err)
		return failure(err)
	}
	contact := form.Identity()
	return c.Submit(ctx, &models.SubmitRequest{
		FormType:       string(form.Product()),
		FormData:       data,
		SubmitToStrapi: persist,
		Email:          contact.Email,
		FirstName:      contact.Prenom,
		LastName:       contact.Nom,
	})
}

// Submit posts req and classifies the outcome. It never fails: transport
// and decoding problems become an unsuccessful result.
func (c *Client) Submit(ctx context.Context, req *models.SubmitRequest) models.SubmissionResult {
	body, err := json.Marshal(req)
	if err != nil {
		return failure(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(submitPath).String(), bytes.NewReader(body))
	if err != nil {
		return failure(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "lead submission transport error", "error", err)
		return failure(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failure(err)
	}
	return classify(resp, raw)
}

func classify(resp *http.Response, raw []byte) models.SubmissionResult {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ok models.SubmitResponse
		if err := json.Unmarshal(raw, &ok); err != nil || !ok.Success {
			return failure(fmt.Errorf("unexpected success body (status %d)", resp.StatusCode))
		}
		msg := ok.Message
		if msg == "" {
			msg = models.MessageSubmitted
		}
		return models.SubmissionResult{Success: true, Message: msg}
	}

	var env httputil.ErrorResponse
	_ = json.Unmarshal(raw, &env)

	switch models.ResultType(env.Type) {
	case models.ResultRateLimit:
		retryAfter := env.RetryAfter
		if retryAfter <= 0 {
			retryAfter, _ = strconv.Atoi(resp.Header.Get("Retry-After"))
		}
		return models.SubmissionResult{
			Message: RateLimitMessage(retryAfter),
			Error:   env.Error,
			Type:    models.ResultRateLimit,
		}
	case models.ResultValidation:
		msg := env.Message
		if msg == "" {
			msg = httputil.MessageBadRequest
		}
		return models.SubmissionResult{
			Message: msg,
			Error:   env.Error,
			Type:    models.ResultValidation,
		}
	}

	errText := env.Error
	if errText == "" {
		errText = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return models.SubmissionResult{
		Message: models.MessageTechnical,
		Error:   errText,
		Type:    models.ResultUnknown,
	}
}

// RateLimitMessage renders the throttle message for a wait of retryAfter
// seconds, rounded up to whole minutes.
func RateLimitMessage(retryAfter int) string {
	if retryAfter <= 0 {
		return httputil.MessageRateLimited
	}
	minutes := int(math.Ceil(float64(retryAfter) / 60))
	return fmt.Sprintf("Trop de demandes. Veuillez réessayer dans %d minute(s).", minutes)
}

func failure(err error) models.SubmissionResult {
	return models.SubmissionResult{
		Message: models.MessageTechnical,
		Error:   err.Error(),
		Type:    models.ResultUnknown,
	}
}
