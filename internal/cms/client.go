// Package cms is the HTTP client for the headless CMS (Strapi). Every call
// is traced, timed and guarded by a circuit breaker; failures come back as
// *Error.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"leadgate/pkg/platform/circuit"
	"leadgate/pkg/platform/tracer"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultStreamTimeout = 60 * time.Second
	maxErrorBody         = 4 << 10
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	base          *url.URL
	token         string
	timeout       time.Duration
	streamTimeout time.Duration
	http          HTTPDoer
	breaker       *circuit.Breaker
	tracer        tracer.Tracer
	metrics       *Metrics
	logger        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithStreamTimeout bounds media streaming calls, body included.
func WithStreamTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.streamTimeout = d
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cms base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("cms base url must be absolute http(s): %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		base:          base,
		token:         cfg.Token,
		timeout:       timeout,
		streamTimeout: defaultStreamTimeout,
		http:          &http.Client{},
		breaker:       circuit.New("cms"),
		tracer:        tracer.NewNoop(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns a copy of the CMS origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// GetJSON GETs path with query and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, "get", http.MethodGet, path, query, nil, "", c.timeout)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp.Body, "get", path, out)
}

// PostJSON POSTs body as JSON. out may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Op: "post", Path: path, Kind: KindDecode, Err: err}
	}
	resp, err := c.do(ctx, "post", http.MethodPost, path, nil, bytes.NewReader(payload), "application/json", c.timeout)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decode(resp.Body, "post", path, out)
}

// UploadFile is one file sent to the CMS media library.
type UploadFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// UploadedFile is the CMS media library record for an uploaded file.
type UploadedFile struct {
	ID      int                     `json:"id"`
	Name    string                  `json:"name"`
	URL     string                  `json:"url"`
	Mime    string                  `json:"mime"`
	Size    float64                 `json:"size"`
	Formats map[string]UploadFormat `json:"formats,omitempty"`
}

type UploadFormat struct {
	URL string `json:"url"`
}

// Upload posts files as multipart form field "files" to /api/upload.
func (c *Client) Upload(ctx context.Context, files ...UploadFile) ([]UploadedFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Filename))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create multipart part: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copy upload content: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	resp, err := c.do(ctx, "upload", http.MethodPost, "/api/upload", nil, &buf, mw.FormDataContentType(), c.streamTimeout)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var uploaded []UploadedFile
	if err := decode(resp.Body, "upload", "/api/upload", &uploaded); err != nil {
		return nil, err
	}
	return uploaded, nil
}

// Stream is an open CMS response body. The caller must Close it.
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	ETag          string
	LastModified  string
}

// Stream GETs path (e.g. /uploads/x.png) and hands the body to the caller.
func (c *Client) Stream(ctx context.Context, path string) (*Stream, error) {
	resp, err := c.do(ctx, "stream", http.MethodGet, path, nil, nil, "", c.streamTimeout)
	if err != nil {
		return nil, err
	}
	return &Stream{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		ETag:          resp.Header.Get("ETag"),
		LastModified:  resp.Header.Get("Last-Modified"),
	}, nil
}

// Ping checks the CMS health endpoint. It bypasses the circuit breaker so
// readiness reflects the real upstream state.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath("/_health").String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: "ping", Path: "/_health", Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= 300 {
		return &Error{Op: "ping", Path: "/_health", Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode)}
	}
	return nil
}

// do executes one call. On success the returned body cancels the call
// context when closed; every non-2xx status becomes *Error.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, timeout time.Duration) (resp *http.Response, err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "cms."+op,
		tracer.String("http.method", method),
		tracer.String("cms.path", path),
	)
	defer func() {
		outcome := "success"
		var cmsErr *Error
		if errors.As(err, &cmsErr) {
			outcome = string(cmsErr.Kind)
		}
		if resp != nil {
			span.SetAttributes(tracer.Int("http.status_code", resp.StatusCode))
		}
		span.End(err)
		c.metrics.observe(op, outcome, time.Since(start))
	}()

	if !c.breaker.Allow() {
		return nil, &Error{Op: op, Path: path, Kind: KindUnavailable, Err: circuit.ErrOpen}
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	req, err := http.NewRequestWithContext(callCtx, method, u.String(), body)
	if err != nil {
		cancel()
		return nil, &Error{Op: op, Path: path, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err = c.http.Do(req)
	if err != nil {
		cancel()
		c.recordFailure()
		return nil, &Error{Op: op, Path: path, Kind: KindTransport, Err: err}
	}

	if resp.StatusCode >= 500 {
		c.recordFailure()
	} else {
		c.recordSuccess()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		status := resp.StatusCode
		return nil, &Error{Op: op, Path: path, Status: status, Kind: kindForStatus(status)}
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) recordFailure() {
	if change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("cms circuit opened", "breaker", c.breaker.Name())
		c.metrics.setCircuitOpen(true)
	}
}

func (c *Client) recordSuccess() {
	if change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("cms circuit closed", "breaker", c.breaker.Name())
		c.metrics.setCircuitOpen(false)
	}
}

func decode(r io.Reader, op, path string, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return &Error{Op: op, Path: path, Kind: KindDecode, Err: err}
	}
	return nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
