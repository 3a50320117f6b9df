// Package service relays uploads to the CMS media library and streams
// media back through the proxy.
package service

import (
	"context"
	"io"
	"log/slog"
	"net/url"

	"leadgate/internal/cms"
	"leadgate/internal/media/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/requestcontext"
)

// CMS is the subset of the CMS client the media relay needs.
type CMS interface {
	Upload(ctx context.Context, files ...cms.UploadFile) ([]cms.UploadedFile, error)
	Stream(ctx context.Context, path string) (*cms.Stream, error)
	BaseURL() *url.URL
}

type Service struct {
	cms    CMS
	logger *slog.Logger
}

func New(client CMS, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cms: client, logger: logger}
}

// Upload relays an accepted file and rewrites the returned URLs to proxy
// paths.
func (s *Service) Upload(ctx context.Context, up *models.Upload, content io.Reader) (*models.UploadedFile, error) {
	uploaded, err := s.cms.Upload(ctx, cms.UploadFile{
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Content:     content,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "cms upload failed",
			"filename", up.Filename,
			"size", up.Size,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "upload file")
	}
	if len(uploaded) == 0 {
		return nil, dErrors.New(dErrors.CodeUpstream, "cms upload returned no file")
	}

	host := s.cms.BaseURL().Host
	rec := uploaded[0]
	proxy, ok := models.ProxyURL(rec.URL, host)
	if !ok {
		s.logger.ErrorContext(ctx, "cms returned an unexpected media url", "url", rec.URL)
		return nil, dErrors.New(dErrors.CodeUpstream, "unexpected media url")
	}

	out := &models.UploadedFile{
		ID:          rec.ID,
		Name:        rec.Name,
		Original:    up.Original,
		URL:         proxy,
		ContentType: up.ContentType,
		Size:        up.Size,
	}
	for name, f := range rec.Formats {
		if p, ok := models.ProxyURL(f.URL, host); ok {
			if out.Formats == nil {
				out.Formats = make(map[string]string, len(rec.Formats))
			}
			out.Formats[name] = p
		}
	}

	s.logger.InfoContext(ctx, "file uploaded",
		"id", rec.ID,
		"filename", up.Filename,
		"content_type", up.ContentType,
		"size", up.Size,
	)
	return out, nil
}

// ResolveServeURL validates the url parameter of serve-file.
func (s *Service) ResolveServeURL(raw string) (string, bool) {
	return models.UpstreamPath(raw, s.cms.BaseURL().Host)
}

// Open streams the media at a validated CMS path. The caller closes the
// body.
func (s *Service) Open(ctx context.Context, path string) (*cms.Stream, error) {
	stream, err := s.cms.Stream(ctx, path)
	if err == nil {
		return stream, nil
	}
	if cms.IsNotFound(err) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Fichier introuvable.")
	}
	s.logger.ErrorContext(ctx, "cms media stream failed",
		"path", path,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "stream media")
}
