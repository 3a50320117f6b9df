package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"leadgate/internal/cms"
	"leadgate/internal/media/models"
	dErrors "leadgate/pkg/domain-errors"
)

type stubCMS struct {
	base      *url.URL
	uploaded  []cms.UploadedFile
	uploadErr error
	stream    *cms.Stream
	streamErr error
	gotFiles  []cms.UploadFile
	gotPath   string
}

func (s *stubCMS) Upload(_ context.Context, files ...cms.UploadFile) ([]cms.UploadedFile, error) {
	s.gotFiles = files
	return s.uploaded, s.uploadErr
}

func (s *stubCMS) Stream(_ context.Context, path string) (*cms.Stream, error) {
	s.gotPath = path
	return s.stream, s.streamErr
}

func (s *stubCMS) BaseURL() *url.URL { return s.base }

type ServiceSuite struct {
	suite.Suite
	cms     *stubCMS
	service *Service
	upload  *models.Upload
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.cms = &stubCMS{base: &url.URL{Scheme: "http", Host: "cms:1337"}}
	s.service = New(s.cms, nil)
	s.upload = &models.Upload{
		Original:    "Carte Grise.pdf",
		Filename:    "1700000000000_Carte_Grise.pdf",
		ContentType: "application/pdf",
		Size:        2048,
	}
}

func (s *ServiceSuite) TestUploadRewritesURLs() {
	s.cms.uploaded = []cms.UploadedFile{{
		ID:   42,
		Name: "1700000000000_Carte_Grise.pdf",
		URL:  "/uploads/carte_grise_abc.pdf",
		Formats: map[string]cms.UploadFormat{
			"thumbnail": {URL: "http://cms:1337/uploads/thumbnail_carte_grise_abc.png"},
			"foreign":   {URL: "https://evil.example/uploads/x.png"},
		},
	}}

	out, err := s.service.Upload(context.Background(), s.upload, strings.NewReader("%PDF-1.7"))

	s.Require().NoError(err)
	s.Equal(42, out.ID)
	s.Equal("Carte Grise.pdf", out.Original)
	s.Equal("/api/media/uploads/carte_grise_abc.pdf", out.URL)
	s.Equal(map[string]string{"thumbnail": "/api/media/uploads/thumbnail_carte_grise_abc.png"}, out.Formats)

	s.Require().Len(s.cms.gotFiles, 1)
	s.Equal("application/pdf", s.cms.gotFiles[0].ContentType)
	s.Equal(s.upload.Filename, s.cms.gotFiles[0].Filename)
}

func (s *ServiceSuite) TestUploadFailures() {
	s.Run("cms error is an upstream failure", func() {
		s.SetupTest()
		s.cms.uploadErr = &cms.Error{Op: "upload", Status: http.StatusBadGateway, Kind: cms.KindServer}

		_, err := s.service.Upload(context.Background(), s.upload, strings.NewReader("x"))

		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})

	s.Run("empty cms response", func() {
		s.SetupTest()

		_, err := s.service.Upload(context.Background(), s.upload, strings.NewReader("x"))

		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})

	s.Run("url outside uploads is refused", func() {
		s.SetupTest()
		s.cms.uploaded = []cms.UploadedFile{{ID: 1, URL: "/admin/secret.pdf"}}

		_, err := s.service.Upload(context.Background(), s.upload, strings.NewReader("x"))

		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})
}

func (s *ServiceSuite) TestResolveServeURL() {
	p, ok := s.service.ResolveServeURL("http://cms:1337/uploads/photo.jpg")
	s.True(ok)
	s.Equal("/uploads/photo.jpg", p)

	_, ok = s.service.ResolveServeURL("http://169.254.169.254/uploads/photo.jpg")
	s.False(ok)
}

func (s *ServiceSuite) TestOpen() {
	s.Run("streams the body", func() {
		s.SetupTest()
		s.cms.stream = &cms.Stream{Body: io.NopCloser(strings.NewReader("png")), ContentType: "image/png"}

		stream, err := s.service.Open(context.Background(), "/uploads/photo.png")

		s.Require().NoError(err)
		s.Equal("/uploads/photo.png", s.cms.gotPath)
		s.Equal("image/png", stream.ContentType)
	})

	s.Run("missing media is not found", func() {
		s.SetupTest()
		s.cms.streamErr = &cms.Error{Op: "stream", Status: http.StatusNotFound, Kind: cms.KindNotFound}

		_, err := s.service.Open(context.Background(), "/uploads/gone.png")

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("transport failure is upstream", func() {
		s.SetupTest()
		s.cms.streamErr = &cms.Error{Op: "stream", Kind: cms.KindTransport, Err: errors.New("connection reset")}

		_, err := s.service.Open(context.Background(), "/uploads/photo.png")

		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	})
}
