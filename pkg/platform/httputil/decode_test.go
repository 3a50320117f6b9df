package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	dErrors "leadgate/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactRequest struct {
	Prenom string `json:"prenom"`
	Age    int    `json:"age"`
}

// plainRequest fails validation with a plain error.
type plainRequest struct {
	Prenom     string `json:"prenom"`
	normalized bool
}

func (r *plainRequest) Normalize() {
	r.normalized = true
	r.Prenom = strings.TrimSpace(r.Prenom)
}

func (r *plainRequest) Validate() error {
	if r.Prenom == "" {
		return errors.New("Le prénom est requis.")
	}
	return nil
}

// domainRequest fails validation with a domain error.
type domainRequest struct {
	FormType string `json:"formType"`
}

func (r *domainRequest) Validate() error {
	if r.FormType == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Type de formulaire manquant.")
	}
	return nil
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("successful decode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"prenom":"Awa","age":42}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[contactRequest](w, req, logger, ctx, "req-1")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "Awa", result.Prenom)
		assert.Equal(t, 42, result.Age)
	})

	t.Run("invalid JSON returns validation envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{invalid json}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[contactRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeEnvelope(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "bad_request", resp.Error)
		assert.Equal(t, "validation_error", resp.Type)
	})

	t.Run("empty body has its own message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(""))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[contactRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, MessageEmptyBody, decodeEnvelope(t, w).Message)
	})

	t.Run("trailing data after the object is malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"prenom":"Awa"}{"prenom":"Eve"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[contactRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, MessageMalformedBody, decodeEnvelope(t, w).Message)
	})

	t.Run("trailing whitespace is fine", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{\"prenom\":\"Awa\"}\n  "))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[contactRequest](w, req, logger, ctx, "req-1")

		assert.True(t, ok)
	})

	t.Run("oversized body returns 413", func(t *testing.T) {
		body := fmt.Sprintf(`{"prenom":%q}`, strings.Repeat("a", 100))
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(w, req.Body, 16)

		_, ok := DecodeJSON[contactRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, MessageTooLarge, decodeEnvelope(t, w).Message)
	})
}

func TestPrepareRequest(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		req := &plainRequest{Prenom: "  Awa "}

		require.NoError(t, PrepareRequest(req))
		assert.True(t, req.normalized)
		assert.Equal(t, "Awa", req.Prenom)
	})

	t.Run("plain error becomes a validation error", func(t *testing.T) {
		err := PrepareRequest(&plainRequest{Prenom: "   "})

		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		w := httptest.NewRecorder()
		WriteError(w, err)
		assert.Equal(t, "Le prénom est requis.", decodeEnvelope(t, w).Message)
	})

	t.Run("domain error keeps its code", func(t *testing.T) {
		err := PrepareRequest(&domainRequest{})

		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("types without hooks pass through", func(t *testing.T) {
		assert.NoError(t, PrepareRequest(&contactRequest{}))
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantType    string
	}{
		{
			name:        "rate limited",
			err:         dErrors.New(dErrors.CodeRateLimited, ""),
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: MessageRateLimited,
			wantType:    "rate_limit",
		},
		{
			name:        "upstream failure hides the detail",
			err:         dErrors.New(dErrors.CodeUpstream, "strapi returned 503 at http://cms.internal"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageInternal,
		},
		{
			name:        "not found keeps its message",
			err:         dErrors.New(dErrors.CodeNotFound, "Article introuvable."),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Article introuvable.",
		},
		{
			name:        "oversized upload keeps its message",
			err:         dErrors.New(dErrors.CodePayloadTooLarge, "Le fichier dépasse la taille maximale de 10 Mo."),
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantMessage: "Le fichier dépasse la taille maximale de 10 Mo.",
		},
		{
			name:        "wrapped upstream error stays opaque",
			err:         dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeUpstream, "fetch blog"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageInternal,
		},
		{
			name:        "non-domain error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			resp := decodeEnvelope(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.wantType, resp.Type)
		})
	}
}
