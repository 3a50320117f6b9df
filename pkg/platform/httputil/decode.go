package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "leadgate/pkg/domain-errors"
)

const (
	MessageMalformedBody = "Le format de la requête est invalide."
	MessageEmptyBody     = "Le corps de la requête est vide."
)

// DecodeJSON reads exactly one JSON value from the body into a new T. On
// failure the error envelope is already written and ok is false: 413 when
// the body tripped a MaxBytesReader, 400 otherwise.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	err := decodeSingle(r.Body, &req)
	if err == nil {
		return &req, true
	}

	logger.WarnContext(ctx, "request body rejected",
		"error", err,
		"request_id", requestID,
	)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge, ""))
	case errors.Is(err, io.EOF):
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, MessageEmptyBody))
	default:
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, MessageMalformedBody))
	}
	return nil, false
}

var errTrailingData = errors.New("trailing data after json value")

func decodeSingle(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errTrailingData
	}
	return nil
}

type Normalizable interface {
	Normalize()
}

type Validatable interface {
	Validate() error
}

// PrepareRequest normalizes then validates req. A plain error from Validate
// becomes a CodeValidation domain error carrying its text.
func PrepareRequest(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	v, ok := req.(Validatable)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.New(dErrors.CodeValidation, err.Error())
}
