package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "leadgate/pkg/domain-errors"
)

// Generic user-facing messages. Technical details never leave the logs.
const (
	MessageInternal    = "Une erreur technique est survenue. Veuillez réessayer plus tard."
	MessageBadRequest  = "Requête invalide."
	MessageNotFound    = "Ressource introuvable."
	MessageRateLimited = "Trop de requêtes. Veuillez réessayer plus tard."
	MessageTooLarge    = "Le contenu envoyé est trop volumineux."
)

// codeView is how one domain code is rendered on the wire. typ feeds the
// envelope "type" the submission client switches on. fallback replaces an
// empty Message, and always wins when verbatim is unset.
type codeView struct {
	status   int
	name     string
	typ      string
	fallback string
	verbatim bool
}

// Upstream and internal failures share the opaque 500.
var codeViews = map[dErrors.Code]codeView{
	dErrors.CodeBadRequest:      {http.StatusBadRequest, "bad_request", "validation_error", MessageBadRequest, true},
	dErrors.CodeValidation:      {http.StatusBadRequest, "validation_error", "validation_error", MessageBadRequest, true},
	dErrors.CodeNotFound:        {http.StatusNotFound, "not_found", "", MessageNotFound, true},
	dErrors.CodeRateLimited:     {http.StatusTooManyRequests, "rate_limited", "rate_limit", MessageRateLimited, true},
	dErrors.CodePayloadTooLarge: {http.StatusRequestEntityTooLarge, "payload_too_large", "", MessageTooLarge, true},
	dErrors.CodeUpstream:        {http.StatusInternalServerError, "internal_error", "", MessageInternal, false},
	dErrors.CodeInternal:        {http.StatusInternalServerError, "internal_error", "", MessageInternal, false},
}

func viewOf(code dErrors.Code) codeView {
	if v, ok := codeViews[code]; ok {
		return v
	}
	return codeViews[dErrors.CodeInternal]
}

// ErrorResponse is the failure envelope shared by every public endpoint.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	Type       string `json:"type,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError renders err as the French envelope. Client-side messages are
// surfaced verbatim; internal and upstream failures collapse to
// MessageInternal.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = &dErrors.Error{Code: dErrors.CodeInternal}
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
		Message: UserMessage(domainErr),
		Error:   DomainCodeToHTTPCode(domainErr.Code),
		Type:    ErrorType(domainErr.Code),
	})
}

func DomainCodeToHTTPStatus(code dErrors.Code) int { return viewOf(code).status }

// DomainCodeToHTTPCode is the machine-readable "error" field.
func DomainCodeToHTTPCode(code dErrors.Code) string { return viewOf(code).name }

func ErrorType(code dErrors.Code) string { return viewOf(code).typ }

// UserMessage picks the French message shown to the caller.
func UserMessage(e *dErrors.Error) string {
	v := viewOf(e.Code)
	if v.verbatim && e.Message != "" {
		return e.Message
	}
	return v.fallback
}
