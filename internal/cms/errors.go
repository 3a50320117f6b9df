package cms

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies CMS failures so callers can decide on retries.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindClient      Kind = "client"
	KindServer      Kind = "server"
	KindTransport   Kind = "transport"
	KindUnavailable Kind = "unavailable" // circuit open
	KindDecode      Kind = "decode"
)

// Error is returned for every failed CMS call.
type Error struct {
	Op     string
	Path   string
	Status int
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cms %s %s: status %d (%s)", e.Op, e.Path, e.Status, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("cms %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("cms %s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the call may succeed if repeated: transport
// failures and 5xx only.
func (e *Error) Retryable() bool {
	return e.Kind == KindServer || e.Kind == KindTransport
}

// IsNotFound reports whether err is a CMS 404.
func IsNotFound(err error) bool {
	var cmsErr *Error
	return errors.As(err, &cmsErr) && cmsErr.Kind == KindNotFound
}

// IsRetryable reports whether err is a retryable CMS error.
func IsRetryable(err error) bool {
	var cmsErr *Error
	return errors.As(err, &cmsErr) && cmsErr.Retryable()
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}
