// Package models defines the security event record shared by the event
// logger, its sinks and the admin read API.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Type names a detected request condition.
type Type string

const (
	TypeRateLimitExceeded     Type = "RATE_LIMIT_EXCEEDED"
	TypeAttackPatternDetected Type = "ATTACK_PATTERN_DETECTED"
	TypeSuspiciousUserAgent   Type = "SUSPICIOUS_USER_AGENT"
	TypeSuspiciousSlugAccess  Type = "SUSPICIOUS_SLUG_ACCESS"
	TypeSuspiciousSearchQuery Type = "SUSPICIOUS_SEARCH_QUERY"
	TypeFileUploadRejected    Type = "FILE_UPLOAD_REJECTED"
	TypeInvalidParameter      Type = "INVALID_PARAMETER"
	TypeAPIError              Type = "API_ERROR"
	TypeSlowRequest           Type = "SLOW_REQUEST"
	TypeCORSOriginRejected    Type = "CORS_ORIGIN_REJECTED"
	TypeAdminAuthFailed       Type = "ADMIN_AUTH_FAILED"
)

var knownTypes = map[Type]struct{}{
	TypeRateLimitExceeded:     {},
	TypeAttackPatternDetected: {},
	TypeSuspiciousUserAgent:   {},
	TypeSuspiciousSlugAccess:  {},
	TypeSuspiciousSearchQuery: {},
	TypeFileUploadRejected:    {},
	TypeInvalidParameter:      {},
	TypeAPIError:              {},
	TypeSlowRequest:           {},
	TypeCORSOriginRejected:    {},
	TypeAdminAuthFailed:       {},
}

// IsValid reports whether t is one of the declared event types.
func (t Type) IsValid() bool {
	_, ok := knownTypes[t]
	return ok
}

func (t Type) String() string {
	return string(t)
}

// Event is immutable once built by NewEvent.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       Type           `json:"type"`
	OccurredAt time.Time      `json:"timestamp"`
	ClientIP   string         `json:"clientIP"`
	UserAgent  string         `json:"userAgent,omitempty"`
	Method     string         `json:"method,omitempty"`
	Path       string         `json:"path,omitempty"`
	RequestID  string         `json:"requestId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewEvent stamps a fresh id and copies metadata so later caller mutation
// cannot alter the recorded event.
func NewEvent(t Type, occurredAt time.Time, metadata map[string]any) Event {
	var md map[string]any
	if len(metadata) > 0 {
		md = make(map[string]any, len(metadata))
		for k, v := range metadata {
			md[k] = v
		}
	}
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: occurredAt.UTC(),
		Metadata:   md,
	}
}

// Filter selects events for the admin read API. A zero Type matches all types.
type Filter struct {
	Type  Type
	Limit int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Normalized clamps Limit into [1, MaxListLimit].
func (f Filter) Normalized() Filter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	return f
}

// Matches reports whether e passes the type filter.
func (f Filter) Matches(e Event) bool {
	return f.Type == "" || f.Type == e.Type
}
