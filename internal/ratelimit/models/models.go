package models

import (
	"math"
	"slices"
	"time"
)

// Endpoint names a rate-limited API route family.
type Endpoint string

const (
	EndpointSendDevis      Endpoint = "send-devis"
	EndpointBlogs          Endpoint = "blogs"
	EndpointBlogDetail     Endpoint = "blog-detail"
	EndpointBlogCategories Endpoint = "blog-categories"
	EndpointUploadFile     Endpoint = "upload-file"
	EndpointServeFile      Endpoint = "serve-file"
	EndpointMedia          Endpoint = "media"
)

// Endpoints lists every rate-limited route family.
var Endpoints = []Endpoint{
	EndpointSendDevis, EndpointBlogs, EndpointBlogDetail, EndpointBlogCategories,
	EndpointUploadFile, EndpointServeFile, EndpointMedia,
}

func (e Endpoint) String() string {
	return string(e)
}

// ParseEndpoint accepts only the names in Endpoints.
func ParseEndpoint(s string) (Endpoint, bool) {
	e := Endpoint(s)
	return e, slices.Contains(Endpoints, e)
}

// Entry is the fixed-window counter stored per key.
type Entry struct {
	Count       int
	WindowStart time.Time
	Window      time.Duration
}

// ResetAt is the instant the current window closes.
func (e Entry) ResetAt() time.Time {
	return e.WindowStart.Add(e.Window)
}

// Expired reports whether now is past the window.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ResetAt())
}

// RateLimitResult is the verdict for one request.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// NewResult derives the verdict from the counter after the increment.
func NewResult(entry Entry, limit int, now time.Time) *RateLimitResult {
	allowed := entry.Count <= limit
	res := &RateLimitResult{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(limit-entry.Count, 0),
		ResetAt:   entry.ResetAt(),
	}
	if !allowed {
		res.RetryAfter = RetryAfterSeconds(res.ResetAt, now)
	}
	return res
}

// RetryAfterSeconds rounds up so clients never retry before the reset.
// Never less than 1.
func RetryAfterSeconds(resetAt, now time.Time) int {
	seconds := int(math.Ceil(resetAt.Sub(now).Seconds()))
	return max(seconds, 1)
}
