package models

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// KeyPrefix namespaces rate-limit keys in shared stores.
const KeyPrefix = "rl"

// RateLimitKey is a value object encapsulating rate limit key construction.
// The client identity is hashed so raw IPs never reach the store.
type RateLimitKey struct {
	identity string
	endpoint Endpoint
}

// NewRateLimitKey builds the composite client-identity + endpoint key.
func NewRateLimitKey(identity string, endpoint Endpoint) RateLimitKey {
	return RateLimitKey{
		identity: hashIdentity(identity),
		endpoint: endpoint,
	}
}

// String returns the formatted key for storage lookup.
func (k RateLimitKey) String() string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, sanitizeKeySegment(string(k.endpoint)), k.identity)
}

func (k RateLimitKey) Endpoint() Endpoint {
	return k.endpoint
}

func hashIdentity(identity string) string {
	sum := blake2b.Sum256([]byte(strings.TrimSpace(identity)))
	return hex.EncodeToString(sum[:16])
}

// sanitizeKeySegment escapes delimiter characters so an endpoint name
// containing ':' cannot address another bucket.
//
// Escape rules (order matters):
//  1. Escape '_' to '__'
//  2. Escape ':' to '_c'
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
