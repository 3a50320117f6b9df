// Package memory is the in-process fixed-window store. Counters are not
// shared between instances, so it is only correct for a single-instance
// deployment; use the redis store behind a load balancer.
package memory

import (
	"context"
	"sync"
	"time"

	"leadgate/internal/ratelimit/models"
)

type Store struct {
	mu      sync.Mutex
	entries map[string]models.Entry
}

func New() *Store {
	return &Store{entries: make(map[string]models.Entry)}
}

// Get returns the live entry for key, or nil when absent or expired.
func (s *Store) Get(_ context.Context, key string, now time.Time) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.Expired(now) {
		return nil, nil
	}
	return &e, nil
}

// Increment starts a new window when none is live, otherwise bumps the count.
func (s *Store) Increment(_ context.Context, key string, window time.Duration, now time.Time) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.Expired(now) {
		e = models.Entry{Count: 0, WindowStart: now, Window: window}
	}
	e.Count++
	s.entries[key] = e
	return e, nil
}

func (s *Store) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *Store) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked keys, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
