// Package memory keeps the most recent security events for the admin API.
package memory

import (
	"context"
	"sync"

	"leadgate/internal/security/events/models"
)

// Recent is a fixed-size ring of the latest events, newest last.
type Recent struct {
	mu     sync.RWMutex
	events []models.Event
	next   int
	full   bool
}

func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = models.MaxListLimit
	}
	return &Recent{events: make([]models.Event, capacity)}
}

func (r *Recent) Name() string { return "recent" }

func (r *Recent) Append(_ context.Context, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.events[r.next] = e
		r.next = (r.next + 1) % len(r.events)
		if r.next == 0 {
			r.full = true
		}
	}
	return nil
}

// List returns matching events, newest first.
func (r *Recent) List(_ context.Context, filter models.Filter) ([]models.Event, error) {
	filter = filter.Normalized()

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.events)
	}
	out := make([]models.Event, 0, min(filter.Limit, count))
	for i := 1; i <= count && len(out) < filter.Limit; i++ {
		e := r.events[(r.next-i+len(r.events))%len(r.events)]
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
