package publisher

import (
	"sync"

	"leadgate/internal/security/events/models"
)

// RingBuffer is a bounded FIFO that drops the oldest event when full.
type RingBuffer struct {
	mu      sync.Mutex
	items   []models.Event
	head    int
	size    int
	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{items: make([]models.Event, capacity)}
}

// Enqueue never blocks. It reports whether an older event was overwritten.
func (b *RingBuffer) Enqueue(e models.Event) (droppedOldest bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.items)
	if b.size == capacity {
		b.items[b.head] = e
		b.head = (b.head + 1) % capacity
		b.dropped++
		return true
	}
	b.items[(b.head+b.size)%capacity] = e
	b.size++
	return false
}

// DequeueBatch removes up to n events in arrival order.
func (b *RingBuffer) DequeueBatch(n int) []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = min(n, b.size)
	if n <= 0 {
		return nil
	}
	out := make([]models.Event, n)
	capacity := len(b.items)
	for i := range n {
		idx := (b.head + i) % capacity
		out[i] = b.items[idx]
		b.items[idx] = models.Event{}
	}
	b.head = (b.head + n) % capacity
	b.size -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Dropped returns the number of events overwritten since creation.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
