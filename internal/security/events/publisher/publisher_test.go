package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"leadgate/internal/security/events/models"
)

type recordingSink struct {
	mu       sync.Mutex
	name     string
	failures int
	calls    int
	events   []models.Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Append(_ context.Context, events []models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *recordingSink) snapshot() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Event(nil), s.events...)
}

func newEvent(path string) models.Event {
	e := models.NewEvent(models.TypeAttackPatternDetected, time.Now(), nil)
	e.Path = path
	return e
}

func TestRingBuffer(t *testing.T) {
	t.Run("fifo order", func(t *testing.T) {
		b := NewRingBuffer(3)
		b.Enqueue(newEvent("/a"))
		b.Enqueue(newEvent("/b"))

		batch := b.DequeueBatch(10)
		require.Len(t, batch, 2)
		assert.Equal(t, "/a", batch[0].Path)
		assert.Equal(t, "/b", batch[1].Path)
		assert.Zero(t, b.Len())
	})

	t.Run("drops oldest when full", func(t *testing.T) {
		b := NewRingBuffer(2)
		assert.False(t, b.Enqueue(newEvent("/1")))
		assert.False(t, b.Enqueue(newEvent("/2")))
		assert.True(t, b.Enqueue(newEvent("/3")))

		batch := b.DequeueBatch(2)
		require.Len(t, batch, 2)
		assert.Equal(t, "/2", batch[0].Path)
		assert.Equal(t, "/3", batch[1].Path)
		assert.Equal(t, int64(1), b.Dropped())
	})

	t.Run("wraps around", func(t *testing.T) {
		b := NewRingBuffer(3)
		b.Enqueue(newEvent("/1"))
		b.Enqueue(newEvent("/2"))
		b.DequeueBatch(1)
		b.Enqueue(newEvent("/3"))
		b.Enqueue(newEvent("/4"))

		batch := b.DequeueBatch(5)
		require.Len(t, batch, 3)
		assert.Equal(t, []string{"/2", "/3", "/4"}, []string{batch[0].Path, batch[1].Path, batch[2].Path})
	})
}

type PublisherSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *PublisherSuite) newPublisher(sinks ...Sink) *Publisher {
	return New(sinks,
		WithLogger(s.logger),
		WithMetrics(NewMetrics(prometheus.NewRegistry())),
		WithFlushInterval(time.Hour),
		WithRetryBackoff(time.Millisecond),
		WithMaxAttempts(3),
	)
}

func (s *PublisherSuite) TestFlushDeliversToEverySink() {
	file := &recordingSink{name: "file"}
	recent := &recordingSink{name: "recent"}
	p := s.newPublisher(file, recent)
	defer func() { s.NoError(p.Close(context.Background())) }()

	p.Emit(newEvent("/wp-admin"))
	p.Emit(newEvent("/.env"))
	p.Flush(context.Background())

	s.Len(file.snapshot(), 2)
	s.Len(recent.snapshot(), 2)
	s.Equal(int64(4), p.Stats().Flushed)
}

func (s *PublisherSuite) TestRetriesTransientSinkFailure() {
	flaky := &recordingSink{name: "postgres", failures: 2}
	p := s.newPublisher(flaky)
	defer func() { s.NoError(p.Close(context.Background())) }()

	p.Emit(newEvent("/etc/passwd"))
	p.Flush(context.Background())

	s.Len(flaky.snapshot(), 1)
	s.Equal(3, flaky.calls)
	s.Equal(int64(2), p.Stats().Retries)
}

func (s *PublisherSuite) TestFailingSinkDoesNotStarveOthers() {
	broken := &recordingSink{name: "postgres", failures: 100}
	file := &recordingSink{name: "file"}
	p := s.newPublisher(broken, file)
	defer func() { s.NoError(p.Close(context.Background())) }()

	p.Emit(newEvent("/phpmyadmin"))
	p.Flush(context.Background())

	s.Empty(broken.snapshot())
	s.Len(file.snapshot(), 1)
	s.Equal(int64(1), p.Stats().DroppedAfterRetry)
}

func (s *PublisherSuite) TestCloseDrainsBuffer() {
	sink := &recordingSink{name: "file"}
	p := New([]Sink{sink}, WithLogger(s.logger), WithFlushInterval(time.Hour), WithBatchSize(2))

	for range 5 {
		p.Emit(newEvent("/x"))
	}
	s.Require().NoError(p.Close(context.Background()))

	s.Len(sink.snapshot(), 5)

	p.Emit(newEvent("/after-close"))
	s.Zero(p.Stats().Queued)
}

func (s *PublisherSuite) TestBackgroundFlush() {
	sink := &recordingSink{name: "file"}
	p := New([]Sink{sink}, WithLogger(s.logger), WithFlushInterval(5*time.Millisecond))
	defer func() { s.NoError(p.Close(context.Background())) }()

	p.Emit(newEvent("/cgi-bin"))

	s.Eventually(func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}
