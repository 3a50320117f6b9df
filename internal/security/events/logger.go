// Package events records security-relevant request conditions.
//
// Logger.Log writes a structured slog record immediately and hands the event
// to an async publisher that fans out to the durable sinks. It never blocks on
// sink I/O and never panics into the caller.
package events

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"leadgate/internal/security/events/models"
	"leadgate/pkg/requestcontext"
)

// Emitter accepts events for asynchronous delivery.
type Emitter interface {
	Emit(event models.Event)
}

// Logger is safe for concurrent use. A nil *Logger discards events.
type Logger struct {
	logger  *slog.Logger
	emitter Emitter
	total   *prometheus.CounterVec
}

// Option configures the Logger.
type Option func(*Logger)

func WithEmitter(e Emitter) Option {
	return func(l *Logger) {
		l.emitter = e
	}
}

// WithRegisterer exposes leadgate_security_events_total by type.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Logger) {
		l.total = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_security_events_total",
			Help: "Security events recorded, by type",
		}, []string{"type"})
	}
}

func NewLogger(logger *slog.Logger, opts ...Option) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Logger{logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records an event of type t. r may be nil for events raised outside a
// request; client details then come from ctx only.
func (l *Logger) Log(ctx context.Context, t models.Type, metadata map[string]any, r *http.Request) {
	if l == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("security event logging failed", "type", t, "panic", rec)
		}
	}()

	event := models.NewEvent(t, requestcontext.Now(ctx), metadata)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if r != nil {
		event.Method = r.Method
		event.Path = r.URL.Path
		if event.UserAgent == "" {
			event.UserAgent = r.UserAgent()
		}
	}

	l.logger.LogAttrs(ctx, levelFor(t), "security event",
		slog.String("event_id", event.ID.String()),
		slog.String("type", string(t)),
		slog.String("client_ip", event.ClientIP),
		slog.String("user_agent", event.UserAgent),
		slog.String("method", event.Method),
		slog.String("path", event.Path),
		slog.String("request_id", event.RequestID),
		slog.Any("metadata", event.Metadata),
	)

	if l.total != nil {
		l.total.WithLabelValues(string(t)).Inc()
	}
	if l.emitter != nil {
		l.emitter.Emit(event)
	}
}

func levelFor(t models.Type) slog.Level {
	if t == models.TypeSlowRequest {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}
