package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"leadgate/internal/cms"
	contenthandler "leadgate/internal/content/handler"
	contentservice "leadgate/internal/content/service"
	leadhandler "leadgate/internal/lead/handler"
	leadmetrics "leadgate/internal/lead/metrics"
	"leadgate/internal/lead/notify"
	leadservice "leadgate/internal/lead/service"
	mediahandler "leadgate/internal/media/handler"
	mediaservice "leadgate/internal/media/service"
	"leadgate/internal/platform/config"
	"leadgate/internal/platform/health"
	"leadgate/internal/platform/kafka"
	ratelimitconfig "leadgate/internal/ratelimit/config"
	ratelimitmetrics "leadgate/internal/ratelimit/metrics"
	ratelimithandler "leadgate/internal/ratelimit/handler"
	ratelimitmw "leadgate/internal/ratelimit/middleware"
	ratelimitservice "leadgate/internal/ratelimit/service"
	ratelimitmemory "leadgate/internal/ratelimit/store/memory"
	ratelimitredis "leadgate/internal/ratelimit/store/redis"
	"leadgate/internal/ratelimit/workers/cleanup"
	"leadgate/internal/security/events"
	eventshandler "leadgate/internal/security/events/handler"
	"leadgate/internal/security/events/publisher"
	"leadgate/internal/security/events/store/jsonl"
	eventsmemory "leadgate/internal/security/events/store/memory"
	eventspostgres "leadgate/internal/security/events/store/postgres"
	"leadgate/internal/security/guard"
	"leadgate/pkg/platform/middleware/metadata"
	"leadgate/pkg/platform/middleware/request"
	"leadgate/pkg/platform/tracer"
)

const recentEventsCapacity = 1000

// application is the assembled service graph handed to the router.
type application struct {
	publisher *publisher.Publisher
	events    *events.Logger

	guard          *guard.Guard
	clientMetadata *metadata.Middleware
	requestMetrics *request.Metrics
	rateLimit      *ratelimitmw.Middleware

	lead           *leadhandler.Handler
	content        *contenthandler.Handler
	media          *mediahandler.Handler
	securityEvents *eventshandler.Handler
	rateLimitAdmin *ratelimithandler.Handler

	// workers run until the server context ends.
	workers []func(context.Context) error
}

func newApplication(cfg config.Server, log *slog.Logger, reg prometheus.Registerer, infra *infrastructure, checks *health.Handler) (*application, error) {
	app := &application{}

	// Security events: every sink gets every event; the admin API reads from
	// Postgres when configured, else from the in-memory ring.
	recent := eventsmemory.NewRecent(recentEventsCapacity)
	sinks := []publisher.Sink{recent}
	var reader eventshandler.Reader = recent
	if cfg.Security.EventsFile != "" {
		file, err := jsonl.New(cfg.Security.EventsFile)
		if err != nil {
			return nil, fmt.Errorf("open security events file: %w", err)
		}
		sinks = append(sinks, file)
	}
	if infra.db != nil {
		pg := eventspostgres.New(infra.db.DB())
		sinks = append(sinks, pg)
		reader = pg
		checks.RegisterCheck("postgres", infra.db.Health)
	}
	app.publisher = publisher.New(sinks,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)
	app.events = events.NewLogger(log,
		events.WithEmitter(app.publisher),
		events.WithRegisterer(reg),
	)
	app.securityEvents = eventshandler.New(reader, log)

	app.guard = guard.New(guard.Config{
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins(),
		SlowThreshold:  cfg.Security.SlowRequestThreshold,
	}, app.events, log, guard.WithMetrics(guard.NewMetrics(reg)))
	app.clientMetadata = metadata.NewMiddleware(&metadata.Config{
		TrustedProxies: cfg.Security.TrustedProxies,
	})
	app.requestMetrics = request.NewMetrics(reg)

	// Rate limiting
	rlMetrics := ratelimitmetrics.New(reg)
	var store ratelimitservice.Store
	if infra.redis != nil {
		store = ratelimitredis.New(infra.redis.Client)
		checks.RegisterCheck("redis", infra.redis.Health)
		app.workers = append(app.workers, poolStats(infra.redis, 15*time.Second))
	} else {
		mem := ratelimitmemory.New()
		store = mem
		sweeper := cleanup.New(mem,
			cleanup.WithLogger(log),
			cleanup.WithMetrics(rlMetrics),
		)
		app.workers = append(app.workers, sweeper.Start)
	}
	limiter, err := ratelimitservice.New(store,
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithConfig(rateLimitConfig(cfg.RateLimits)),
		ratelimitservice.WithMetrics(rlMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}
	app.rateLimit = ratelimitmw.New(limiter, log, app.events)
	app.rateLimitAdmin = ratelimithandler.New(limiter, log)

	// CMS
	client, err := cms.New(cms.Config{
		BaseURL: cfg.CMS.BaseURL,
		Token:   cfg.CMS.APIToken,
		Timeout: cfg.CMS.Timeout,
	},
		cms.WithLogger(log),
		cms.WithMetrics(cms.NewMetrics(reg)),
		cms.WithTracer(tracer.NewOTel("leadgate/cms")),
	)
	if err != nil {
		return nil, fmt.Errorf("create cms client: %w", err)
	}
	checks.RegisterCheck("cms", client.Ping)

	// Leads
	var notifier leadservice.Notifier = notify.NewLogNotifier(log)
	if infra.producer != nil {
		notifier = notify.NewKafkaNotifier(infra.producer, cfg.Kafka.LeadTopic)
		kc := kafka.NewHealthChecker(infra.producer.Client())
		checks.RegisterCheck(kc.Name(), kc.Check)
	}
	leads := leadservice.New(client, notifier,
		leadservice.WithLogger(log),
		leadservice.WithMetrics(leadmetrics.New(reg)),
		leadservice.WithEvents(app.events),
		leadservice.WithStrictMapping(cfg.StrictLeadMapping),
	)
	app.lead = leadhandler.New(leads, log, app.events)

	app.content = contenthandler.New(contentservice.New(client, contentservice.WithLogger(log)), log, app.events)
	app.media = mediahandler.New(mediaservice.New(client, log), log, app.events)

	return app, nil
}

// close drains queued security events.
func (a *application) close(timeout time.Duration, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.publisher.Close(ctx); err != nil {
		log.Warn("security event publisher close", "error", err)
	}
}

// rateLimitConfig applies the YAML overrides to the endpoint defaults.
func rateLimitConfig(overrides map[string]config.RateLimit) *ratelimitconfig.Config {
	limits := make(map[string]ratelimitconfig.Limit, len(overrides))
	for endpoint, rl := range overrides {
		limits[endpoint] = ratelimitconfig.Limit{
			RequestsPerWindow: rl.Limit,
			Window:            rl.Window,
		}
	}
	return ratelimitconfig.DefaultConfig().WithOverrides(limits)
}
