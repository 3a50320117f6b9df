package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"leadgate/internal/platform/config"
	"leadgate/internal/platform/database"
	"leadgate/internal/platform/kafka/producer"
	redisclient "leadgate/internal/platform/redis"
)

// infrastructure holds the optional backing services. Each field is nil when
// its URL is not configured.
type infrastructure struct {
	redis    *redisclient.Client
	db       *database.Pool
	producer *producer.Producer
}

func newInfrastructure(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer) (*infrastructure, error) {
	infra := &infrastructure{}

	rc, err := redisclient.New(ctx, cfg.Redis, reg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	infra.redis = rc
	if rc == nil {
		log.Warn("REDIS_URL not set, rate limits are per instance")
	}

	pool, err := database.New(ctx, database.DefaultConfig(cfg.Database.URL))
	if err != nil {
		infra.close(log)
		return nil, fmt.Errorf("connect database: %w", err)
	}
	infra.db = pool

	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			infra.close(log)
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		infra.producer = p
	}

	log.Info("infrastructure ready",
		"redis", infra.redis != nil,
		"postgres", infra.db != nil,
		"kafka", infra.producer != nil,
	)
	return infra, nil
}

func (i *infrastructure) close(log *slog.Logger) {
	if i.producer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := i.producer.Close(ctx); err != nil {
			log.Warn("kafka producer close", "error", err)
		}
	}
	if err := i.db.Close(); err != nil {
		log.Warn("database close", "error", err)
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("redis close", "error", err)
		}
	}
}

// poolStats samples Redis pool counters into Prometheus until ctx ends.
func poolStats(c *redisclient.Client, every time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				c.RecordPoolStats()
			}
		}
	}
}
