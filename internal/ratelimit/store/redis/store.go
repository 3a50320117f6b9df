// Package redis is the shared fixed-window store. Every instance behind the
// load balancer counts against the same key, so limits hold globally.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"leadgate/internal/ratelimit/models"
)

// incrementScript bumps the counter and arms the expiry on the first hit of
// a window. A key left without TTL (expiry lost) is re-armed.
var incrementScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type Store struct {
	client goredis.Cmdable
}

func New(client goredis.Cmdable) *Store {
	return &Store{client: client}
}

// Get returns the live entry for key, or nil when absent.
func (s *Store) Get(ctx context.Context, key string, now time.Time) (*models.Entry, error) {
	pipe := s.client.Pipeline()
	countCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("get rate limit entry: %w", err)
	}

	count, err := countCmd.Int()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse rate limit count: %w", err)
	}
	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return nil, nil
	}
	// The window length is not stored; report the remaining part only.
	return &models.Entry{Count: count, WindowStart: now, Window: ttl}, nil
}

// Increment counts one request against key in a window of the given length.
// The window start is derived from the remaining TTL.
func (s *Store) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (models.Entry, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return models.Entry{}, fmt.Errorf("increment rate limit entry: %w", err)
	}
	if len(res) != 2 {
		return models.Entry{}, fmt.Errorf("increment rate limit entry: unexpected reply %v", res)
	}

	remaining := time.Duration(res[1]) * time.Millisecond
	return models.Entry{
		Count:       int(res[0]),
		WindowStart: now.Add(remaining - window),
		Window:      window,
	}, nil
}

func (s *Store) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset rate limit entry: %w", err)
	}
	return nil
}
