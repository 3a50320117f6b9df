//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadgate/internal/ratelimit/store/redis"
	"leadgate/pkg/testutil"
	"leadgate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *redis.Store
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = redis.New(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestIncrementCountsWithinWindow() {
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 3; i++ {
		e, err := s.store.Increment(ctx, "rl:blogs:abc", time.Minute, now)
		s.Require().NoError(err)
		s.Equal(i, e.Count)
		s.WithinDuration(now.Add(time.Minute), e.ResetAt(), 2*time.Second)
	}

	ttl := s.redis.Client.PTTL(ctx, "rl:blogs:abc").Val()
	s.Greater(ttl, 50*time.Second)
}

func (s *RedisStoreSuite) TestWindowExpires() {
	ctx := context.Background()

	_, err := s.store.Increment(ctx, "rl:send-devis:abc", 200*time.Millisecond, time.Now())
	s.Require().NoError(err)

	s.Eventually(func() bool {
		got, err := s.store.Get(ctx, "rl:send-devis:abc", time.Now())
		return err == nil && got == nil
	}, 2*time.Second, 50*time.Millisecond)

	e, err := s.store.Increment(ctx, "rl:send-devis:abc", time.Minute, time.Now())
	s.Require().NoError(err)
	s.Equal(1, e.Count)
}

func (s *RedisStoreSuite) TestGetAndReset() {
	ctx := context.Background()

	got, err := s.store.Get(ctx, "rl:media:abc", time.Now())
	s.Require().NoError(err)
	s.Nil(got)

	_, err = s.store.Increment(ctx, "rl:media:abc", time.Minute, time.Now())
	s.Require().NoError(err)

	got, err = s.store.Get(ctx, "rl:media:abc", time.Now())
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(1, got.Count)

	s.Require().NoError(s.store.Reset(ctx, "rl:media:abc"))
	got, err = s.store.Get(ctx, "rl:media:abc", time.Now())
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *RedisStoreSuite) TestConcurrentIncrementsAreAtomic() {
	ctx := context.Background()

	res := testutil.Burst(ctx, 50, func(ctx context.Context, _ int) error {
		_, err := s.store.Increment(ctx, "rl:blogs:shared", time.Minute, time.Now())
		return err
	})
	s.Zero(res.Failed, "first error: %v", res.FirstErr)

	s.Equal("50", s.redis.Client.Get(ctx, "rl:blogs:shared").Val())
}
