package repository

import (
	"context"
	"testing"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RedisRepositoryTestSuite проверяет кеш настроек налога и блокировку на miniredis
type RedisRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	cache     TaxCache
	lock      LockRepository
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

func (s *RedisRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.cache = NewTaxCache(s.client, 10*time.Minute)
	s.lock = NewLockRepository(s.client)
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *RedisRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===== TaxCache Tests =====

func (s *RedisRepositoryTestSuite) TestTaxCache_MissThenHit() {
	ctx := context.Background()

	_, err := s.cache.Get(ctx)
	s.ErrorIs(err, ErrCacheMiss)

	threshold := 150.0
	tax := &entity.TaxNShipping{TaxRate: 0.2, ShippingRate: 9.5, FreeShippingThreshold: &threshold, Version: 4}
	s.NoError(s.cache.Set(ctx, tax))

	cached, err := s.cache.Get(ctx)
	s.NoError(err)
	s.Equal(0.2, cached.TaxRate)
	s.Equal(9.5, cached.ShippingRate)
	s.Equal(int64(4), cached.Version)
	s.Require().NotNil(cached.FreeShippingThreshold)
	s.Equal(150.0, *cached.FreeShippingThreshold)
}

func (s *RedisRepositoryTestSuite) TestTaxCache_SetAppliesTTL() {
	ctx := context.Background()

	s.NoError(s.cache.Set(ctx, &entity.TaxNShipping{TaxRate: 0.1}))

	s.Equal(10*time.Minute, s.miniRedis.TTL(taxCacheKey))

	s.miniRedis.FastForward(11 * time.Minute)
	_, err := s.cache.Get(ctx)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *RedisRepositoryTestSuite) TestTaxCache_Invalidate() {
	ctx := context.Background()

	s.NoError(s.cache.Set(ctx, &entity.TaxNShipping{TaxRate: 0.1}))
	s.NoError(s.cache.Invalidate(ctx))

	_, err := s.cache.Get(ctx)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *RedisRepositoryTestSuite) TestTaxCache_StaleSetIgnored() {
	ctx := context.Background()

	s.NoError(s.cache.Set(ctx, &entity.TaxNShipping{TaxRate: 0.25, Version: 2}))
	s.NoError(s.cache.Set(ctx, &entity.TaxNShipping{TaxRate: 0.1, Version: 1}))

	cached, err := s.cache.Get(ctx)
	s.NoError(err)
	s.Equal(int64(2), cached.Version)
	s.Equal(0.25, cached.TaxRate)
}

func (s *RedisRepositoryTestSuite) TestTaxCache_SameVersionRefreshesTTL() {
	ctx := context.Background()

	s.NoError(s.cache.Set(ctx, &entity.TaxNShipping{TaxRate: 0.25, Version: 2}))
	s.miniRedis.FastForward(9 * time.Minute)
	s.NoError(s.cache.Set(ctx, &entity.TaxNShipping{TaxRate: 0.25, Version: 2}))

	s.Equal(10*time.Minute, s.miniRedis.TTL(taxCacheKey))
}

func (s *RedisRepositoryTestSuite) TestTaxCache_CorruptedValue() {
	ctx := context.Background()
	s.miniRedis.HSet(taxCacheKey, "version", "1", "data", "not-json")

	_, err := s.cache.Get(ctx)
	s.Error(err)
	s.NotErrorIs(err, ErrCacheMiss)
}

// ===== Lock Tests =====

func (s *RedisRepositoryTestSuite) TestLock_SecondAcquireFails() {
	ctx := context.Background()

	token, ok, err := s.lock.Acquire(ctx, "lock:test", time.Minute)
	s.NoError(err)
	s.True(ok)
	s.NotEmpty(token)

	_, ok, err = s.lock.Acquire(ctx, "lock:test", time.Minute)
	s.NoError(err)
	s.False(ok)
}

func (s *RedisRepositoryTestSuite) TestLock_ReleaseAllowsReacquire() {
	ctx := context.Background()

	token, ok, err := s.lock.Acquire(ctx, "lock:test", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.NoError(s.lock.Release(ctx, "lock:test", token))

	_, ok, err = s.lock.Acquire(ctx, "lock:test", time.Minute)
	s.NoError(err)
	s.True(ok)
}

func (s *RedisRepositoryTestSuite) TestLock_ReleaseWithForeignTokenKeepsLock() {
	ctx := context.Background()

	_, ok, err := s.lock.Acquire(ctx, "lock:test", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.NoError(s.lock.Release(ctx, "lock:test", "someone-else"))
	s.True(s.miniRedis.Exists("lock:test"))
}

func (s *RedisRepositoryTestSuite) TestLock_ExpiresAfterTTL() {
	ctx := context.Background()

	_, ok, err := s.lock.Acquire(ctx, "lock:test", time.Second)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.miniRedis.FastForward(2 * time.Second)

	_, ok, err = s.lock.Acquire(ctx, "lock:test", time.Second)
	s.NoError(err)
	s.True(ok)
}
