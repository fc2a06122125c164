package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
)

const taxCacheKey = "storefront:tax_n_shipping"

// setTaxScript пишет настройки, только если в кеше нет более новой версии.
// ARGV: version, data, ttl в миллисекундах (0 - без срока).
var setTaxScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
else
	redis.call('PERSIST', KEYS[1])
end
return 1
`)

type taxCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTaxCache создает кеш настроек налога в Redis
func NewTaxCache(client *redis.Client, ttl time.Duration) TaxCache {
	return &taxCache{client: client, ttl: ttl}
}

func (c *taxCache) Get(ctx context.Context) (*entity.TaxNShipping, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := c.client.HGet(ctx, taxCacheKey, "data").Bytes()
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, "tax_n_shipping")
			return nil, ErrCacheMiss
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get tax config from redis: %w", err)
	}

	var tax entity.TaxNShipping
	if err := json.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tax config: %w", err)
	}

	metrics.RecordCacheHit(serviceName, "tax_n_shipping")
	return &tax, nil
}

// Set кладет настройки в кеш. Если там уже лежит более новая version,
// запись пропускается, чтобы запоздавший читатель не вернул старое значение.
func (c *taxCache) Set(ctx context.Context, tax *entity.TaxNShipping) error {
	data, err := json.Marshal(tax)
	if err != nil {
		return fmt.Errorf("failed to marshal tax config: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	stored, err := setTaxScript.Run(ctx, c.client, []string{taxCacheKey}, tax.Version, data, c.ttl.Milliseconds()).Int()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set tax config in redis: %w", err)
	}
	if stored == 0 {
		logger.Ctx(ctx).Debug().Int64("version", tax.Version).Msg("Newer tax config already cached, skipping")
	}

	return nil
}

func (c *taxCache) Invalidate(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	err := c.client.Del(ctx, taxCacheKey).Err()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate tax config: %w", err)
	}
	return nil
}
