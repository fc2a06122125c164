package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript удаляет ключ, только если он всё ещё принадлежит владельцу токена
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type redisLock struct {
	client *redis.Client
}

// NewLockRepository создает блокировку на SETNX, чтобы фоновые задачи
// выполнялись одним экземпляром сервиса
func NewLockRepository(client *redis.Client) LockRepository {
	return &redisLock{client: client}
}

func (l *redisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSetNX)
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSetNX)
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (l *redisLock) Release(ctx context.Context, key, token string) error {
	if err := releaseLockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
