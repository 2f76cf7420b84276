package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"foodbridge/pkg/platform/sentinel"
)

const redisKeyPrefix = "foodbridge:credentials:"

// RedisStore implements Store on Redis, for deployments where the gateway
// must survive host restarts without local disk state.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Redis-backed credential store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}
