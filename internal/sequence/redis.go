package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisAllocator uses INCR on a single key.
type RedisAllocator struct {
	client *redis.Client
	key    string
}

// NewRedisAllocator connects and pings the server before returning.
func NewRedisAllocator(ctx context.Context, addr, password string, db int, key string) (*RedisAllocator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisAllocator{client: client, key: key}, nil
}

func (a *RedisAllocator) Allocate(ctx context.Context) (int64, error) {
	id, err := a.client.Incr(ctx, a.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: redis INCR %s: %v", ErrAllocation, a.key, err)
	}
	return id, nil
}

func (a *RedisAllocator) Close() error {
	return a.client.Close()
}
