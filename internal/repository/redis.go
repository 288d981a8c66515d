package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"styledecor/internal/config"

	"github.com/redis/go-redis/v9"
)

const throttlePrefix = "throttle:"

// incrWindow bumps the counter and starts its window on the first hit, in
// one round trip so a crash between the two cannot leave a key without TTL.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisThrottleStore counts attempts per key in fixed windows shared by all
// API instances.
type RedisThrottleStore struct {
	client *redis.Client
}

// NewRedisClient создает клиент Redis из конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisThrottleStore(client *redis.Client) *RedisThrottleStore {
	return &RedisThrottleStore{client: client}
}

// CheckRateLimit counts one attempt for key and reports whether the window
// still has room.
func (r *RedisThrottleStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errors.New("redis throttle: no client")
	}

	count, err := incrWindow.Run(ctx, r.client, []string{throttlePrefix + key}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis throttle %s: %w", key, err)
	}
	return count <= int64(limit), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
