package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed ledger.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisLedger keeps the ledger in a Redis set so several hosts can share it.
type RedisLedger struct {
	client *redis.Client
	key    string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return &RedisLedger{client: client, key: cfg.Key}, nil
}

// Contains reports whether url is a member of the ledger set.
func (l *RedisLedger) Contains(ctx context.Context, url string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, l.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("check url in ledger: %w", err)
	}

	return ok, nil
}

// Add inserts urls one by one; SADD returning 1 marks a new URL.
func (l *RedisLedger) Add(ctx context.Context, urls []string) ([]string, error) {
	var added []string

	for _, u := range urls {
		n, err := l.client.SAdd(ctx, l.key, u).Result()
		if err != nil {
			return added, fmt.Errorf("record url in ledger: %w", err)
		}

		if n == 1 {
			added = append(added, u)
		}
	}

	return added, nil
}

// Close releases the Redis connection.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}
