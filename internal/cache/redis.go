package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ebisa/bunamatch/internal/config"
	"github.com/redis/go-redis/v9"
)

// BalanceTTL bounds how long a cached credit balance may serve reads
// before falling back to the ledger.
const BalanceTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForBalance generates the Redis key for a user's credit balance.
func (c *RedisCache) KeyForBalance(userID int64) string {
	return fmt.Sprintf("credits:balance:%d", userID)
}

// UpdateBalance caches the authoritative balance with a fresh TTL.
func (c *RedisCache) UpdateBalance(ctx context.Context, userID int64, balance int) error {
	return c.Client.Set(ctx, c.KeyForBalance(userID), balance, BalanceTTL).Err()
}

// InvalidateBalance drops the cached balance; the next read repopulates
// it from the ledger. Called after any debit/credit.
func (c *RedisCache) InvalidateBalance(ctx context.Context, userID int64) error {
	return c.Client.Del(ctx, c.KeyForBalance(userID)).Err()
}

// GetBalance returns the cached balance and whether it was present.
// Cache misses are not errors.
func (c *RedisCache) GetBalance(ctx context.Context, userID int64) (int, bool, error) {
	key := c.KeyForBalance(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, BalanceTTL).Err()
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
