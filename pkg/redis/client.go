package redis

import (
	"github.com/redis/go-redis/v9"

	"github.com/bbuilders/actionbot/pkg/config"
)

// NewClient builds the redis client backing the same-day dedup fast path.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
