package redisclient

import (
	"time"

	"videorank/internal/config"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client from configuration with metrics and circuit
// breaker hooks installed.
func New(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: config.Duration(cfg.DialTimeout, 5*time.Second),
	})
	rdb.AddHook(&MetricsHook{})
	rdb.AddHook(NewBreakerHook(BreakerSettings{
		Name:        cfg.Addr,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: config.Duration(cfg.Breaker.OpenTimeout, 30*time.Second),
	}))
	return rdb
}
