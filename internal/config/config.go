package config

import (
	"fmt"
	"strings"
	"time"
)

// Transition strategies for vote/unvote.
const (
	TransitionsScript     = "script"     // one Lua script per transition
	TransitionsSequential = "sequential" // individual commands, no cross-key transaction
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // text or json
}

// BreakerConfig controls the Redis circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32 `mapstructure:"max_failures"` // consecutive failures before opening
	OpenTimeout string `mapstructure:"open_timeout"` // duration string, e.g., "30s"
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout string        `mapstructure:"dial_timeout"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

// RankingConfig controls the ranking engine.
type RankingConfig struct {
	KeyPrefix         string  `mapstructure:"key_prefix"`
	Transitions       string  `mapstructure:"transitions"`
	HotGravity        float64 `mapstructure:"hot_gravity"`
	RequireKnownUsers bool    `mapstructure:"require_known_users"`
	MaxPerPage        int     `mapstructure:"max_per_page"`
	RefreshInterval   string  `mapstructure:"refresh_interval"` // duration string, e.g., "15m"
	RefreshBatch      int     `mapstructure:"refresh_batch"`
}

// FixtureConfig controls synthetic data generation.
type FixtureConfig struct {
	Seed        uint64 `mapstructure:"seed"`
	Users       int    `mapstructure:"users"`
	Videos      int    `mapstructure:"videos"`
	Votes       int    `mapstructure:"votes"`
	MaxAge      string `mapstructure:"max_age"` // oldest generated video, e.g., "720h"
	Concurrency int    `mapstructure:"concurrency"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the endpoint
}

// Config is the top-level configuration structure.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Ranking RankingConfig `mapstructure:"ranking"`
	Fixture FixtureConfig `mapstructure:"fixture"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "text"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Redis.DialTimeout == "" {
		c.Redis.DialTimeout = "5s"
	}
	if c.Redis.Breaker.MaxFailures == 0 {
		c.Redis.Breaker.MaxFailures = 5
	}
	if c.Redis.Breaker.OpenTimeout == "" {
		c.Redis.Breaker.OpenTimeout = "30s"
	}
	if c.Ranking.Transitions == "" {
		c.Ranking.Transitions = TransitionsScript
	}
	if c.Ranking.HotGravity == 0 {
		c.Ranking.HotGravity = 2
	}
	if c.Ranking.MaxPerPage == 0 {
		c.Ranking.MaxPerPage = 100
	}
	if c.Ranking.RefreshInterval == "" {
		c.Ranking.RefreshInterval = "15m"
	}
	if c.Ranking.RefreshBatch == 0 {
		c.Ranking.RefreshBatch = 500
	}
	if c.Fixture.Seed == 0 {
		c.Fixture.Seed = 42
	}
	if c.Fixture.Users == 0 {
		c.Fixture.Users = 50
	}
	if c.Fixture.Videos == 0 {
		c.Fixture.Videos = 200
	}
	if c.Fixture.Votes == 0 {
		c.Fixture.Votes = 2000
	}
	if c.Fixture.MaxAge == "" {
		c.Fixture.MaxAge = "720h"
	}
	if c.Fixture.Concurrency == 0 {
		c.Fixture.Concurrency = 8
	}
}

// Validate reports settings that FillDefaults cannot repair.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Ranking.Transitions) {
	case TransitionsScript, TransitionsSequential:
	default:
		return fmt.Errorf("ranking.transitions: unknown mode %q", c.Ranking.Transitions)
	}
	if c.Ranking.HotGravity <= 0 {
		return fmt.Errorf("ranking.hot_gravity must be positive, got %v", c.Ranking.HotGravity)
	}
	if c.Ranking.MaxPerPage < 0 {
		return fmt.Errorf("ranking.max_per_page must not be negative, got %d", c.Ranking.MaxPerPage)
	}
	for name, d := range map[string]string{
		"redis.dial_timeout":         c.Redis.DialTimeout,
		"redis.breaker.open_timeout": c.Redis.Breaker.OpenTimeout,
		"ranking.refresh_interval":   c.Ranking.RefreshInterval,
		"fixture.max_age":            c.Fixture.MaxAge,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Duration parses a duration setting already checked by Validate.
// A malformed value falls back to def.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
