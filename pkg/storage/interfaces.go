package storage

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque values with a time-to-live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by NewCache.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Config selects and sizes the result cache.
type Config struct {
	Backend    string      `mapstructure:"backend"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	MaxEntries int         `mapstructure:"max_entries"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// TTL returns the configured time-to-live.
func (c Config) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}
