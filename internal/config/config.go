package config

import (
	"time"

	"keyword-intel/pkg/api"
	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/model"
	"keyword-intel/pkg/storage"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Upstream    UpstreamConfig    `mapstructure:"upstream"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Defaults    model.Defaults    `mapstructure:"defaults"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Cache       storage.Config    `mapstructure:"cache"`
	Logger      logger.Config     `mapstructure:"logger"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type UpstreamConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Login           string `mapstructure:"login"`
	Password        string `mapstructure:"password"`
	TimeoutMs       int    `mapstructure:"timeout_ms"`
	MaxConnsPerHost int    `mapstructure:"max_conns_per_host"`
	UserAgent       string `mapstructure:"user_agent"`
}

type RetryConfig struct {
	MaxRetries  int `mapstructure:"max_retries"`
	BaseDelayMs int `mapstructure:"base_delay_ms"`
	MaxDelayMs  int `mapstructure:"max_delay_ms"`
}

type AggregationConfig struct {
	RequestTimeoutMs int  `mapstructure:"request_timeout_ms"`
	IncludeSERP      bool `mapstructure:"include_serp"`
}

// Manager loads configuration once at startup; the result is passed to
// constructors rather than read globally.
type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}

// ClientConfig is the upstream transport configuration.
func (c *Config) ClientConfig() api.ClientConfig {
	conn := api.DefaultConnectionConfig()
	if c.Upstream.MaxConnsPerHost > 0 {
		conn.MaxConnsPerHost = c.Upstream.MaxConnsPerHost
	}
	if c.Upstream.UserAgent != "" {
		conn.UserAgent = c.Upstream.UserAgent
	}
	return api.ClientConfig{
		BaseURL:    c.Upstream.BaseURL,
		Login:      c.Upstream.Login,
		Password:   c.Upstream.Password,
		Timeout:    time.Duration(c.Upstream.TimeoutMs) * time.Millisecond,
		Connection: conn,
	}
}

// RetryPolicy is the retry controller policy.
func (c *Config) RetryPolicy() api.RetryPolicy {
	return api.RetryPolicy{
		MaxRetries: c.Retry.MaxRetries,
		BaseDelay:  time.Duration(c.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:   time.Duration(c.Retry.MaxDelayMs) * time.Millisecond,
	}
}

// RequestTimeout is the outer per-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Aggregation.RequestTimeoutMs) * time.Millisecond
}
