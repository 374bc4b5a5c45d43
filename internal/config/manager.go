package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"keyword-intel/pkg/storage"
)

const envPrefix = "KWI"

type manager struct {
	mu      sync.RWMutex
	config  *Config
	viper   *viper.Viper
	envFile string
}

// NewManager returns a manager that reads an optional .env file from the
// working directory before consulting the environment.
func NewManager() Manager {
	return NewManagerWithEnvFile(".env")
}

// NewManagerWithEnvFile is NewManager with an explicit dotenv path. An empty
// path skips dotenv loading.
func NewManagerWithEnvFile(envFile string) Manager {
	return &manager{
		viper:   viper.New(),
		envFile: envFile,
	}
}

// Load reads configPath (optional) and the KWI_* environment. Missing
// settings take their defaults.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	m.setupViper(configPath)

	return m.read()
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	_, err := m.read()
	return err
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.viper.ConfigFileUsed() != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m.config = &config
	return &config, nil
}

// loadEnvFile does not override variables already set in the process.
func (m *manager) loadEnvFile() error {
	if m.envFile == "" {
		return nil
	}
	if _, err := os.Stat(m.envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(m.envFile)
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)
}

// setDefaults also registers every key so AutomaticEnv can populate it on
// Unmarshal without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("upstream.base_url", "https://api.dataforseo.com")
	v.SetDefault("upstream.login", "")
	v.SetDefault("upstream.password", "")
	v.SetDefault("upstream.timeout_ms", 30000)
	v.SetDefault("upstream.max_conns_per_host", 50)
	v.SetDefault("upstream.user_agent", "keyword-intel/1.0")

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay_ms", 1000)
	v.SetDefault("retry.max_delay_ms", 10000)

	v.SetDefault("defaults.location_code", 2840)
	v.SetDefault("defaults.language_code", "en")

	v.SetDefault("aggregation.request_timeout_ms", 120000)
	v.SetDefault("aggregation.include_serp", false)

	v.SetDefault("cache.backend", storage.BackendNone)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	u, err := url.Parse(config.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream base_url: %q", config.Upstream.BaseURL)
	}

	if config.Upstream.TimeoutMs <= 0 {
		return fmt.Errorf("upstream timeout_ms must be positive")
	}

	if config.Retry.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	if config.Retry.BaseDelayMs <= 0 || config.Retry.MaxDelayMs < config.Retry.BaseDelayMs {
		return fmt.Errorf("retry delays must satisfy 0 < base_delay_ms <= max_delay_ms")
	}

	if config.Defaults.LocationCode <= 0 {
		return fmt.Errorf("default location_code must be positive")
	}

	if config.Defaults.LanguageCode == "" {
		return fmt.Errorf("default language_code cannot be empty")
	}

	if config.Aggregation.RequestTimeoutMs <= 0 {
		return fmt.Errorf("request_timeout_ms must be positive")
	}

	switch config.Cache.Backend {
	case storage.BackendMemory, storage.BackendRedis, storage.BackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
	}

	return nil
}
