package api

import (
	"time"

	"github.com/valyala/fasthttp"

	"keyword-intel/pkg/logger"
)

// ConnectionConfig holds configuration for upstream connections
type ConnectionConfig struct {
	MaxConnsPerHost     int           `json:"max_conns_per_host"`
	MaxIdleConnDuration time.Duration `json:"max_idle_conn_duration"`
	ReadTimeout         time.Duration `json:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout"`
	MaxResponseBodySize int           `json:"max_response_body_size"`
	UserAgent           string        `json:"user_agent"`
}

// DefaultConnectionConfig returns sane defaults for the metrics provider.
// Live SERP endpoints can take tens of seconds, so read timeouts are generous.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConnsPerHost:     64,
		MaxIdleConnDuration: 90 * time.Second,
		ReadTimeout:         60 * time.Second,
		WriteTimeout:        10 * time.Second,
		MaxResponseBodySize: 32 << 20,
		UserAgent:           "keyword-intel/1.0",
	}
}

// ConnectionManager owns the pooled fasthttp client shared by every call.
type ConnectionManager struct {
	client *fasthttp.Client
	log    *logger.Logger
}

// NewConnectionManager creates a new connection manager with specified config
func NewConnectionManager(config ConnectionConfig, log *logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		client: buildFastHTTPClient(config),
		log:    logger.OrNop(log).WithField("component", "connection_manager"),
	}
}

func buildFastHTTPClient(config ConnectionConfig) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                     config.UserAgent,
		MaxConnsPerHost:          config.MaxConnsPerHost,
		MaxIdleConnDuration:      config.MaxIdleConnDuration,
		ReadTimeout:              config.ReadTimeout,
		WriteTimeout:             config.WriteTimeout,
		MaxResponseBodySize:      config.MaxResponseBodySize,
		NoDefaultUserAgentHeader: config.UserAgent == "",
	}
}

// GetFastHTTPClient returns the managed client
func (cm *ConnectionManager) GetFastHTTPClient() *fasthttp.Client {
	return cm.client
}

// Close closes all idle connections
func (cm *ConnectionManager) Close() {
	cm.log.Debug("Closing connection manager")
	cm.GetFastHTTPClient().CloseIdleConnections()
}
