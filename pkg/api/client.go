package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"keyword-intel/pkg/logger"
)

const maxErrorBodyLen = 512

// ClientConfig configures the upstream transport.
type ClientConfig struct {
	BaseURL    string
	Login      string
	Password   string
	Timeout    time.Duration
	Connection ConnectionConfig
}

// HTTPClient posts single-task batches to the provider over fasthttp.
type HTTPClient struct {
	baseURL     string
	authHeader  string
	timeout     time.Duration
	connManager *ConnectionManager
	log         *logger.SecurityLogger

	totalRequests  uint64
	failedRequests uint64
	totalLatency   uint64
	lastError      atomic.Value
}

// NewHTTPClient creates the transport. Timeout defaults to 30s.
func NewHTTPClient(cfg ClientConfig, log *logger.Logger) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Connection.MaxConnsPerHost == 0 {
		userAgent := cfg.Connection.UserAgent
		cfg.Connection = DefaultConnectionConfig()
		if userAgent != "" {
			cfg.Connection.UserAgent = userAgent
		}
	}

	base := logger.OrNop(log).WithField("component", "api_client")
	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Login + ":" + cfg.Password))

	client := &HTTPClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		authHeader:  "Basic " + credentials,
		timeout:     cfg.Timeout,
		connManager: NewConnectionManager(cfg.Connection, log),
		log:         logger.NewSecurityLogger(base),
	}
	client.log.SafeInfo("Upstream client configured", map[string]interface{}{
		"base_url":   cfg.BaseURL,
		"login":      cfg.Login,
		"timeout_ms": cfg.Timeout.Milliseconds(),
	})
	return client
}

// Call posts [payload] to endpoint and returns the 2xx body. The effective
// timeout is the configured one or the context deadline, whichever is sooner.
func (c *HTTPClient) Call(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	atomic.AddUint64(&c.totalRequests, 1)
	start := time.Now()
	defer func() {
		atomic.AddUint64(&c.totalLatency, uint64(time.Since(start).Milliseconds()))
	}()

	body, err := c.doCall(ctx, endpoint, payload)
	if err != nil {
		atomic.AddUint64(&c.failedRequests, 1)
		c.lastError.Store(err.Error())
		return nil, err
	}

	c.log.Debug(fmt.Sprintf("Upstream call to %s completed in %dms", endpoint, time.Since(start).Milliseconds()))
	return body, nil
}

func (c *HTTPClient) doCall(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	requestBody, err := json.Marshal([]interface{}{payload})
	if err != nil {
		return nil, fmt.Errorf("encode request for %s: %w", endpoint, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, &TransportError{Kind: KindTimeout, Code: CodeTimedOut, Endpoint: endpoint, Err: context.DeadlineExceeded}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	release := func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}

	req.SetRequestURI(c.baseURL + endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader)
	req.SetBody(requestBody)

	done := make(chan error, 1)
	go func() {
		done <- c.connManager.GetFastHTTPClient().DoTimeout(req, resp, timeout)
	}()

	select {
	case <-ctx.Done():
		// The request still owns req/resp until DoTimeout returns.
		go func() {
			<-done
			release()
		}()
		return nil, ctx.Err()
	case err := <-done:
		defer release()
		if err != nil {
			return nil, toTransportError(endpoint, err)
		}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		snippet := string(resp.Body())
		if len(snippet) > maxErrorBodyLen {
			snippet = snippet[:maxErrorBodyLen]
		}
		return nil, &TransportError{Kind: KindHTTPStatus, HTTPStatus: status, Endpoint: endpoint, Body: snippet}
	}

	return append([]byte(nil), resp.Body()...), nil
}

func toTransportError(endpoint string, err error) *TransportError {
	te := &TransportError{Kind: KindNetwork, Endpoint: endpoint, Err: err}

	var netErr net.Error
	var dnsErr *net.DNSError

	switch {
	case errors.Is(err, fasthttp.ErrTimeout), errors.Is(err, fasthttp.ErrDialTimeout):
		te.Kind = KindTimeout
		te.Code = CodeTimedOut
	case errors.As(err, &dnsErr):
		te.Code = CodeNotFound
	case errors.Is(err, syscall.ECONNREFUSED):
		te.Code = CodeConnRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, fasthttp.ErrConnectionClosed):
		te.Code = CodeConnAborted
	case errors.As(err, &netErr) && netErr.Timeout():
		te.Kind = KindTimeout
		te.Code = CodeTimedOut
	}
	return te
}

// GetStats returns transport counters.
func (c *HTTPClient) GetStats() ClientStats {
	total := atomic.LoadUint64(&c.totalRequests)
	stats := ClientStats{
		TotalRequests:  total,
		FailedRequests: atomic.LoadUint64(&c.failedRequests),
	}
	if total > 0 {
		stats.AvgLatencyMs = float64(atomic.LoadUint64(&c.totalLatency)) / float64(total)
	}
	if last, ok := c.lastError.Load().(string); ok {
		stats.LastError = last
	}
	return stats
}

// Close releases pooled connections.
func (c *HTTPClient) Close() {
	c.connManager.Close()
}
