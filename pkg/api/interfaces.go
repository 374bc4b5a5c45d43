package api

import "context"

// Caller performs a single authenticated upstream call and returns the raw
// response body. Implementations never retry; see Retrier.
type Caller interface {
	Call(ctx context.Context, endpoint string, payload interface{}) ([]byte, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, endpoint string, payload interface{}) ([]byte, error)

func (f CallerFunc) Call(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	return f(ctx, endpoint, payload)
}

// ClientStats is a point-in-time view of the transport counters.
type ClientStats struct {
	TotalRequests  uint64  `json:"total_requests"`
	FailedRequests uint64  `json:"failed_requests"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	LastError      string  `json:"last_error,omitempty"`
}
