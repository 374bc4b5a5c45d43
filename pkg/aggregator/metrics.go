package aggregator

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"keyword-intel/pkg/api"
	"keyword-intel/pkg/model"
)

const namespace = "keyword_intel"

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	upstreamCalls   *prometheus.CounterVec
	upstreamRetries *prometheus.CounterVec
	upstreamCost    *prometheus.CounterVec
	sourceOutcomes  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_calls_total",
				Help:      "Upstream calls by source, call and final outcome",
			},
			[]string{"source", "call", "outcome"},
		),
		upstreamRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_retries_total",
				Help:      "Retried upstream attempts by operation and status",
			},
			[]string{"operation", "status"},
		),
		upstreamCost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_cost_total",
				Help:      "Provider cost reported by upstream calls",
			},
			[]string{"source"},
		),
		sourceOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_results_total",
				Help:      "Adapter results by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Keyword intelligence request duration",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Result cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveCall records the final outcome of one retried upstream call.
func (m *Metrics) ObserveCall(src model.Source, call string, attempts int, cost float64, err error) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(string(src), call, callOutcome(err)).Inc()
	if cost > 0 {
		m.upstreamCost.WithLabelValues(string(src)).Add(cost)
	}
}

// RetryObserver counts retried attempts.
func (m *Metrics) RetryObserver() api.RetryObserver {
	return func(name string, attempt int, delay time.Duration, cause *api.ClassifiedError) {
		if m == nil {
			return
		}
		m.upstreamRetries.WithLabelValues(name, strconv.Itoa(cause.StatusCode)).Inc()
	}
}

func (m *Metrics) observeSource(src model.Source, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.sourceOutcomes.WithLabelValues(string(src), outcome).Inc()
}

func (m *Metrics) observeRequest(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	var ae *AggregationError
	if errors.As(err, &ae) {
		outcome = strings.ToLower(string(ae.Kind))
	}
	m.requestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func callOutcome(err error) string {
	if err == nil {
		return "success"
	}
	var ce *api.ClassifiedError
	if errors.As(err, &ce) {
		return strconv.Itoa(ce.StatusCode)
	}
	return "error"
}
