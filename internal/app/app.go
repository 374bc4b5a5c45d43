package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"keyword-intel/internal/config"
	"keyword-intel/pkg/aggregator"
	"keyword-intel/pkg/api"
	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/source"
	"keyword-intel/pkg/storage"
)

// Engine is the fully wired keyword intelligence engine.
type Engine struct {
	Service *aggregator.Service
	Metrics *aggregator.Metrics

	client *api.HTTPClient
	cache  *storage.ResultCache
	log    *logger.Logger
}

// Build wires transport, retry, adapters, cache and metrics from cfg.
// Collectors are registered on reg; a nil reg skips metrics.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*Engine, error) {
	log = logger.OrNop(log)

	var metrics *aggregator.Metrics
	if reg != nil {
		metrics = aggregator.NewMetrics(reg)
	}

	backend, err := storage.NewCache(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cache: %w", cfg.Cache.Backend, err)
	}
	cache := storage.NewResultCache(backend, cfg.Cache.TTL(), log)

	client := api.NewHTTPClient(cfg.ClientConfig(), log)
	retrier := api.NewRetrier(cfg.RetryPolicy(), log, api.WithRetryObserver(metrics.RetryObserver()))
	fetcher := source.NewFetcher(client, retrier, metrics, log)

	adapters := []source.Adapter{
		source.NewGoogleAdapter(fetcher),
		source.NewBingAdapter(fetcher),
		source.NewYouTubeAdapter(fetcher),
	}

	svc := aggregator.NewService(adapters, aggregator.Config{RequestTimeout: cfg.RequestTimeout()}, log,
		aggregator.WithResultCache(cache),
		aggregator.WithMetrics(metrics),
	)

	log.WithFields(map[string]interface{}{
		"cache_backend": cfg.Cache.Backend,
		"max_retries":   cfg.Retry.MaxRetries,
		"timeout_ms":    cfg.Aggregation.RequestTimeoutMs,
	}).Info("Keyword intelligence engine ready")

	return &Engine{
		Service: svc,
		Metrics: metrics,
		client:  client,
		cache:   cache,
		log:     log,
	}, nil
}

// Close releases the transport and cache connections.
func (e *Engine) Close() {
	e.client.Close()
	if err := e.cache.Close(); err != nil {
		e.log.WithError(err).Warn("Failed to close result cache")
	}
}
