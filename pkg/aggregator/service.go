package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/model"
	"keyword-intel/pkg/source"
	"keyword-intel/pkg/storage"
)

const (
	tracerName            = "keyword-intel/pkg/aggregator"
	DefaultRequestTimeout = 120 * time.Second
)

// Config tunes the orchestrator.
type Config struct {
	RequestTimeout time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the request ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithResultCache enables result caching.
func WithResultCache(cache *storage.ResultCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithMetrics records request and source metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service fans a request out to the source adapters and merges what they
// return. It holds no per-request state.
type Service struct {
	adapters map[model.Source]source.Adapter
	timeout  time.Duration
	cache    *storage.ResultCache
	metrics  *Metrics
	log      *logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() string
}

// NewService builds the orchestrator over adapters, keyed by their Source.
func NewService(adapters []source.Adapter, cfg Config, log *logger.Logger, opts ...Option) *Service {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	s := &Service{
		adapters: make(map[model.Source]source.Adapter, len(adapters)),
		timeout:  cfg.RequestTimeout,
		log:      logger.OrNop(log).WithField("component", "aggregator"),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, a := range adapters {
		s.adapters[a.Source()] = a
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetKeywordIntelligence answers req from the cache or by querying every
// requested source. A single-source request fails with that source's error;
// a multi-source request fails only when no source succeeds. Errors are
// always *AggregationError.
func (s *Service) GetKeywordIntelligence(ctx context.Context, req model.MetricRequest) (result *model.KeywordIntelligenceResult, err error) {
	start := time.Now()
	requestID := s.newID()
	sources := req.Sources()

	ctx, span := s.tracer.Start(ctx, "aggregator.get_keyword_intelligence", trace.WithAttributes(
		attribute.String("request_id", requestID),
		attribute.Int("sources", len(sources)),
	))
	defer span.End()

	log := s.log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"keyword":    req.Keyword(),
		"sources":    sources,
	})

	defer func() {
		s.metrics.observeRequest(start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetAttributes(attribute.Float64("total_cost", result.TotalCost), attribute.Bool("cached", result.Cached))
		span.SetStatus(codes.Ok, "")
	}()

	if err := s.validate(req); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, hit := s.cache.Get(ctx, req)
		s.metrics.observeCache(hit)
		if hit {
			cached.RequestID = requestID
			cached.Cached = true
			cached.TotalCost = 0
			log.Debug("Serving cached keyword intelligence")
			return cached, nil
		}
	}

	log.Info("Aggregating keyword intelligence")

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcomes := s.fanOut(tctx, req, sources)
	m := merge(req, outcomes)

	if len(m.partials) > 0 && errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		log.WithField("cost", m.cost).Error("Keyword intelligence request timed out")
		return nil, timedOut(m.cost, m.partials, tctx.Err())
	}

	if !req.IsMultiSource() && len(m.partials) == 1 {
		ae := sourceFailed(m.partials[0], outcomes[0].err)
		log.WithError(ae).Error("Source failed")
		return nil, ae
	}

	if len(m.result.SourcesQueried) == 0 {
		ae := allSourcesFailed(m.partials, m.cost)
		log.WithError(ae).Error("All sources failed")
		return nil, ae
	}

	for _, pe := range m.partials {
		log.WithFields(map[string]interface{}{
			"source":    string(pe.Source),
			"status":    pe.StatusCode,
			"retryable": pe.Retryable,
			"cost":      pe.Cost,
		}).Warn("Source failed; returning partial result")
	}

	result = m.result
	result.RequestID = requestID
	result.GeneratedAt = s.now().UTC()

	// Partial results are not cached so a recovered source is picked up on the next request.
	if s.cache != nil && len(result.PartialErrors) == 0 {
		s.cache.Put(ctx, req, result)
	}

	log.WithFields(map[string]interface{}{
		"sources_queried": result.SourcesQueried,
		"total_cost":      result.TotalCost,
		"duration_ms":     time.Since(start).Milliseconds(),
	}).Info("Keyword intelligence aggregated")

	return result, nil
}

// GetGoogleKeywordData queries only the Google adapter.
func (s *Service) GetGoogleKeywordData(ctx context.Context, req model.MetricRequest) (*model.KeywordIntelligenceResult, error) {
	return s.GetSourceKeywordData(ctx, model.SourceGoogle, req)
}

// GetBingKeywordData queries only the Bing adapter.
func (s *Service) GetBingKeywordData(ctx context.Context, req model.MetricRequest) (*model.KeywordIntelligenceResult, error) {
	return s.GetSourceKeywordData(ctx, model.SourceBing, req)
}

// GetYouTubeKeywordData queries only the YouTube adapter.
func (s *Service) GetYouTubeKeywordData(ctx context.Context, req model.MetricRequest) (*model.KeywordIntelligenceResult, error) {
	return s.GetSourceKeywordData(ctx, model.SourceYouTube, req)
}

// GetSourceKeywordData narrows req to src and aggregates it.
func (s *Service) GetSourceKeywordData(ctx context.Context, src model.Source, req model.MetricRequest) (*model.KeywordIntelligenceResult, error) {
	return s.GetKeywordIntelligence(ctx, req.ForSource(src))
}

func (s *Service) validate(req model.MetricRequest) error {
	if req.Keyword() == "" {
		return invalidRequest("keyword is required")
	}
	sources := req.Sources()
	if len(sources) == 0 {
		return invalidRequest("at least one source is required")
	}
	for _, src := range sources {
		if _, ok := s.adapters[src]; !ok {
			return invalidRequest(fmt.Sprintf("source %q is not configured", src))
		}
	}
	return nil
}

// fanOut runs every adapter concurrently and waits for all of them. One
// adapter's failure never cancels another.
func (s *Service) fanOut(ctx context.Context, req model.MetricRequest, sources []model.Source) []outcome {
	outcomes := make([]outcome, len(sources))
	var g errgroup.Group

	for i, src := range sources {
		adapter := s.adapters[src]
		g.Go(func() error {
			metrics, err := adapter.Fetch(ctx, req.ForSource(src))
			o := outcome{source: src, metrics: metrics, err: err}
			switch {
			case err != nil:
				var se *source.SourceError
				if errors.As(err, &se) {
					o.cost = se.Cost
				}
			case metrics != nil:
				o.cost = metrics.Cost
			default:
				o.err = &source.SourceError{Source: src, Call: "fetch", Err: errors.New("adapter returned no metrics")}
			}
			s.metrics.observeSource(src, o.err)
			outcomes[i] = o
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}
