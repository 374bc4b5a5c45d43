package source

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"keyword-intel/pkg/api"
	"keyword-intel/pkg/envelope"
	"keyword-intel/pkg/logger"
	"keyword-intel/pkg/model"
)

const tracerName = "keyword-intel/pkg/source"

// Adapter produces one source's metrics for a request. A failed adapter
// returns a *SourceError carrying the cost of every attempt it made.
type Adapter interface {
	Source() model.Source
	Fetch(ctx context.Context, req model.MetricRequest) (*model.SourceMetrics, error)
}

// CallObserver receives the outcome of every retried upstream call.
type CallObserver interface {
	ObserveCall(source model.Source, call string, attempts int, cost float64, err error)
}

// SourceError is a terminal adapter failure.
type SourceError struct {
	Source model.Source
	Call   string
	Cost   float64
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Call, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Classified returns the underlying classified error, if any.
func (e *SourceError) Classified() *api.ClassifiedError {
	var ce *api.ClassifiedError
	if errors.As(e.Err, &ce) {
		return ce
	}
	return nil
}

// Fetcher runs upstream calls for the adapters: transport, retry, envelope
// extraction and cost accounting.
type Fetcher struct {
	caller   api.Caller
	retrier  *api.Retrier
	observer CallObserver
	tracer   trace.Tracer
	log      *logger.Logger
}

// NewFetcher wires the shared call pipeline. observer may be nil.
func NewFetcher(caller api.Caller, retrier *api.Retrier, observer CallObserver, log *logger.Logger) *Fetcher {
	return &Fetcher{
		caller:   caller,
		retrier:  retrier,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
		log:      logger.OrNop(log).WithField("component", "source"),
	}
}

// lookup is a first-result extraction; Found is false when the provider
// returned no results, which is absence of data rather than failure.
type lookup[T any] struct {
	Item  T
	Found bool
}

// fetchFirst performs one retried call and extracts the first result item.
func fetchFirst[T any](ctx context.Context, f *Fetcher, src model.Source, call, endpoint string, payload interface{}) (lookup[T], float64, error) {
	out, err := api.WithRetry(ctx, f.retrier, string(src)+"."+call, func(ctx context.Context) (lookup[T], float64, error) {
		raw, err := f.caller.Call(ctx, endpoint, payload)
		if err != nil {
			return lookup[T]{}, 0, err
		}

		env, err := envelope.Decode[T](raw)
		if err != nil {
			var ve *envelope.ValidationError
			if errors.As(err, &ve) {
				return lookup[T]{}, ve.Cost, err
			}
			return lookup[T]{}, 0, err
		}
		cost := env.AttemptCost()
		f.logSummary(src, call, envelope.Summarize(env))

		item, err := envelope.ExtractFirstResultItem(env)
		if errors.Is(err, envelope.ErrNoResults) {
			return lookup[T]{}, cost, nil
		}
		if err != nil {
			return lookup[T]{}, cost, err
		}
		return lookup[T]{Item: item, Found: true}, cost, nil
	})

	if err != nil {
		var ce *api.ClassifiedError
		cost := 0.0
		attempts := 0
		if errors.As(err, &ce) {
			cost = ce.Cost
			attempts = ce.Attempts
		}
		f.observe(src, call, attempts, cost, err)
		return lookup[T]{}, cost, &SourceError{Source: src, Call: call, Cost: cost, Err: err}
	}

	f.observe(src, call, out.Attempts, out.Cost, nil)
	return out.Value, out.Cost, nil
}

// logSummary reports failed or empty tasks. Failed tasks log at warn; an
// empty task is absence of data and logs at debug.
func (f *Fetcher) logSummary(src model.Source, call string, summary envelope.Summary) {
	if len(summary.Warnings) == 0 {
		return
	}
	log := f.log.WithFields(map[string]interface{}{
		"source":           string(src),
		"call":             call,
		"total_tasks":      summary.TotalTasks,
		"successful_tasks": summary.SuccessfulTasks,
		"failed_tasks":     summary.FailedTasks,
		"total_results":    summary.TotalResults,
		"warnings":         summary.Warnings,
	})
	if summary.FailedTasks > 0 {
		log.Warn("Upstream envelope has failed tasks")
		return
	}
	log.Debug("Upstream envelope has empty tasks")
}

func (f *Fetcher) observe(src model.Source, call string, attempts int, cost float64, err error) {
	if f.observer != nil {
		f.observer.ObserveCall(src, call, attempts, cost, err)
	}
}

// task is one upstream call of an adapter. It stores its own result and
// reports its cost.
type task struct {
	name string
	run  func(ctx context.Context) (float64, error)
}

func fetchTask[T any](f *Fetcher, src model.Source, call, endpoint string, payload interface{}, dst *lookup[T]) task {
	return task{
		name: call,
		run: func(ctx context.Context) (float64, error) {
			res, cost, err := fetchFirst[T](ctx, f, src, call, endpoint, payload)
			*dst = res
			return cost, err
		},
	}
}

// runAll executes tasks concurrently and waits for all of them. The first
// failure cancels the rest; the returned cost covers every task either way.
func (f *Fetcher) runAll(ctx context.Context, src model.Source, tasks []task) (float64, error) {
	costs := make([]float64, len(tasks))
	g, gctx := errgroup.WithContext(ctx)

	for i, t := range tasks {
		g.Go(func() error {
			cost, err := t.run(gctx)
			costs[i] = cost
			return err
		})
	}

	err := g.Wait()

	var total float64
	for _, c := range costs {
		total += c
	}

	if err != nil {
		var se *SourceError
		if !errors.As(err, &se) {
			se = &SourceError{Source: src, Call: "fetch", Err: err}
		}
		se.Cost = total
		return total, se
	}
	return total, nil
}

// firstLabsItem unwraps the first item of a labs result list.
func firstLabsItem[T any](l lookup[labsResult[T]]) (T, bool) {
	var zero T
	if !l.Found || len(l.Item.Items) == 0 {
		return zero, false
	}
	return l.Item.Items[0], true
}

// startSpan opens the adapter span.
func (f *Fetcher) startSpan(ctx context.Context, src model.Source, req model.MetricRequest) (context.Context, trace.Span) {
	return f.tracer.Start(ctx, "source.fetch", trace.WithAttributes(
		attribute.String("source", string(src)),
		attribute.Int("location_code", req.LocationCode()),
		attribute.String("language_code", req.LanguageCode()),
		attribute.Bool("include_serp", req.IncludeSERP()),
	))
}

// finish records the adapter outcome on span and in the log.
func (f *Fetcher) finish(span trace.Span, src model.Source, cost float64, err error) {
	span.SetAttributes(attribute.Float64("cost", cost))
	log := f.log.WithFields(map[string]interface{}{"source": string(src), "cost": cost})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Warn("Source adapter failed")
		return
	}
	span.SetStatus(codes.Ok, "")
	log.Info("Source adapter completed")
}
