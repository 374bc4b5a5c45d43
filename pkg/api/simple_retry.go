package api

import (
	"context"
	"time"

	"keyword-intel/pkg/logger"
)

// RetryPolicy bounds the retry loop: at most MaxRetries+1 attempts, with
// BaseDelay*2^attempt between them, never more than MaxDelay.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns 3 retries starting at 1s and capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// Backoff returns the delay that follows the given zero-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryObserver is notified before every backoff.
type RetryObserver func(name string, attempt int, delay time.Duration, cause *ClassifiedError)

// Retrier runs operations under a RetryPolicy. It holds no per-call state
// and is safe for concurrent use.
type Retrier struct {
	policy     RetryPolicy
	classifier ErrorClassifier
	sleep      Sleeper
	observer   RetryObserver
	log        *logger.Logger
}

// RetrierOption customises a Retrier.
type RetrierOption func(*Retrier)

// WithSleeper replaces the wall-clock sleeper, mainly for tests.
func WithSleeper(s Sleeper) RetrierOption {
	return func(r *Retrier) { r.sleep = s }
}

// WithClassifier replaces the default status classifier.
func WithClassifier(c ErrorClassifier) RetrierOption {
	return func(r *Retrier) { r.classifier = c }
}

// WithRetryObserver registers a hook called before each backoff.
func WithRetryObserver(o RetryObserver) RetrierOption {
	return func(r *Retrier) { r.observer = o }
}

// NewRetrier creates a retrier. A nil log discards output.
func NewRetrier(policy RetryPolicy, log *logger.Logger, opts ...RetrierOption) *Retrier {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	r := &Retrier{
		policy:     policy,
		classifier: NewErrorClassifier(),
		sleep:      ContextSleep,
		log:        logger.OrNop(log).WithField("component", "retrier"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the configured policy.
func (r *Retrier) Policy() RetryPolicy {
	return r.policy
}

// Attempt is one execution of a retried operation. It reports the cost the
// provider billed for that attempt alongside its result.
type Attempt[T any] func(ctx context.Context) (T, float64, error)

// Outcome is a successful retried operation.
type Outcome[T any] struct {
	Value    T
	Attempts int
	Cost     float64
}

// WithRetry runs op until it succeeds, fails terminally, or exhausts the
// policy. Failures are always returned as *ClassifiedError carrying the
// accumulated cost.
func WithRetry[T any](ctx context.Context, r *Retrier, name string, op Attempt[T]) (Outcome[T], error) {
	var (
		out  Outcome[T]
		cost float64
	)
	log := r.log.WithField("operation", name)

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return out, r.fail(log, err, attempt, cost)
		}

		if attempt == 0 {
			log.Info("Calling upstream")
		}

		value, attemptCost, err := op(ctx)
		cost += attemptCost
		if err == nil {
			log.WithFields(map[string]interface{}{
				"attempts": attempt + 1,
				"cost":     cost,
			}).Info("Upstream call succeeded")
			return Outcome[T]{Value: value, Attempts: attempt + 1, Cost: cost}, nil
		}

		classified := r.classifier.Classify(err)
		classified.Attempts = attempt + 1
		classified.Cost = cost

		if !classified.Retryable || attempt == r.policy.MaxRetries {
			log.WithError(err).WithFields(map[string]interface{}{
				"attempts":  classified.Attempts,
				"status":    classified.StatusCode,
				"retryable": classified.Retryable,
				"cost":      cost,
			}).Error("Upstream call failed")
			return out, classified
		}

		delay := r.policy.Backoff(attempt)
		log.WithError(err).WithFields(map[string]interface{}{
			"attempt":  attempt + 1,
			"status":   classified.StatusCode,
			"delay_ms": delay.Milliseconds(),
		}).Warn("Retrying upstream call")

		if r.observer != nil {
			r.observer(name, attempt+1, delay, classified)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return out, r.fail(log, err, attempt+1, cost)
		}
	}

	// Unreachable: the final iteration always returns.
	return out, &ClassifiedError{StatusCode: 500, Message: "Retry loop exhausted", Cost: cost}
}

func (r *Retrier) fail(log *logger.Logger, err error, attempts int, cost float64) *ClassifiedError {
	classified := r.classifier.Classify(err)
	classified.Attempts = attempts
	classified.Cost = cost
	log.WithError(err).WithField("cost", cost).Warn("Upstream call abandoned")
	return classified
}
