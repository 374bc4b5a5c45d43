package envelope

import (
	"errors"
	"fmt"
)

// Kind classifies why an envelope could not yield data.
type Kind string

const (
	KindEmpty          Kind = "EMPTY"
	KindNoTasks        Kind = "NO_TASKS"
	KindTaskFailed     Kind = "TASK_FAILED"
	KindNoResults      Kind = "NO_RESULTS"
	KindEnvelopeFailed Kind = "ENVELOPE_FAILED"
)

var (
	ErrEmpty          = errors.New("envelope is empty")
	ErrNoTasks        = errors.New("envelope has no tasks")
	ErrTaskFailed     = errors.New("upstream task failed")
	ErrNoResults      = errors.New("upstream task returned no results")
	ErrEnvelopeFailed = errors.New("upstream envelope failed")
)

// EnvelopeError reports a structurally valid envelope that carries no usable
// data. TASK_FAILED and ENVELOPE_FAILED carry the provider's status.
type EnvelopeError struct {
	Kind          Kind
	StatusCode    int
	StatusMessage string
	Cost          float64
}

func (e *EnvelopeError) Error() string {
	switch e.Kind {
	case KindTaskFailed, KindEnvelopeFailed:
		return fmt.Sprintf("%s: %s (status code %d)", e.sentinel().Error(), e.StatusMessage, e.StatusCode)
	default:
		return e.sentinel().Error()
	}
}

// Is lets callers match on the Err* sentinels.
func (e *EnvelopeError) Is(target error) bool {
	return target == e.sentinel()
}

// HTTPStatus maps the five-digit provider code onto HTTP semantics
// (40100 -> 401, 40210 -> 402). It returns 0 when no mapping applies.
func (e *EnvelopeError) HTTPStatus() int {
	if e.StatusCode >= 10000 {
		return e.StatusCode / 100
	}
	return 0
}

func (e *EnvelopeError) sentinel() error {
	switch e.Kind {
	case KindEmpty:
		return ErrEmpty
	case KindNoTasks:
		return ErrNoTasks
	case KindTaskFailed:
		return ErrTaskFailed
	case KindNoResults:
		return ErrNoResults
	case KindEnvelopeFailed:
		return ErrEnvelopeFailed
	}
	return ErrEmpty
}

// ValidationError reports a payload that is not a well-formed envelope.
// Cost is non-zero when the envelope itself parsed and the provider billed it.
type ValidationError struct {
	Reason string
	Cost   float64
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed envelope: %s: %v", e.Reason, e.Err)
	}
	return "malformed envelope: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
