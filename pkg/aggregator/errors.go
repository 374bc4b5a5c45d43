package aggregator

import (
	"errors"
	"fmt"

	"keyword-intel/pkg/api"
	"keyword-intel/pkg/model"
	"keyword-intel/pkg/source"
)

// ErrorKind tells how an aggregation failed.
type ErrorKind string

const (
	KindSourceFailed     ErrorKind = "SOURCE_FAILED"
	KindAllSourcesFailed ErrorKind = "ALL_SOURCES_FAILED"
	KindTimeout          ErrorKind = "TIMEOUT"
	KindInvalidRequest   ErrorKind = "INVALID_REQUEST"
)

// AggregationError is the only error GetKeywordIntelligence returns. Cost
// is what the request already spent upstream.
type AggregationError struct {
	Source        model.Source
	Kind          ErrorKind
	Message       string
	StatusCode    int
	Retryable     bool
	Cost          float64
	PartialErrors []model.PartialError
	Err           error
}

func (e *AggregationError) Error() string {
	prefix := string(e.Kind)
	if e.Source != "" {
		prefix = fmt.Sprintf("%s %s", e.Source, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// classifySourceError turns an adapter failure into a partial-error entry.
func classifySourceError(src model.Source, err error) model.PartialError {
	pe := model.PartialError{Source: src, Message: err.Error(), StatusCode: 500}

	var se *source.SourceError
	if errors.As(err, &se) {
		pe.Cost = se.Cost
	}

	var ce *api.ClassifiedError
	if !errors.As(err, &ce) {
		ce = api.NewErrorClassifier().Classify(err)
	}
	pe.Message = ce.Message
	pe.StatusCode = ce.StatusCode
	pe.Retryable = ce.Retryable
	return pe
}

func sourceFailed(pe model.PartialError, err error) *AggregationError {
	return &AggregationError{
		Source:     pe.Source,
		Kind:       KindSourceFailed,
		Message:    pe.Message,
		StatusCode: pe.StatusCode,
		Retryable:  pe.Retryable,
		Cost:       pe.Cost,
		Err:        err,
	}
}

// allSourcesFailed reports the first failure in canonical order; the request
// is retryable if any source could be.
func allSourcesFailed(partials []model.PartialError, cost float64) *AggregationError {
	first := partials[0]
	retryable := false
	for _, pe := range partials {
		retryable = retryable || pe.Retryable
	}
	return &AggregationError{
		Kind:          KindAllSourcesFailed,
		Message:       fmt.Sprintf("all %d sources failed; first: %s %s", len(partials), first.Source, first.Message),
		StatusCode:    first.StatusCode,
		Retryable:     retryable,
		Cost:          cost,
		PartialErrors: partials,
	}
}

func timedOut(cost float64, partials []model.PartialError, err error) *AggregationError {
	return &AggregationError{
		Kind:          KindTimeout,
		Message:       "Request timed out",
		StatusCode:    504,
		Retryable:     true,
		Cost:          cost,
		PartialErrors: partials,
		Err:           err,
	}
}

func invalidRequest(msg string) *AggregationError {
	return &AggregationError{
		Kind:       KindInvalidRequest,
		Message:    msg,
		StatusCode: 400,
	}
}
