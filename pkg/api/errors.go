package api

import (
	"fmt"
)

// TransportErrorKind tells why a single upstream call did not produce a 2xx body.
type TransportErrorKind string

const (
	KindNetwork    TransportErrorKind = "NETWORK"
	KindTimeout    TransportErrorKind = "TIMEOUT"
	KindHTTPStatus TransportErrorKind = "HTTP_STATUS"
)

// Low-level failure codes recognised by the classifier.
const (
	CodeConnRefused = "ECONNREFUSED"
	CodeNotFound    = "ENOTFOUND"
	CodeTimedOut    = "ETIMEDOUT"
	CodeConnAborted = "ECONNABORTED"
)

// TransportError is returned by Caller implementations.
type TransportError struct {
	Kind       TransportErrorKind
	HTTPStatus int
	Code       string
	Endpoint   string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("upstream %s returned HTTP %d", e.Endpoint, e.HTTPStatus)
	case KindTimeout:
		return fmt.Sprintf("upstream %s timed out", e.Endpoint)
	default:
		if e.Code != "" {
			return fmt.Sprintf("upstream %s unreachable (%s): %v", e.Endpoint, e.Code, e.Err)
		}
		return fmt.Sprintf("upstream %s request failed: %v", e.Endpoint, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClassifiedError is the final error of a retried operation. Cost is
// everything the provider billed across all attempts.
type ClassifiedError struct {
	StatusCode int
	Retryable  bool
	Message    string
	Attempts   int
	Cost       float64
	Err        error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}
