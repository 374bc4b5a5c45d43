package api

import (
	"context"
	"errors"
	"net/http"

	"keyword-intel/pkg/envelope"
)

// ErrorClassifier decides whether a failed attempt is worth repeating.
type ErrorClassifier interface {
	Classify(err error) *ClassifiedError
}

// StatusErrorClassifier classifies by HTTP status (or the provider status
// mapped onto HTTP) and by low-level transport code.
type StatusErrorClassifier struct{}

// NewErrorClassifier creates the default classifier.
func NewErrorClassifier() ErrorClassifier {
	return &StatusErrorClassifier{}
}

var retryableCodes = map[string]bool{
	CodeConnRefused: true,
	CodeNotFound:    true,
	CodeTimedOut:    true,
	CodeConnAborted: true,
}

// Classify never returns nil for a non-nil error. Unknown failures are
// non-retryable with status 500.
func (c *StatusErrorClassifier) Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		copied := *classified
		return &copied
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &ClassifiedError{StatusCode: 499, Message: "Request cancelled", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ClassifiedError{StatusCode: http.StatusGatewayTimeout, Message: "Request deadline exceeded", Err: err}
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return c.classifyTransport(transportErr, err)
	}

	var validationErr *envelope.ValidationError
	if errors.As(err, &validationErr) {
		return &ClassifiedError{StatusCode: http.StatusBadGateway, Message: "Malformed upstream response", Err: err}
	}

	var envErr *envelope.EnvelopeError
	if errors.As(err, &envErr) {
		switch envErr.Kind {
		case envelope.KindTaskFailed, envelope.KindEnvelopeFailed:
			ce := classifyStatus(envErr.HTTPStatus())
			ce.Err = err
			return ce
		case envelope.KindNoResults:
			return &ClassifiedError{StatusCode: http.StatusNotFound, Message: "No results", Err: err}
		default:
			return &ClassifiedError{StatusCode: http.StatusBadGateway, Message: "Empty upstream response", Err: err}
		}
	}

	return &ClassifiedError{StatusCode: http.StatusInternalServerError, Message: "Unclassified upstream error", Err: err}
}

func (c *StatusErrorClassifier) classifyTransport(te *TransportError, err error) *ClassifiedError {
	switch te.Kind {
	case KindHTTPStatus:
		ce := classifyStatus(te.HTTPStatus)
		ce.Err = err
		return ce
	case KindTimeout:
		return &ClassifiedError{StatusCode: http.StatusGatewayTimeout, Retryable: true, Message: "Upstream request timed out", Err: err}
	default:
		if retryableCodes[te.Code] {
			return &ClassifiedError{StatusCode: http.StatusServiceUnavailable, Retryable: true, Message: "Upstream unreachable", Err: err}
		}
		return &ClassifiedError{StatusCode: http.StatusInternalServerError, Message: "Unclassified upstream error", Err: err}
	}
}

func classifyStatus(status int) *ClassifiedError {
	switch {
	case status == http.StatusUnauthorized:
		return &ClassifiedError{StatusCode: status, Message: "Invalid API credentials"}
	case status == http.StatusPaymentRequired:
		return &ClassifiedError{StatusCode: status, Message: "Insufficient credits"}
	case status == http.StatusTooManyRequests:
		return &ClassifiedError{StatusCode: status, Retryable: true, Message: "Rate limit exceeded"}
	case status >= 500 && status <= 599:
		return &ClassifiedError{StatusCode: status, Retryable: true, Message: "Upstream server error"}
	case status == http.StatusForbidden:
		return &ClassifiedError{StatusCode: status, Message: "Access forbidden"}
	case status >= 400 && status <= 499:
		return &ClassifiedError{StatusCode: status, Message: "Upstream rejected request"}
	default:
		return &ClassifiedError{StatusCode: http.StatusInternalServerError, Message: "Unclassified upstream error"}
	}
}

// IsRetryable is a convenience wrapper over the default classifier.
func IsRetryable(err error) bool {
	ce := NewErrorClassifier().Classify(err)
	return ce != nil && ce.Retryable
}
