package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = fmt.Errorf("validation error")
	// ErrProvider matches every *ProviderError and *AggregateError via errors.Is.
	ErrProvider = fmt.Errorf("provider error")
	// ErrTimeout matches every *TimeoutError via errors.Is.
	ErrTimeout = fmt.Errorf("timeout")
	// ErrNotFound matches every *NotFoundError via errors.Is.
	ErrNotFound = fmt.Errorf("not found")
)

// ValidationError reports bad or missing input. It is never retried.
type ValidationError struct {
	Message string
	Details map[string]any
}

// NewValidationError constructs a ValidationError with optional details.
func NewValidationError(msg string, details map[string]any) *ValidationError {
	return &ValidationError{Message: msg, Details: details}
}

func (e *ValidationError) Error() string { return e.Message }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Issues returns the governance issue list carried in Details, if any.
func (e *ValidationError) Issues() []string {
	issues, _ := e.Details["issues"].([]string)
	return issues
}

// ProviderError reports a backend that responded but signaled failure, or
// whose response could not be parsed.
type ProviderError struct {
	Provider string
	Message  string
	Details  map[string]any
}

// NewProviderError constructs a ProviderError.
func NewProviderError(provider, msg string) *ProviderError {
	return &ProviderError{Provider: provider, Message: msg}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// Is reports whether target is ErrProvider.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// TimeoutError reports a call that did not complete within its bound.
type TimeoutError struct {
	Message string
}

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(msg string) *TimeoutError {
	if msg == "" {
		msg = "Request timeout"
	}
	return &TimeoutError{Message: msg}
}

func (e *TimeoutError) Error() string { return e.Message }

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// AggregateError summarizes every underlying failure of a multi-candidate
// strategy that produced no response.
type AggregateError struct {
	Provider string
	Message  string
	Errors   []error
}

// NewAggregateError constructs an AggregateError over the given causes.
func NewAggregateError(provider, msg string, errs []error) *AggregateError {
	return &AggregateError{Provider: provider, Message: msg, Errors: errs}
}

// Messages returns the message of every underlying error, in input order.
func (e *AggregateError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("%s error: %s: [%s]", e.Provider, e.Message, strings.Join(e.Messages(), "; "))
}

// Is reports whether target is ErrProvider.
func (e *AggregateError) Is(target error) bool { return target == ErrProvider }

// Unwrap exposes the underlying errors to errors.Is / errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// NotFoundError reports a missing resource such as a session.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StatusCode maps an error to the HTTP status used by transport layers.
func StatusCode(err error) int {
	var aggErr *AggregateError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &aggErr):
		// Checked first: causes may include per-candidate validation errors.
		return http.StatusBadGateway
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
