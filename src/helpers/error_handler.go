package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

type ConfigurationError struct{ DashboardError }
type StorageError struct{ DashboardError }

// -----------------------------------------------------------------------------

// TransportError is a network or HTTP failure of one backend call.
// Status is 0 when no response was received (dial error, timeout, cancel).
type TransportError struct {
	DashboardError
	Status int
	Path   string
}

func NewTransportError(path string, status int, message string, cause error) *TransportError {
	return &TransportError{
		DashboardError: DashboardError{Message: message, Cause: cause},
		Status:         status,
		Path:           path,
	}
}

func (e *TransportError) Error() string {
	prefix := e.Path
	if e.Status != 0 {
		prefix = fmt.Sprintf("%s (status %d)", e.Path, e.Status)
	}
	return fmt.Sprintf("%s: %s", prefix, e.DashboardError.Error())
}

// Retryable is true for failures a second attempt might fix.
func (e *TransportError) Retryable() bool {
	if errors.Is(e.Cause, context.Canceled) {
		return false
	}
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// -----------------------------------------------------------------------------

// ValidationError rejects filter input before anything is sent.
type ValidationError struct {
	DashboardError
	Field string
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		DashboardError: DashboardError{Message: fmt.Sprintf(format, args...)},
		Field:          field,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsRetryable reports whether err is a TransportError worth retrying.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}

// Reason flattens an error into the human-readable reason kept on outcomes.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		if te.Status != 0 {
			return fmt.Sprintf("HTTP %d: %s", te.Status, te.Message)
		}
		return te.DashboardError.Error()
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn once plus up to retries more times while the error
// is retryable, doubling baseDelay between attempts. Context cancellation
// ends the loop with the last error.
func RetryWithBackoff[T any](ctx context.Context, retries int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var (
		res T
		err error
	)

	for attempt := 0; attempt <= retries; attempt++ {
		res, err = fn(ctx)
		if err == nil || !IsRetryable(err) || attempt == retries {
			return res, err
		}

		delay := baseDelay * (1 << attempt)
		select {
		case <-ctx.Done():
			return res, err
		case <-time.After(delay):
		}
	}

	return res, err
}
