package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrNotFound indicates a manifest could not be found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrInvalidURL indicates an invalid URL was provided
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnsupportedSource indicates no loader can handle the location
	ErrUnsupportedSource = errors.New("unsupported manifest source")

	// ErrWriteFailed indicates writing output failed
	ErrWriteFailed = errors.New("write failed")
)

// Reference resolution sentinel errors
var (
	// ErrReferenceLoad indicates the loader failed to return a referenced manifest
	ErrReferenceLoad = errors.New("reference could not be loaded")

	// ErrReferenceCycle indicates a manifest includes itself through its references
	ErrReferenceCycle = errors.New("reference cycle detected")

	// ErrReferenceDepth indicates references are nested deeper than allowed
	ErrReferenceDepth = errors.New("reference nesting too deep")
)

// ReferenceError is returned when a reference entry cannot be resolved.
// Stack holds the manifests being resolved when the failure happened,
// outermost first.
type ReferenceError struct {
	Path  string
	Line  int
	Stack []string
	Err   error
}

func (e *ReferenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reference %q", e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if len(e.Stack) > 0 {
		fmt.Fprintf(&b, " via %s", strings.Join(e.Stack, " -> "))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// NewReferenceError creates a new ReferenceError. The stack is copied.
func NewReferenceError(path string, line int, stack []string, err error) *ReferenceError {
	return &ReferenceError{
		Path:  path,
		Line:  line,
		Stack: append([]string(nil), stack...),
		Err:   err,
	}
}

// IsReferenceError reports whether err is or wraps a ReferenceError
func IsReferenceError(err error) bool {
	var refErr *ReferenceError
	return errors.As(err, &refErr)
}

// FetchError represents an error while loading a remote manifest
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
	}

	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
