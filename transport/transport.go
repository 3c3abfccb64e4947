// Package transport executes storefront API requests. The query cache and
// mutation executor consume the Doer interface only; the HTTP client here is
// the default implementation. Retry is bounded and lives entirely in this
// package: by the time a caller sees an error, retries are exhausted.
package transport

import (
	"context"
	"fmt"
	"net/url"
)

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded unless FormEncoded is set.
	Body        any
	FormEncoded bool
}

// Doer executes a request and returns the raw response body. Any failure,
// network or HTTP, surfaces as *Error; callers treat the shapes uniformly.
type Doer interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// Error is the structured transport failure: the HTTP status (0 when the
// request never produced a response) and the raw response body.
type Error struct {
	Status int
	Body   []byte
	cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		if e.cause != nil {
			return "transport: " + e.cause.Error()
		}
		return "transport: request failed"
	}
	return fmt.Sprintf("transport: status %d", e.Status)
}

// Unwrap exposes the underlying network error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure is worth another attempt. Client
// errors (4xx) are authoritative answers, not transient faults.
func (e *Error) Retryable() bool {
	return e.Status == 0 || e.Status >= 500
}

// TokenSource supplies the persisted credentials attached to every request.
// It fronts the external key-value storage collaborator that owns the bearer
// token and locale.
type TokenSource interface {
	// Token returns the bearer token, or false when the client is anonymous.
	Token() (string, bool)
	// Locale returns the Accept-Language value, empty for the default.
	Locale() string
}

// StaticTokenSource is a fixed TokenSource, useful for tests and tools.
type StaticTokenSource struct {
	Bearer string
	Lang   string
}

// Token implements TokenSource.
func (s StaticTokenSource) Token() (string, bool) {
	return s.Bearer, s.Bearer != ""
}

// Locale implements TokenSource.
func (s StaticTokenSource) Locale() string {
	return s.Lang
}
