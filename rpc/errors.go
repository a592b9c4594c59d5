package rpc

import (
	"errors"
	"fmt"
)

// ErrNoEndpoint indicates a chain was configured without any RPC URL.
var ErrNoEndpoint = errors.New("rpc: chain has no endpoint")

// HTTPError represents a non-2xx response from an RPC endpoint.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("rpc http error %d from %s", e.StatusCode, e.URL)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Error represents a JSON-RPC error object returned by an endpoint.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRetryable reports whether an error is safe to retry. JSON-RPC
// application errors are not retried; transport-level failures and
// retryable HTTP statuses are.
func IsRetryable(err error) bool {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	return true
}
