package rpc

import (
	"context"
	"time"
)

// Requester is the single capability every provider and transport
// shares: forward an opaque (method, params) call and return the raw
// result.
type Requester interface {
	Request(ctx context.Context, method string, params any) (any, error)
}

// TransportConfig carries routing metadata for a transport.
type TransportConfig struct {
	Key  string // Stable key (e.g., "http", "fallback")
	Name string // Human-readable name
	Type string // Transport kind tag

	RetryCount int           // Max retry attempts after the first try
	RetryDelay time.Duration // Base delay between attempts
}

// Transport routes opaque requests to some provider or endpoint.
type Transport interface {
	Requester

	// Config returns the transport's metadata.
	Config() TransportConfig
}

// RequesterFunc adapts a function to the Requester interface.
type RequesterFunc func(ctx context.Context, method string, params any) (any, error)

// Request implements Requester.
func (f RequesterFunc) Request(ctx context.Context, method string, params any) (any, error) {
	return f(ctx, method, params)
}
