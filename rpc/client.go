package rpc

import (
	"context"
	"time"
)

// PerChain holds an option value that is either a single default or
// keyed by chain id. The variant is resolved once per client build.
type PerChain[T any] struct {
	Default T
	ByChain map[int]T
}

// Resolve returns the value for the given chain id, falling back to
// the default when no per-chain entry exists.
func (p PerChain[T]) Resolve(chainID int) T {
	if v, ok := p.ByChain[chainID]; ok {
		return v
	}
	return p.Default
}

// BatchConfig controls request batching on a client.
type BatchConfig struct {
	Enabled   bool
	Size      int           // Max calls per batch
	Wait      time.Duration // Max time to hold a batch open
	Multicall bool          // Aggregate eth_call-style reads
}

// ClientOptions configure a Client beyond its chain and transport.
type ClientOptions struct {
	// PollingInterval is per-chain-resolvable.
	PollingInterval PerChain[time.Duration]

	// CacheTime bounds response reuse, per-chain-resolvable.
	CacheTime PerChain[time.Duration]

	Batch BatchConfig
}

// Client is an opaque RPC handle bound to exactly one chain and one
// transport. Cached clients keep their original transport even if a
// different connector later serves the chain.
type Client struct {
	chain     Chain
	transport Transport

	pollingInterval time.Duration
	cacheTime       time.Duration
	batch           BatchConfig
}

// NewClient builds a client for the chain over the given transport.
// Per-chain-keyed options are resolved here, once.
func NewClient(chain Chain, transport Transport, opts ClientOptions) *Client {
	polling := opts.PollingInterval.Resolve(chain.ID)
	if polling == 0 {
		polling = 4 * time.Second
	}

	return &Client{
		chain:           chain,
		transport:       transport,
		pollingInterval: polling,
		cacheTime:       opts.CacheTime.Resolve(chain.ID),
		batch:           opts.Batch,
	}
}

// Chain returns the chain this client is bound to.
func (c *Client) Chain() Chain {
	return c.chain
}

// Transport returns the bound transport.
func (c *Client) Transport() Transport {
	return c.transport
}

// PollingInterval returns the resolved polling interval.
func (c *Client) PollingInterval() time.Duration {
	return c.pollingInterval
}

// Request forwards an opaque call through the bound transport.
func (c *Client) Request(ctx context.Context, method string, params any) (any, error) {
	return c.transport.Request(ctx, method, params)
}
