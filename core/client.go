package core

import (
	"context"
	"time"

	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/rpc"
)

// GetClient returns the RPC client for a chain, building and caching
// it on first use. chainID 0 means the store's current chain.
//
// Clients are memoized by chain id for the lifetime of the Config and
// never evicted, even when a different connector later becomes
// current for that chain: the cached client keeps its original
// transport.
func (c *Config) GetClient(chainID int) (*rpc.Client, error) {
	state := c.store.GetState()

	explicit := chainID != 0
	target := chainID
	if !explicit {
		target = state.ChainID
	}

	chain, configured := rpc.FindChain(c.chains, target)
	if explicit && !configured {
		return nil, &ChainNotConfiguredError{ChainID: target}
	}

	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()

	if !configured {
		// Graceful fallback: no explicit chain was requested, so a
		// previously built client for the active chain still serves.
		if cached, ok := c.clients[state.ChainID]; ok {
			return cached, nil
		}
		return nil, &ChainNotConfiguredError{ChainID: target}
	}

	if cached, ok := c.clients[target]; ok {
		return cached, nil
	}

	transport, err := c.transportFor(state, chain)
	if err != nil {
		return nil, err
	}

	client := c.buildClient(chain, transport)
	c.clients[target] = client
	return client, nil
}

// transportFor picks the transport for a new client: the active
// connector's own provider when it is flagged as priority, else the
// configured per-chain transport, else HTTP on the chain's endpoint.
func (c *Config) transportFor(state State, chain rpc.Chain) (rpc.Transport, error) {
	if conn, ok := state.Connections.Get(state.Current); ok {
		if conn.Connector != nil && conn.Connector.IsPriorityProvider {
			return newProviderTransport(conn.Connector), nil
		}
	}

	if t, ok := c.transports[chain.ID]; ok {
		return t, nil
	}
	if len(chain.RPCURLs) == 0 {
		return nil, rpc.ErrNoEndpoint
	}
	return rpc.NewHTTP(chain.RPCURLs[0], rpc.WithLogger(c.logger)), nil
}

// providerTransport forwards every request to a connector's live
// provider, re-resolving the handle on each call so a connector that
// swaps its provider is transparently followed.
type providerTransport struct {
	cn  *connector.Connector
	cfg rpc.TransportConfig
}

func newProviderTransport(cn *connector.Connector) rpc.Transport {
	return &providerTransport{
		cn: cn,
		cfg: rpc.TransportConfig{
			Key:        "connector",
			Name:       cn.Name,
			Type:       "provider",
			RetryDelay: 150 * time.Millisecond,
		},
	}
}

func (t *providerTransport) Config() rpc.TransportConfig {
	return t.cfg
}

func (t *providerTransport) Request(ctx context.Context, method string, params any) (any, error) {
	provider, err := t.cn.GetProvider(ctx)
	if err != nil {
		return nil, err
	}
	return provider.Request(ctx, method, params)
}
