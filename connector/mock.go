package connector

import (
	"context"
	"errors"
	"sync"

	"github.com/rickgao/walletcore/emitter"
)

// ErrMockNotConnected is returned by the mock provider before Connect.
var ErrMockNotConnected = errors.New("connector: mock not connected")

// MockConfig configures a mock connector.
type MockConfig struct {
	ID       string // defaults to "mock"
	Name     string // defaults to "Mock Wallet"
	Accounts []string
	ChainID  int

	Priority bool

	// ProviderErr makes GetProvider fail.
	ProviderErr error

	// ConnectErr makes Connect fail.
	ConnectErr error

	// RequestFn overrides the provider's request handling.
	RequestFn func(ctx context.Context, method string, params any) (any, error)
}

// MockProvider is the provider handle behind a mock connector. Tests
// drive lifecycle events through it.
type MockProvider struct {
	cfg MockConfig
	em  *emitter.Emitter

	mu        sync.Mutex
	connected bool
	accounts  []string
	chainID   int

	// Calls records every request forwarded to this provider.
	Calls []string
}

// Request implements Provider.
func (p *MockProvider) Request(ctx context.Context, method string, params any) (any, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, method)
	connected := p.connected
	accounts := p.accounts
	chainID := p.chainID
	p.mu.Unlock()

	if p.cfg.RequestFn != nil {
		return p.cfg.RequestFn(ctx, method, params)
	}

	switch method {
	case "eth_accounts":
		if !connected {
			return nil, ErrMockNotConnected
		}
		return accounts, nil
	case "eth_chainId":
		return chainID, nil
	default:
		return nil, nil
	}
}

// EmitConnect marks the provider connected and raises connect.
func (p *MockProvider) EmitConnect(accounts []string, chainID int) {
	p.mu.Lock()
	p.connected = true
	p.accounts = accounts
	p.chainID = chainID
	p.mu.Unlock()
	p.em.EmitConnect(emitter.ConnectEvent{Accounts: accounts, ChainID: chainID})
}

// EmitChange raises a change event (zero-value fields = unchanged).
func (p *MockProvider) EmitChange(accounts []string, chainID int) {
	p.mu.Lock()
	if accounts != nil {
		p.accounts = accounts
	}
	if chainID != 0 {
		p.chainID = chainID
	}
	p.mu.Unlock()
	p.em.EmitChange(emitter.ChangeEvent{Accounts: accounts, ChainID: chainID})
}

// EmitDisconnect marks the provider disconnected and raises
// disconnect.
func (p *MockProvider) EmitDisconnect() {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.em.EmitDisconnect(emitter.DisconnectEvent{})
}

// NewMock returns a factory producing a mock connector. The provider
// handle is shared with the caller through the returned getter so
// tests can drive events after Setup.
func NewMock(cfg MockConfig) (Factory, func() *MockProvider) {
	if cfg.ID == "" {
		cfg.ID = "mock"
	}
	if cfg.Name == "" {
		cfg.Name = "Mock Wallet"
	}

	var provider *MockProvider

	factory := func(cc Context) (*Connector, error) {
		provider = &MockProvider{
			cfg:      cfg,
			em:       cc.Emitter,
			accounts: cfg.Accounts,
			chainID:  cfg.ChainID,
		}

		c := &Connector{
			UID:                cc.Emitter.UID(),
			ID:                 cfg.ID,
			Name:               cfg.Name,
			Emitter:            cc.Emitter,
			IsPriorityProvider: cfg.Priority,
			GetProvider: func(context.Context) (Provider, error) {
				if cfg.ProviderErr != nil {
					return nil, cfg.ProviderErr
				}
				return provider, nil
			},
			Connect: func(_ context.Context, chainID int) (ConnectResult, error) {
				if cfg.ConnectErr != nil {
					return ConnectResult{}, cfg.ConnectErr
				}
				target := chainID
				if target == 0 {
					target = cfg.ChainID
				}
				provider.EmitConnect(cfg.Accounts, target)
				return ConnectResult{Accounts: cfg.Accounts, ChainID: target}, nil
			},
			IsAuthorized: func(context.Context) (bool, error) {
				return len(cfg.Accounts) > 0, nil
			},
			Disconnect: func(context.Context) error {
				provider.EmitDisconnect()
				return nil
			},
		}
		return c, nil
	}

	return factory, func() *MockProvider { return provider }
}
