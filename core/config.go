package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/discovery"
	"github.com/rickgao/walletcore/emitter"
	"github.com/rickgao/walletcore/rpc"
	"github.com/rickgao/walletcore/storage"
	"github.com/rickgao/walletcore/store"
)

// Default persistence key and schema version.
const (
	defaultStorageKey = "wallet.store"
	stateVersion      = 1
)

// Options configure a Config.
type Options struct {
	// Chains lists the configured chains. Required, non-empty; the
	// first chain is the initial chain.
	Chains []rpc.Chain

	// Connectors are registered during New, in order.
	Connectors []connector.Factory

	// Storage persists the {connections, chainId, current} subset.
	// Nil disables persistence.
	Storage    storage.Storage
	StorageKey string // defaults to "wallet.store"

	// Transports maps chain id to a transport, overriding the default
	// HTTP transport built from the chain's RPC URL. Mutually
	// exclusive with Client.
	Transports map[int]rpc.Transport

	// Client overrides client construction entirely. Mutually
	// exclusive with Transports. The variant is resolved once here,
	// not re-inspected per call.
	Client func(chain rpc.Chain, transport rpc.Transport) *rpc.Client

	// ClientOptions apply to clients built the default way.
	// Per-chain-keyed values are resolved per built client.
	ClientOptions rpc.ClientOptions

	// Discovery announces additional providers. Nil disables the
	// discovery bridge.
	Discovery        discovery.Announcer
	DisableDiscovery bool

	// DisableChainSync turns off the derived subscription that keeps
	// ChainID synchronized with the active connection's chain.
	DisableChainSync bool

	// Headless marks a non-interactive context: hydration is deferred
	// until Hydrate is called and the discovery bridge stays off.
	Headless bool

	Logger *slog.Logger
}

// Config is the public surface application code binds to.
type Config struct {
	chains  []rpc.Chain
	storage storage.Storage
	logger  *slog.Logger

	store     *store.Store[State]
	persisted *store.Persisted[State] // nil when storage is nil

	connectors *store.Store[[]*connector.Connector]
	discovered *discoveredSet

	wiringsMu sync.Mutex
	wirings   map[string]*wiring

	clientsMu   sync.Mutex
	clients     map[int]*rpc.Client
	buildClient func(chain rpc.Chain, transport rpc.Transport) *rpc.Client

	transports map[int]rpc.Transport
	clientOpts rpc.ClientOptions

	reconnecting atomic.Bool

	offChainSync func()
	offDiscovery func()
}

// New creates a connection manager.
func New(opts Options) (*Config, error) {
	if len(opts.Chains) == 0 {
		return nil, ErrNoChains
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Config{
		chains:     opts.Chains,
		storage:    opts.Storage,
		logger:     logger,
		connectors: store.New[[]*connector.Connector](nil),
		discovered: newDiscoveredSet(),
		wirings:    make(map[string]*wiring),
		clients:    make(map[int]*rpc.Client),
		transports: opts.Transports,
		clientOpts: opts.ClientOptions,
	}

	// Resolve the client-vs-transports variant once.
	if opts.Client != nil {
		c.buildClient = opts.Client
	} else {
		c.buildClient = func(chain rpc.Chain, transport rpc.Transport) *rpc.Client {
			return rpc.NewClient(chain, transport, c.clientOpts)
		}
	}

	initial := initialState(opts.Chains)
	if opts.Storage != nil {
		key := opts.StorageKey
		if key == "" {
			key = defaultStorageKey
		}
		c.persisted = store.NewPersisted(initial, store.PersistOptions[State]{
			Storage:       opts.Storage,
			Key:           key,
			Version:       stateVersion,
			Partialize:    partializeState,
			Merge:         mergePersisted(opts.Chains),
			SkipHydration: opts.Headless,
			Logger:        logger,
		})
		c.store = c.persisted.Store
	} else {
		c.store = store.New(initial)
	}

	if !opts.DisableChainSync {
		c.offChainSync = c.syncConnectedChain()
	}

	for _, factory := range opts.Connectors {
		if _, err := c.Setup(context.Background(), factory); err != nil {
			return nil, err
		}
	}

	if opts.Discovery != nil && !opts.DisableDiscovery && !opts.Headless {
		c.bridgeDiscovery(opts.Discovery.Providers())
		c.offDiscovery = opts.Discovery.Subscribe(c.bridgeDiscovery)
	}

	return c, nil
}

// Close detaches derived subscriptions and the discovery bridge.
func (c *Config) Close() {
	if c.offChainSync != nil {
		c.offChainSync()
	}
	if c.offDiscovery != nil {
		c.offDiscovery()
	}
}

// Chains returns the configured chains.
func (c *Config) Chains() []rpc.Chain {
	out := make([]rpc.Chain, len(c.chains))
	copy(out, c.chains)
	return out
}

// Storage returns the persistence backend, or nil.
func (c *Config) Storage() storage.Storage {
	return c.storage
}

// State returns the current connection state.
func (c *Config) State() State {
	return c.store.GetState()
}

// Store exposes the reactive state container for selector
// subscriptions.
func (c *Config) Store() *store.Store[State] {
	return c.store
}

// SetState commits a full next state. Structurally corrupted
// candidates (missing canonical fields) reset to the canonical
// initial state instead; the store self-heals rather than erroring.
func (c *Config) SetState(next State) {
	if !next.valid() {
		c.logger.Warn("rejecting corrupted state, resetting to initial")
		next = initialState(c.chains)
	}
	c.store.Replace(next)
}

// SubscribeState observes every state commit.
func (c *Config) SubscribeState(fn store.Listener[State]) func() {
	return c.store.SubscribeState(fn)
}

// Hydrate folds the persisted snapshot in. Only meaningful in
// headless mode, where construction defers it; a no-op without
// storage.
func (c *Config) Hydrate(ctx context.Context) error {
	if c.persisted == nil {
		return nil
	}
	return c.persisted.Hydrate(ctx)
}

// syncConnectedChain keeps ChainID following the active connection's
// reported chain, ignoring chain ids the Config was not configured
// for (those leave ChainID stale but valid).
func (c *Config) syncConnectedChain() func() {
	selector := func(s State) int {
		conn, ok := s.Connections.Get(s.Current)
		if !ok {
			return 0
		}
		return conn.ChainID
	}
	return store.Subscribe(c.store, selector, func(chainID, _ int) {
		if chainID == 0 {
			return
		}
		if _, ok := rpc.FindChain(c.chains, chainID); !ok {
			return
		}
		c.store.SetState(func(s State) State {
			if s.ChainID == chainID {
				return s
			}
			s.ChainID = chainID
			return s
		})
	}, store.SubscribeOptions[int]{})
}

// Connect runs a user-initiated connect attempt through a registered
// connector. Spontaneous connect events from other connectors are
// dropped while the attempt is in flight.
func (c *Config) Connect(ctx context.Context, cn *connector.Connector, chainID int) (connector.ConnectResult, error) {
	if cn == nil || cn.Connect == nil {
		return connector.ConnectResult{}, errors.New("core: connector cannot connect")
	}

	c.store.SetState(func(s State) State {
		s.Status = StatusConnecting
		return s
	})

	res, err := cn.Connect(ctx, chainID)
	if err != nil {
		c.store.SetState(func(s State) State {
			if s.Connections.Len() == 0 {
				s.Status = StatusDisconnected
			} else {
				s.Status = StatusConnected
			}
			return s
		})
		return connector.ConnectResult{}, err
	}

	c.store.SetState(func(s State) State {
		s.Connections = s.Connections.With(cn.UID, Connection{
			Accounts:  res.Accounts,
			ChainID:   res.ChainID,
			Connector: cn,
		})
		s.Current = cn.UID
		s.Status = StatusConnected
		return s
	})
	c.wireConnected(cn)

	return res, nil
}

// Disconnect tears down a connector's connection. The state change
// itself arrives through the connector's disconnect event; connectors
// without a disconnect capability are folded directly.
func (c *Config) Disconnect(ctx context.Context, cn *connector.Connector) error {
	if cn == nil {
		return errors.New("core: nil connector")
	}
	if cn.Disconnect != nil {
		return cn.Disconnect(ctx)
	}
	c.onDisconnect(cn.UID)
	return nil
}

// Internal exposes registry and mediator hooks for advanced and test
// integration only.
type Internal struct {
	OnConnect    func(uid string, ev emitter.ConnectEvent)
	OnChange     func(uid string, ev emitter.ChangeEvent)
	OnDisconnect func(uid string)
}

// Internal returns the advanced integration surface.
func (c *Config) Internal() Internal {
	return Internal{
		OnConnect:    c.onConnect,
		OnChange:     c.onChange,
		OnDisconnect: func(uid string) { c.onDisconnect(uid) },
	}
}
