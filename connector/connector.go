package connector

import (
	"context"
	"log/slog"

	"github.com/rickgao/walletcore/emitter"
	"github.com/rickgao/walletcore/rpc"
	"github.com/rickgao/walletcore/storage"
)

// Provider is the single capability all connectors expose: forward an
// opaque (method, params) call to the wallet and return the result.
type Provider = rpc.Requester

// ConnectResult reports what a connector connected to.
type ConnectResult struct {
	Accounts []string
	ChainID  int
}

// Connector wraps one wallet-style provider. Required capability is
// GetProvider; the rest are optional and checked for nil by callers.
type Connector struct {
	// UID is the process-unique instance id, equal to the attached
	// emitter's uid. Minted by the registry, never persisted across
	// sessions as an identity.
	UID string

	// ID is the stable connector type id (e.g., "injected"). Used to
	// re-match persisted connections to fresh connector instances.
	ID string

	Name    string
	Emitter *emitter.Emitter

	// IsPriorityProvider routes the chain client's requests through
	// this connector's live provider instead of the configured
	// per-chain transport.
	IsPriorityProvider bool

	// GetProvider resolves the connector's current provider. Callers
	// must re-resolve rather than cache the handle: a connector may
	// swap its underlying provider (e.g., after re-authenticating).
	GetProvider func(ctx context.Context) (Provider, error)

	// Setup runs once after registration. Optional.
	Setup func(ctx context.Context) error

	// Connect establishes a connection, typically emitting a connect
	// event as a side effect. Optional.
	Connect func(ctx context.Context, chainID int) (ConnectResult, error)

	// IsAuthorized reports whether a silent reconnect is possible.
	// Optional.
	IsAuthorized func(ctx context.Context) (bool, error)

	// Disconnect tears the connection down. Optional.
	Disconnect func(ctx context.Context) error
}

// Context is the shared construction context handed to factories.
type Context struct {
	Chains  []rpc.Chain
	Storage storage.Storage
	Emitter *emitter.Emitter
	Logger  *slog.Logger
}

// Factory builds a connector from the shared context. Factories must
// not share mutable state between the connectors they produce.
type Factory func(ctx Context) (*Connector, error)
