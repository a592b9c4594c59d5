package core

import (
	"context"
	"errors"
	"sync"

	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/discovery"
	"github.com/rickgao/walletcore/emitter"
	"github.com/rickgao/walletcore/store"
)

// Setup builds a connector from the factory and registers it. The
// factory receives a shared context with a freshly minted emitter;
// the mediator's connect handler is wired before any listener the
// factory or setup hook may add. A failing factory or setup hook is
// surfaced to the caller and the connector is not registered.
//
// Setup is safe to call concurrently for distinct factories; each
// call produces an independent connector.
func (c *Config) Setup(ctx context.Context, factory connector.Factory) (*connector.Connector, error) {
	em := emitter.New()

	cn, err := factory(connector.Context{
		Chains:  c.chains,
		Storage: c.storage,
		Emitter: em,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, &ConnectorSetupError{Err: err}
	}
	if cn == nil {
		return nil, &ConnectorSetupError{Err: errors.New("factory returned nil connector")}
	}
	if cn.Emitter == nil {
		cn.Emitter = em
	}
	if cn.UID == "" {
		cn.UID = cn.Emitter.UID()
	}
	if cn.GetProvider == nil {
		return nil, &ConnectorSetupError{Name: cn.Name, Err: errors.New("connector has no provider capability")}
	}

	// Mediator observes connect first.
	c.wireDisconnected(cn)

	if cn.Setup != nil {
		if err := cn.Setup(ctx); err != nil {
			c.unwire(cn.UID)
			return nil, &ConnectorSetupError{Name: cn.Name, Err: err}
		}
	}

	c.connectors.SetState(func(list []*connector.Connector) []*connector.Connector {
		next := make([]*connector.Connector, len(list), len(list)+1)
		copy(next, list)
		return append(next, cn)
	})

	c.logger.Debug("connector registered", "uid", cn.UID, "id", cn.ID, "name", cn.Name)
	return cn, nil
}

// Connectors returns the live connector list.
func (c *Config) Connectors() []*connector.Connector {
	return c.connectors.GetState()
}

// SubscribeConnectors observes registry changes.
func (c *Config) SubscribeConnectors(fn store.Listener[[]*connector.Connector]) func() {
	return c.connectors.SubscribeState(fn)
}

// connectorByUID looks a registered connector up by instance uid.
func (c *Config) connectorByUID(uid string) (*connector.Connector, bool) {
	for _, cn := range c.connectors.GetState() {
		if cn.UID == uid {
			return cn, true
		}
	}
	return nil, false
}

// connectorByID looks a registered connector up by stable type id.
func (c *Config) connectorByID(id string) (*connector.Connector, bool) {
	if id == "" {
		return nil, false
	}
	for _, cn := range c.connectors.GetState() {
		if cn.ID == id {
			return cn, true
		}
	}
	return nil, false
}

// ProviderDetailToConnector adapts a discovery record into a factory
// compatible with Setup.
func ProviderDetailToConnector(detail discovery.ProviderDetail) connector.Factory {
	return func(cc connector.Context) (*connector.Connector, error) {
		if detail.Provider == nil {
			return nil, errors.New("announced provider handle is nil")
		}

		id := detail.Info.RDNS
		if id == "" {
			id = detail.Info.UUID
		}

		return &connector.Connector{
			UID:     cc.Emitter.UID(),
			ID:      id,
			Name:    detail.Info.Name,
			Emitter: cc.Emitter,
			GetProvider: func(context.Context) (connector.Provider, error) {
				return detail.Provider, nil
			},
		}, nil
	}
}

// discoveredSet tracks announced provider uuids already registered so
// repeated announcements do not produce duplicate connectors.
type discoveredSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newDiscoveredSet() *discoveredSet {
	return &discoveredSet{m: make(map[string]struct{})}
}

// add returns false when the uuid was already present.
func (d *discoveredSet) add(uuid string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.m[uuid]; ok {
		return false
	}
	d.m[uuid] = struct{}{}
	return true
}

// bridgeDiscovery hot-adds announced providers as connectors. Unlike
// Setup's caller-facing contract, announcement failures are logged
// and skipped so one bad provider never blocks the batch.
func (c *Config) bridgeDiscovery(batch []discovery.ProviderDetail) {
	for _, detail := range batch {
		if detail.Info.UUID != "" && !c.discovered.add(detail.Info.UUID) {
			continue
		}
		if _, err := c.Setup(context.Background(), ProviderDetailToConnector(detail)); err != nil {
			c.logger.Warn("skipping announced provider",
				"uuid", detail.Info.UUID,
				"name", detail.Info.Name,
				"error", err,
			)
		}
	}
}
