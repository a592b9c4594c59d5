package core

import (
	"encoding/json"
	"fmt"

	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/rpc"
)

// Status is the coarse connection status.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

// Connection is one live connection. Connections are value-replaced
// wholesale, never mutated in place, so subscribers observe a new
// identity on every change.
type Connection struct {
	Accounts  []string
	ChainID   int
	Connector *connector.Connector
}

// Connections is an insertion-ordered uid -> Connection map with
// copy-on-write updates. The zero value is the "missing" (corrupted)
// container; use NewConnections for a valid empty one.
type Connections struct {
	order []string
	m     map[string]Connection
}

// NewConnections returns a valid empty container.
func NewConnections() Connections {
	return Connections{m: make(map[string]Connection)}
}

// Valid reports whether the container is structurally present.
func (c Connections) Valid() bool {
	return c.m != nil
}

// Len returns the number of connections.
func (c Connections) Len() int {
	return len(c.order)
}

// Get returns the connection for uid.
func (c Connections) Get(uid string) (Connection, bool) {
	conn, ok := c.m[uid]
	return conn, ok
}

// With returns a copy with conn inserted or overwritten for uid.
// Insertion order is preserved for existing uids.
func (c Connections) With(uid string, conn Connection) Connections {
	next := Connections{
		order: make([]string, len(c.order), len(c.order)+1),
		m:     make(map[string]Connection, len(c.m)+1),
	}
	copy(next.order, c.order)
	for k, v := range c.m {
		next.m[k] = v
	}
	if _, exists := next.m[uid]; !exists {
		next.order = append(next.order, uid)
	}
	next.m[uid] = conn
	return next
}

// Without returns a copy with uid removed.
func (c Connections) Without(uid string) Connections {
	next := Connections{
		order: make([]string, 0, len(c.order)),
		m:     make(map[string]Connection, len(c.m)),
	}
	for _, k := range c.order {
		if k == uid {
			continue
		}
		next.order = append(next.order, k)
		next.m[k] = c.m[k]
	}
	return next
}

// First returns the earliest-inserted connection.
func (c Connections) First() (string, Connection, bool) {
	if len(c.order) == 0 {
		return "", Connection{}, false
	}
	uid := c.order[0]
	return uid, c.m[uid], true
}

// UIDs returns the uids in insertion order.
func (c Connections) UIDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// State is the canonical connection state.
type State struct {
	ChainID     int
	Connections Connections
	Current     string // connector uid, "" = none
	Status      Status
}

// valid is the structural-integrity guard: a candidate missing a
// canonical field resets to the initial state instead of committing.
func (s State) valid() bool {
	return s.Connections.Valid() && s.ChainID != 0
}

// initialState is the canonical initial shape.
func initialState(chains []rpc.Chain) State {
	return State{
		ChainID:     chains[0].ID,
		Connections: NewConnections(),
		Status:      StatusDisconnected,
	}
}

// -----------------------------------------------------------------------------
// Persisted subset
// -----------------------------------------------------------------------------

// Only {connections, chainId, current} are persisted. Status is
// transient and always recomputed on rehydration.
type persistedState struct {
	ChainID     int                   `json:"chainId"`
	Current     string                `json:"current"`
	Connections []persistedConnection `json:"connections"`
}

type persistedConnection struct {
	UID           string   `json:"uid"`
	Accounts      []string `json:"accounts"`
	ChainID       int      `json:"chainId"`
	ConnectorID   string   `json:"connectorId"`
	ConnectorName string   `json:"connectorName"`
}

// partializeState selects the persisted subset.
func partializeState(s State) any {
	conns := make([]persistedConnection, 0, s.Connections.Len())
	for _, uid := range s.Connections.UIDs() {
		conn, _ := s.Connections.Get(uid)
		pc := persistedConnection{
			UID:      uid,
			Accounts: conn.Accounts,
			ChainID:  conn.ChainID,
		}
		if conn.Connector != nil {
			pc.ConnectorID = conn.Connector.ID
			pc.ConnectorName = conn.Connector.Name
		}
		conns = append(conns, pc)
	}
	return persistedState{
		ChainID:     s.ChainID,
		Current:     s.Current,
		Connections: conns,
	}
}

// mergePersisted folds a raw snapshot into the current state. The
// snapshot must be a JSON object containing every canonical persisted
// key; anything else is rejected and the current state kept.
func mergePersisted(chains []rpc.Chain) func(raw json.RawMessage, current State) (State, error) {
	return func(raw json.RawMessage, current State) (State, error) {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keys); err != nil {
			return current, fmt.Errorf("snapshot is not an object: %w", err)
		}
		for _, k := range []string{"chainId", "current", "connections"} {
			if _, ok := keys[k]; !ok {
				return current, fmt.Errorf("snapshot missing key %q", k)
			}
		}

		var ps persistedState
		if err := json.Unmarshal(raw, &ps); err != nil {
			return current, fmt.Errorf("decode snapshot: %w", err)
		}

		next := current
		if _, ok := rpc.FindChain(chains, ps.ChainID); ok {
			next.ChainID = ps.ChainID
		}

		conns := NewConnections()
		for _, pc := range ps.Connections {
			if pc.UID == "" || len(pc.Accounts) == 0 {
				continue
			}
			// Detached placeholder until a reconnect resolves the
			// live connector for this session.
			conns = conns.With(pc.UID, Connection{
				Accounts: pc.Accounts,
				ChainID:  pc.ChainID,
				Connector: &connector.Connector{
					UID:  pc.UID,
					ID:   pc.ConnectorID,
					Name: pc.ConnectorName,
				},
			})
		}
		next.Connections = conns

		// Status is never trusted from storage: recompute. Surviving
		// connections are reconnect-pending, never "connecting".
		next.Current = ""
		next.Status = StatusDisconnected
		if conns.Len() > 0 {
			next.Status = StatusReconnecting
			if _, ok := conns.Get(ps.Current); ok {
				next.Current = ps.Current
			} else {
				uid, _, _ := conns.First()
				next.Current = uid
			}
		}
		return next, nil
	}
}
