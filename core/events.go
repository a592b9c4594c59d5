package core

import (
	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/emitter"
)

// wiring holds the unsubscribe funcs for one connector's mediator
// listeners. Which listeners are attached depends on where the
// connector is in its lifecycle: a disconnected connector is observed
// for connect only, a connected one for change and disconnect only.
type wiring struct {
	offConnect    func()
	offChange     func()
	offDisconnect func()
}

func (w *wiring) detach() {
	if w.offConnect != nil {
		w.offConnect()
		w.offConnect = nil
	}
	if w.offChange != nil {
		w.offChange()
		w.offChange = nil
	}
	if w.offDisconnect != nil {
		w.offDisconnect()
		w.offDisconnect = nil
	}
}

// wireDisconnected puts a connector's emitter in disconnected mode:
// only connect is observed, so a dropped connector can spontaneously
// reconnect later.
func (c *Config) wireDisconnected(cn *connector.Connector) {
	uid := cn.UID

	c.wiringsMu.Lock()
	defer c.wiringsMu.Unlock()

	w, ok := c.wirings[uid]
	if !ok {
		w = &wiring{}
		c.wirings[uid] = w
	}
	w.detach()
	w.offConnect = cn.Emitter.OnConnect(func(ev emitter.ConnectEvent) {
		c.onConnect(uid, ev)
	})
}

// wireConnected puts a connector's emitter in connected mode: change
// and disconnect are observed, connect is not.
func (c *Config) wireConnected(cn *connector.Connector) {
	uid := cn.UID

	c.wiringsMu.Lock()
	defer c.wiringsMu.Unlock()

	w, ok := c.wirings[uid]
	if !ok {
		w = &wiring{}
		c.wirings[uid] = w
	}
	w.detach()
	w.offChange = cn.Emitter.OnChange(func(ev emitter.ChangeEvent) {
		c.onChange(uid, ev)
	})
	w.offDisconnect = cn.Emitter.OnDisconnect(func(ev emitter.DisconnectEvent) {
		c.onDisconnect(uid)
	})
}

// unwire detaches all mediator listeners for uid.
func (c *Config) unwire(uid string) {
	c.wiringsMu.Lock()
	defer c.wiringsMu.Unlock()
	if w, ok := c.wirings[uid]; ok {
		w.detach()
		delete(c.wirings, uid)
	}
}

// onConnect folds a connector's connect event into state.
//
// The transition is dropped while a connect or reconnect attempt is
// in flight: a connector's spontaneous self-connect must not collide
// with it. Events from unregistered uids are dropped too.
func (c *Config) onConnect(uid string, ev emitter.ConnectEvent) {
	cn, registered := c.connectorByUID(uid)

	var applied bool
	c.store.SetState(func(s State) State {
		if s.Status == StatusConnecting || s.Status == StatusReconnecting {
			return s
		}
		if !registered {
			return s
		}

		s.Connections = s.Connections.With(uid, Connection{
			Accounts:  ev.Accounts,
			ChainID:   ev.ChainID,
			Connector: cn,
		})
		s.Current = uid
		s.Status = StatusConnected
		applied = true
		return s
	})

	if applied {
		c.wireConnected(cn)
		c.logger.Debug("connection established",
			"uid", uid,
			"chain_id", ev.ChainID,
			"accounts", len(ev.Accounts),
		)
	}
}

// onChange replaces the connection for uid with a merged value. The
// event requires an existing connection; anything else is a no-op.
func (c *Config) onChange(uid string, ev emitter.ChangeEvent) {
	c.store.SetState(func(s State) State {
		prev, ok := s.Connections.Get(uid)
		if !ok {
			return s
		}

		next := Connection{
			Accounts:  prev.Accounts,
			ChainID:   prev.ChainID,
			Connector: prev.Connector,
		}
		if len(ev.Accounts) > 0 {
			next.Accounts = ev.Accounts
		}
		if ev.ChainID != 0 {
			next.ChainID = ev.ChainID
		}

		s.Connections = s.Connections.With(uid, next)
		return s
	})
}

// onDisconnect removes the connection for uid. If the current
// connection went away and others remain, the earliest remaining
// connection (insertion order) is promoted.
func (c *Config) onDisconnect(uid string) {
	var removed bool
	c.store.SetState(func(s State) State {
		if _, ok := s.Connections.Get(uid); !ok {
			return s
		}
		removed = true

		s.Connections = s.Connections.Without(uid)

		if s.Connections.Len() == 0 {
			s.Current = ""
			s.Status = StatusDisconnected
			return s
		}
		if s.Current == uid {
			first, _, _ := s.Connections.First()
			s.Current = first
		}
		return s
	})

	if !removed {
		return
	}
	if cn, ok := c.connectorByUID(uid); ok {
		c.wireDisconnected(cn)
	} else {
		c.unwire(uid)
	}
	c.logger.Debug("connection removed", "uid", uid)
}
