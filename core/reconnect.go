package core

import (
	"context"
)

// Reconnect re-establishes the rehydrated connections against the live
// connector registry. Persisted connections are matched by stable
// connector id; entries whose connector is gone, no longer authorized,
// or fails to connect are dropped.
//
// A Reconnect that overlaps a connect attempt or another reconnect is
// a no-op, as is one with nothing to recover.
func (c *Config) Reconnect(ctx context.Context) error {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return nil
	}
	defer c.reconnecting.Store(false)

	var (
		pending []string
		current string
	)
	proceed := false
	c.store.SetState(func(s State) State {
		if s.Status == StatusConnecting || s.Connections.Len() == 0 {
			return s
		}
		proceed = true
		pending = s.Connections.UIDs()
		current = s.Current
		s.Status = StatusReconnecting
		return s
	})
	if !proceed {
		return nil
	}

	var firstErr error
	recovered := 0

	for _, uid := range pending {
		state := c.store.GetState()
		stale, ok := state.Connections.Get(uid)
		if !ok {
			continue
		}

		cn := stale.Connector
		if cn != nil && cn.Connect == nil {
			// A placeholder from rehydration carries no capabilities;
			// resolve the live connector by stable id.
			if live, found := c.connectorByID(cn.ID); found {
				cn = live
			} else {
				cn = nil
			}
		}
		if cn == nil || cn.Connect == nil {
			c.dropStale(uid, &current)
			continue
		}

		if cn.IsAuthorized != nil {
			authorized, err := cn.IsAuthorized(ctx)
			if err != nil || !authorized {
				c.logger.Debug("skipping unauthorized connector", "id", cn.ID, "error", err)
				c.dropStale(uid, &current)
				continue
			}
		}

		res, err := cn.Connect(ctx, stale.ChainID)
		if err != nil {
			c.logger.Warn("reconnect failed", "id", cn.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			c.dropStale(uid, &current)
			continue
		}

		// The connector's own connect event was dropped by the
		// in-flight guard; fold the result here, replacing the stale
		// uid with the live connector's.
		c.store.SetState(func(s State) State {
			s.Connections = s.Connections.Without(uid).With(cn.UID, Connection{
				Accounts:  res.Accounts,
				ChainID:   res.ChainID,
				Connector: cn,
			})
			return s
		})
		if current == uid {
			current = cn.UID
		}
		c.wireConnected(cn)
		recovered++
	}

	c.store.SetState(func(s State) State {
		if s.Connections.Len() == 0 {
			s.Current = ""
			s.Status = StatusDisconnected
			return s
		}
		if _, ok := s.Connections.Get(current); ok {
			s.Current = current
		} else {
			uid, _, _ := s.Connections.First()
			s.Current = uid
		}
		s.Status = StatusConnected
		return s
	})

	if recovered == 0 && firstErr != nil {
		return firstErr
	}
	return nil
}

// dropStale removes one unrecoverable rehydrated connection.
func (c *Config) dropStale(uid string, current *string) {
	c.store.SetState(func(s State) State {
		s.Connections = s.Connections.Without(uid)
		return s
	})
	if *current == uid {
		*current = ""
	}
}
