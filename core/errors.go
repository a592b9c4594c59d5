package core

import (
	"errors"
	"fmt"
)

// ErrNoChains indicates a Config was created without any chain.
var ErrNoChains = errors.New("core: at least one chain is required")

// ErrNoConnectorAvailable indicates the fallback transport exhausted
// its connector pool without finding a working provider.
var ErrNoConnectorAvailable = errors.New("core: no connector available")

// ChainNotConfiguredError indicates a requested or derived chain id
// is not in the configured chain list and no usable fallback client
// exists.
type ChainNotConfiguredError struct {
	ChainID int
}

func (e *ChainNotConfiguredError) Error() string {
	return fmt.Sprintf("core: chain %d not configured", e.ChainID)
}

// ConnectorSetupError indicates a factory or its setup hook failed
// during registration. The connector was not added to the registry.
type ConnectorSetupError struct {
	Name string
	Err  error
}

func (e *ConnectorSetupError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("core: connector %q setup failed: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("core: connector setup failed: %v", e.Err)
}

func (e *ConnectorSetupError) Unwrap() error {
	return e.Err
}
