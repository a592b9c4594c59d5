package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *DaemonConfig) Validate() error {
	if len(c.Chains) == 0 {
		return errors.New("chains must list at least one chain")
	}
	seen := make(map[int]bool, len(c.Chains))
	for i, chain := range c.Chains {
		if chain.ID == 0 {
			return fmt.Errorf("chains[%d].id is required", i)
		}
		if seen[chain.ID] {
			return fmt.Errorf("chains[%d].id %d is duplicated", i, chain.ID)
		}
		seen[chain.ID] = true
		if len(chain.RPCURLs) == 0 {
			return fmt.Errorf("chains[%d].rpc_urls must list at least one endpoint", i)
		}
	}

	switch c.Storage.Backend {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the file backend")
		}
	case "postgres":
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.backend must be memory, file, or postgres, got %q", c.Storage.Backend)
	}

	if c.Discovery.Enabled && c.Discovery.FeedURL == "" {
		return errors.New("discovery.feed_url is required when discovery is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
