package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerAddr      = ":8547"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultStorageBackend  = "memory"
	DefaultStorageKey      = "wallet.store"
	DefaultStoragePath     = "walletd.state.json"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultDBTable         = "wallet_state"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultFeedBufferSize  = 64
	DefaultRPCTimeout      = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultPollingInterval = 4 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

func (c *DaemonConfig) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Storage defaults
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultStorageKey
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}
	applyDBDefaults(&c.Storage.Postgres)

	// Discovery defaults
	if c.Discovery.BufferSize == 0 {
		c.Discovery.BufferSize = DefaultFeedBufferSize
	}

	// RPC defaults
	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = DefaultRPCTimeout
	}
	if c.RPC.MaxRetries == 0 {
		c.RPC.MaxRetries = DefaultMaxRetries
	}
	if c.RPC.PollingInterval == 0 {
		c.RPC.PollingInterval = DefaultPollingInterval
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.Table == "" {
		db.Table = DefaultDBTable
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
