package config

import "time"

// DaemonConfig is the root configuration for a walletd instance.
type DaemonConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Chains    []ChainConfig   `yaml:"chains"`
	Storage   StorageConfig   `yaml:"storage"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	RPC       RPCConfig       `yaml:"rpc"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP control surface settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ChainConfig describes one configured chain.
type ChainConfig struct {
	ID      int      `yaml:"id"`
	Name    string   `yaml:"name"`
	RPCURLs []string `yaml:"rpc_urls"`
	Testnet bool     `yaml:"testnet"`
}

// StorageConfig selects the state persistence backend.
type StorageConfig struct {
	// Backend is one of "memory", "file", "postgres".
	Backend string `yaml:"backend"`
	Key     string `yaml:"key"`

	// Path is the state file location for the file backend.
	Path string `yaml:"path"`

	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	Table    string `yaml:"table"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// DiscoveryConfig holds the provider discovery feed settings.
type DiscoveryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	FeedURL    string `yaml:"feed_url"`
	BufferSize int    `yaml:"buffer_size"`
}

// RPCConfig holds outbound RPC transport settings.
type RPCConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	PollingInterval time.Duration `yaml:"polling_interval"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
