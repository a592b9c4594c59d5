package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
server:
  addr: ":9000"
chains:
  - id: 1
    name: Mainnet
    rpc_urls:
      - https://rpc.main.example
  - id: 10
    name: Optimism
    rpc_urls:
      - https://rpc.op.example
    testnet: false
storage:
  backend: file
  path: /var/lib/walletd/state.json
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if len(cfg.Chains) != 2 {
		t.Fatalf("len(Chains) = %d, want 2", len(cfg.Chains))
	}
	if cfg.Chains[0].ID != 1 || cfg.Chains[0].Name != "Mainnet" {
		t.Errorf("Chains[0] = %+v, want id 1 name Mainnet", cfg.Chains[0])
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, "file")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
chains:
  - id: 1
    rpc_urls:
      - https://rpc.main.example
storage:
  backend: postgres
  postgres:
    host: localhost
    name: walletd
    user: walletd
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Postgres.Password != "secret123" {
		t.Errorf("Storage.Postgres.Password = %q, want %q", cfg.Storage.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
chains:
  - id: 1
    rpc_urls:
      - https://rpc.main.example
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want default %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if cfg.Storage.Backend != DefaultStorageBackend {
		t.Errorf("Storage.Backend = %q, want default %q", cfg.Storage.Backend, DefaultStorageBackend)
	}
	if cfg.Storage.Key != DefaultStorageKey {
		t.Errorf("Storage.Key = %q, want default %q", cfg.Storage.Key, DefaultStorageKey)
	}
	if cfg.Storage.Postgres.Port != DefaultDBPort {
		t.Errorf("Storage.Postgres.Port = %d, want default %d", cfg.Storage.Postgres.Port, DefaultDBPort)
	}
	if cfg.RPC.Timeout != DefaultRPCTimeout {
		t.Errorf("RPC.Timeout = %v, want default %v", cfg.RPC.Timeout, DefaultRPCTimeout)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestValidate(t *testing.T) {
	validChains := []ChainConfig{{ID: 1, Name: "Mainnet", RPCURLs: []string{"https://rpc.main.example"}}}

	tests := []struct {
		name    string
		cfg     DaemonConfig
		wantErr string
	}{
		{
			name:    "no chains",
			cfg:     DaemonConfig{},
			wantErr: "chains must list at least one chain",
		},
		{
			name: "chain missing id",
			cfg: DaemonConfig{
				Chains: []ChainConfig{{Name: "Mainnet", RPCURLs: []string{"https://rpc.main.example"}}},
			},
			wantErr: "chains[0].id is required",
		},
		{
			name: "duplicate chain id",
			cfg: DaemonConfig{
				Chains: []ChainConfig{
					{ID: 1, RPCURLs: []string{"https://a.example"}},
					{ID: 1, RPCURLs: []string{"https://b.example"}},
				},
			},
			wantErr: "chains[1].id 1 is duplicated",
		},
		{
			name: "chain without endpoints",
			cfg: DaemonConfig{
				Chains: []ChainConfig{{ID: 1}},
			},
			wantErr: "chains[0].rpc_urls must list at least one endpoint",
		},
		{
			name: "unknown storage backend",
			cfg: DaemonConfig{
				Chains:  validChains,
				Storage: StorageConfig{Backend: "redis"},
			},
			wantErr: `storage.backend must be memory, file, or postgres, got "redis"`,
		},
		{
			name: "postgres missing password",
			cfg: DaemonConfig{
				Chains: validChains,
				Storage: StorageConfig{
					Backend:  "postgres",
					Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", MaxConns: 10},
				},
			},
			wantErr: "storage.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			cfg: DaemonConfig{
				Chains: validChains,
				Storage: StorageConfig{
					Backend:  "postgres",
					Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
				},
			},
			wantErr: "storage.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "discovery without feed url",
			cfg: DaemonConfig{
				Chains:    validChains,
				Storage:   StorageConfig{Backend: "memory"},
				Discovery: DiscoveryConfig{Enabled: true},
				Logging:   LoggingConfig{Level: "info", Format: "text"},
			},
			wantErr: "discovery.feed_url is required when discovery is enabled",
		},
		{
			name: "bad log level",
			cfg: DaemonConfig{
				Chains:  validChains,
				Storage: StorageConfig{Backend: "memory"},
				Logging: LoggingConfig{Level: "trace", Format: "text"},
			},
			wantErr: `logging.level must be debug, info, warn, or error, got "trace"`,
		},
		{
			name: "valid config",
			cfg: DaemonConfig{
				Chains:  validChains,
				Storage: StorageConfig{Backend: "memory"},
				Logging: LoggingConfig{Level: "info", Format: "json"},
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
