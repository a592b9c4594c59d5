package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rickgao/walletcore/core"
	"github.com/rickgao/walletcore/discovery"
	"github.com/rickgao/walletcore/internal/config"
	"github.com/rickgao/walletcore/internal/version"
	"github.com/rickgao/walletcore/rpc"
	"github.com/rickgao/walletcore/storage"
)

func main() {
	configPath := flag.String("config", "configs/walletd.local.yaml", "path to config file")
	flag.Parse()

	// Bootstrap logger; replaced once config is loaded.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting walletd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		"chains", len(cfg.Chains),
		"storage", cfg.Storage.Backend,
		"discovery", cfg.Discovery.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Select persistence backend
	store, closeStore, err := newStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	chains := make([]rpc.Chain, 0, len(cfg.Chains))
	for _, cc := range cfg.Chains {
		chains = append(chains, rpc.Chain{
			ID:      cc.ID,
			Name:    cc.Name,
			RPCURLs: cc.RPCURLs,
			Testnet: cc.Testnet,
		})
	}

	// Discovery feed, if enabled
	var (
		announcer discovery.Announcer
		feed      *discovery.Feed
	)
	if cfg.Discovery.Enabled {
		feed = discovery.NewFeed(discovery.FeedConfig{
			URL:        cfg.Discovery.FeedURL,
			BufferSize: cfg.Discovery.BufferSize,
		}, logger)
		if err := feed.Connect(ctx); err != nil {
			logger.Error("failed to connect discovery feed", "error", err)
			os.Exit(1)
		}
		defer feed.Close()
		announcer = feed
		logger.Info("discovery feed connected", "url", cfg.Discovery.FeedURL)
	}

	manager, err := core.New(core.Options{
		Chains:     chains,
		Storage:    store,
		StorageKey: cfg.Storage.Key,
		ClientOptions: rpc.ClientOptions{
			PollingInterval: rpc.PerChain[time.Duration]{Default: cfg.RPC.PollingInterval},
		},
		Discovery: announcer,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create connection manager", "error", err)
		os.Exit(1)
	}
	defer manager.Close()

	// Recover any persisted session
	if manager.State().Status == core.StatusReconnecting {
		if err := manager.Reconnect(ctx); err != nil {
			logger.Warn("session recovery failed", "error", err)
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newHandler(manager, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting control server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("control server error", "error", err)
			cancel()
		}
	}()

	logger.Info("walletd running", "addr", cfg.Server.Addr)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("walletd stopped")
}

// newLogger builds the configured logger.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newStorage opens the configured persistence backend.
func newStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Storage, func(), error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemory(), func() {}, nil
	case "file":
		s, err := storage.NewFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "postgres":
		logger.Info("connecting to database",
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		s, err := storage.NewPostgres(ctx, storage.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Name:     cfg.Postgres.Name,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			Table:    cfg.Postgres.Table,
			MinConns: cfg.Postgres.MinConns,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newHandler creates the HTTP control surface.
func newHandler(manager *core.Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		state := manager.State()

		health := struct {
			Status      string `json:"status"`
			Connections int    `json:"connections"`
			ChainID     int    `json:"chain_id"`
			Version     string `json:"version"`
		}{
			Status:      string(state.Status),
			Connections: state.Connections.Len(),
			ChainID:     state.ChainID,
			Version:     version.String(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		state := manager.State()

		type connectionView struct {
			UID      string   `json:"uid"`
			Accounts []string `json:"accounts"`
			ChainID  int      `json:"chain_id"`
			Name     string   `json:"name"`
		}

		conns := make([]connectionView, 0, state.Connections.Len())
		for _, uid := range state.Connections.UIDs() {
			conn, _ := state.Connections.Get(uid)
			view := connectionView{
				UID:      uid,
				Accounts: conn.Accounts,
				ChainID:  conn.ChainID,
			}
			if conn.Connector != nil {
				view.Name = conn.Connector.Name
			}
			conns = append(conns, view)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":      state.Status,
			"chain_id":    state.ChainID,
			"current":     state.Current,
			"connections": conns,
		})
	})

	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Method string `json:"method"`
			Params any    `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Method == "" {
			http.Error(w, "method is required", http.StatusBadRequest)
			return
		}

		chainID := 0
		if raw := r.URL.Query().Get("chain_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid chain_id", http.StatusBadRequest)
				return
			}
			chainID = id
		}

		client, err := manager.GetClient(chainID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		result, err := client.Request(r.Context(), req.Method, req.Params)
		if err != nil {
			logger.Warn("rpc forward failed", "method", req.Method, "error", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"result": result})
	})

	return mux
}
