package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/emitter"
	"github.com/rickgao/walletcore/rpc"
	"github.com/rickgao/walletcore/storage"
)

// FallbackOptions configure a fallback transport.
type FallbackOptions struct {
	Chains  []rpc.Chain
	Storage storage.Storage

	// RetryCount bounds attempts after the first try; RetryDelay is
	// the base delay. Exponential doubles the delay per attempt,
	// otherwise it is fixed.
	RetryCount  int
	RetryDelay  time.Duration
	Exponential bool

	Logger *slog.Logger
}

// fallbackTransport probes an ordered connector pool and routes every
// request through the winning connector's current provider.
type fallbackTransport struct {
	cfg    FallbackOptions
	tcfg   rpc.TransportConfig
	logger *slog.Logger

	probed chan struct{} // closed once all probes settled

	mu     sync.Mutex
	winner *connector.Connector
}

// NewFallbackTransport instantiates every factory, probes each for a
// working provider concurrently, and returns a transport bound to the
// first connector that answered (a priority-flagged connector wins
// over a plain one). Factories that fail are logged and skipped,
// never fatal to the set.
func NewFallbackTransport(ctx context.Context, factories []connector.Factory, opts FallbackOptions) rpc.Transport {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 150 * time.Millisecond
	}

	t := &fallbackTransport{
		cfg:    opts,
		logger: logger,
		probed: make(chan struct{}),
		tcfg: rpc.TransportConfig{
			Key:        "fallback",
			Name:       "Connector Fallback",
			Type:       "fallback",
			RetryCount: opts.RetryCount,
			RetryDelay: opts.RetryDelay,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, factory := range factories {
		i, factory := i, factory
		g.Go(func() error {
			cn, err := t.probe(gctx, factory)
			if err != nil {
				logger.Warn("connector probe failed", "index", i, "error", err)
				return nil // unavailable, never fatal to the others
			}
			t.record(cn)
			return nil
		})
	}
	go func() {
		g.Wait()
		close(t.probed)
	}()

	return t
}

// probe instantiates one factory and asks it for a provider.
func (t *fallbackTransport) probe(ctx context.Context, factory connector.Factory) (*connector.Connector, error) {
	em := emitter.New()
	cn, err := factory(connector.Context{
		Chains:  t.cfg.Chains,
		Storage: t.cfg.Storage,
		Emitter: em,
		Logger:  t.logger,
	})
	if err != nil {
		return nil, err
	}
	if cn == nil || cn.GetProvider == nil {
		return nil, ErrNoConnectorAvailable
	}
	if cn.Emitter == nil {
		cn.Emitter = em
	}
	if cn.UID == "" {
		cn.UID = em.UID()
	}

	provider, err := cn.GetProvider(ctx)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, ErrNoConnectorAvailable
	}
	return cn, nil
}

// record keeps the first successful connector; a priority-flagged
// connector displaces a plain winner.
func (t *fallbackTransport) record(cn *connector.Connector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.winner == nil {
		t.winner = cn
		return
	}
	if cn.IsPriorityProvider && !t.winner.IsPriorityProvider {
		t.winner = cn
	}
}

// Config returns the transport metadata.
func (t *fallbackTransport) Config() rpc.TransportConfig {
	return t.tcfg
}

// Request forwards the call through the winner's current provider,
// re-resolving the provider handle every attempt. With no winner the
// pool is exhausted and ErrNoConnectorAvailable is returned rather
// than hanging.
func (t *fallbackTransport) Request(ctx context.Context, method string, params any) (any, error) {
	select {
	case <-t.probed:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	t.mu.Lock()
	winner := t.winner
	t.mu.Unlock()
	if winner == nil {
		return nil, ErrNoConnectorAvailable
	}

	var lastErr error
	delay := t.cfg.RetryDelay

	for attempt := 0; attempt <= t.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			if t.cfg.Exponential {
				delay *= 2
			}
		}

		provider, err := winner.GetProvider(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		result, err := provider.Request(ctx, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !rpc.IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}
