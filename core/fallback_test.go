package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/rpc"
)

func TestFallbackRoutesThroughFirstHealthy(t *testing.T) {
	boom := errors.New("extension unavailable")

	broken, _ := connector.NewMock(connector.MockConfig{ID: "broken", ProviderErr: boom})
	healthy, getHealthy := connector.NewMock(connector.MockConfig{
		ID:      "healthy",
		ChainID: 1,
		RequestFn: func(ctx context.Context, method string, params any) (any, error) {
			return "pong", nil
		},
	})
	nilProvider := connector.Factory(func(cc connector.Context) (*connector.Connector, error) {
		return &connector.Connector{
			UID:     cc.Emitter.UID(),
			ID:      "nil-provider",
			Emitter: cc.Emitter,
			GetProvider: func(context.Context) (connector.Provider, error) {
				return nil, nil
			},
		}, nil
	})

	transport := NewFallbackTransport(context.Background(),
		[]connector.Factory{broken, healthy, nilProvider},
		FallbackOptions{Chains: testChains},
	)

	result, err := transport.Request(context.Background(), "ping", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if result != "pong" {
		t.Errorf("result = %v, want pong", result)
	}
	if calls := getHealthy().Calls; len(calls) != 1 || calls[0] != "ping" {
		t.Errorf("healthy provider calls = %v, want [ping]", calls)
	}
}

func TestFallbackPriorityWins(t *testing.T) {
	plain, getPlain := connector.NewMock(connector.MockConfig{
		ID:      "plain",
		ChainID: 1,
		RequestFn: func(ctx context.Context, method string, params any) (any, error) {
			return "plain", nil
		},
	})
	priority, getPriority := connector.NewMock(connector.MockConfig{
		ID:       "priority",
		ChainID:  1,
		Priority: true,
		RequestFn: func(ctx context.Context, method string, params any) (any, error) {
			return "priority", nil
		},
	})

	transport := NewFallbackTransport(context.Background(),
		[]connector.Factory{plain, priority},
		FallbackOptions{Chains: testChains},
	)

	result, err := transport.Request(context.Background(), "ping", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if result != "priority" {
		t.Errorf("result = %v, want priority", result)
	}
	if calls := getPlain().Calls; len(calls) != 0 {
		t.Errorf("plain provider calls = %v, want none", calls)
	}
	if calls := getPriority().Calls; len(calls) != 1 {
		t.Errorf("priority provider calls = %v, want one", calls)
	}
}

func TestFallbackExhaustedPool(t *testing.T) {
	boom := errors.New("unavailable")
	a, _ := connector.NewMock(connector.MockConfig{ID: "a", ProviderErr: boom})
	b, _ := connector.NewMock(connector.MockConfig{ID: "b", ProviderErr: boom})

	transport := NewFallbackTransport(context.Background(),
		[]connector.Factory{a, b},
		FallbackOptions{Chains: testChains},
	)

	if _, err := transport.Request(context.Background(), "ping", nil); !errors.Is(err, ErrNoConnectorAvailable) {
		t.Errorf("Request err = %v, want ErrNoConnectorAvailable", err)
	}
}

func TestFallbackRetriesRetryable(t *testing.T) {
	attempts := 0
	flaky, _ := connector.NewMock(connector.MockConfig{
		ID:      "flaky",
		ChainID: 1,
		RequestFn: func(ctx context.Context, method string, params any) (any, error) {
			attempts++
			if attempts < 3 {
				return nil, &rpc.HTTPError{StatusCode: 503, URL: "https://rpc.example"}
			}
			return "ok", nil
		},
	})

	transport := NewFallbackTransport(context.Background(),
		[]connector.Factory{flaky},
		FallbackOptions{Chains: testChains, RetryCount: 3, RetryDelay: 1},
	)

	result, err := transport.Request(context.Background(), "ping", nil)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %v, want ok", result)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestFallbackDoesNotRetryRPCErrors(t *testing.T) {
	attempts := 0
	rejecting, _ := connector.NewMock(connector.MockConfig{
		ID:      "rejecting",
		ChainID: 1,
		RequestFn: func(ctx context.Context, method string, params any) (any, error) {
			attempts++
			return nil, &rpc.Error{Code: -32601, Message: "method not found"}
		},
	})

	transport := NewFallbackTransport(context.Background(),
		[]connector.Factory{rejecting},
		FallbackOptions{Chains: testChains, RetryCount: 3, RetryDelay: 1},
	)

	var rpcErr *rpc.Error
	if _, err := transport.Request(context.Background(), "ping", nil); !errors.As(err, &rpcErr) {
		t.Fatalf("Request err = %v, want *rpc.Error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on protocol error)", attempts)
	}
}
