package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

// HTTPOption configures an HTTP transport.
type HTTPOption func(*httpTransport)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(t *httpTransport) {
		t.client = hc
	}
}

// WithRetries sets the retry configuration.
func WithRetries(count int, delay time.Duration) HTTPOption {
	return func(t *httpTransport) {
		t.cfg.RetryCount = count
		t.cfg.RetryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(t *httpTransport) {
		t.logger = logger
	}
}

// WithKey overrides the transport key.
func WithKey(key string) HTTPOption {
	return func(t *httpTransport) {
		t.cfg.Key = key
	}
}

// httpTransport forwards JSON-RPC calls to a single HTTP endpoint.
type httpTransport struct {
	url    string
	cfg    TransportConfig
	client *http.Client
	logger *slog.Logger

	reqID atomic.Int64
}

// NewHTTP creates an HTTP transport for the given endpoint URL.
func NewHTTP(url string, opts ...HTTPOption) Transport {
	t := &httpTransport{
		url: url,
		cfg: TransportConfig{
			Key:        "http",
			Name:       "HTTP JSON-RPC",
			Type:       "http",
			RetryCount: 3,
			RetryDelay: 150 * time.Millisecond,
		},
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the transport metadata.
func (t *httpTransport) Config() TransportConfig {
	return t.cfg
}

// Request forwards a call with bounded retry. Only transport-level
// and retryable HTTP failures are retried; JSON-RPC errors propagate
// immediately.
func (t *httpTransport) Request(ctx context.Context, method string, params any) (any, error) {
	var lastErr error
	backoff := t.cfg.RetryDelay

	for attempt := 0; attempt <= t.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			t.logger.Debug("retrying rpc request",
				"attempt", attempt,
				"backoff", jitter,
				"method", method,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		result, err := t.do(ctx, method, params)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do performs a single JSON-RPC request.
func (t *httpTransport) do(ctx context.Context, method string, params any) (any, error) {
	payload := struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int64  `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{
		JSONRPC: "2.0",
		ID:      t.reqID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        t.url,
			Body:       data,
		}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}

	var result any
	if len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return result, nil
}
