package discovery

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/walletcore/rpc"
)

// FeedConfig configures a WebSocket announcement feed.
type FeedConfig struct {
	URL        string
	BufferSize int // announcement channel depth, defaults to 64
}

// announcement is one provider record on the wire. Providers are
// reachable through the announced RPC endpoint.
type announcement struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	RDNS   string `json:"rdns"`
	Icon   string `json:"icon,omitempty"`
	RPCURL string `json:"rpc_url"`
}

// Feed implements Announcer over a WebSocket stream of announcement
// batches.
type Feed struct {
	cfg    FeedConfig
	logger *slog.Logger

	conn *websocket.Conn
	done chan struct{}

	mu        sync.RWMutex
	connected bool
	closed    bool
	seen      []ProviderDetail
	nextID    int
	subs      map[int]func([]ProviderDetail)
}

// NewFeed creates a feed for the given announcement endpoint.
func NewFeed(cfg FeedConfig, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	return &Feed{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
		subs:   make(map[int]func([]ProviderDetail)),
	}
}

// Connect dials the announcement endpoint and starts the read loop.
func (f *Feed) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.conn = conn
	f.connected = true
	f.mu.Unlock()

	go f.readLoop()

	f.logger.Debug("discovery feed connected", "url", f.cfg.URL)
	return nil
}

// Close stops the read loop and closes the connection.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.connected = false
	conn := f.conn
	f.mu.Unlock()

	close(f.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// Providers implements Announcer.
func (f *Feed) Providers() []ProviderDetail {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]ProviderDetail, len(f.seen))
	copy(out, f.seen)
	return out
}

// Subscribe implements Announcer.
func (f *Feed) Subscribe(fn func([]ProviderDetail)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// readLoop consumes announcement batches until closed.
func (f *Feed) readLoop() {
	for {
		select {
		case <-f.done:
			return
		default:
		}

		_, data, err := f.conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
			default:
				f.logger.Warn("discovery feed read failed", "error", err)
			}
			f.mu.Lock()
			f.connected = false
			f.mu.Unlock()
			return
		}

		batch, err := parseBatch(data)
		if err != nil {
			f.logger.Warn("skipping malformed announcement batch", "error", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}
		f.deliver(batch)
	}
}

// deliver appends unseen providers and notifies subscribers.
func (f *Feed) deliver(batch []ProviderDetail) {
	f.mu.Lock()
	fresh := make([]ProviderDetail, 0, len(batch))
	for _, d := range batch {
		if f.isSeenLocked(d.Info.UUID) {
			continue
		}
		f.seen = append(f.seen, d)
		fresh = append(fresh, d)
	}
	listeners := make([]func([]ProviderDetail), 0, len(f.subs))
	for _, fn := range f.subs {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	if len(fresh) == 0 {
		return
	}
	for _, fn := range listeners {
		fn(fresh)
	}
}

func (f *Feed) isSeenLocked(uuid string) bool {
	for _, d := range f.seen {
		if d.Info.UUID == uuid {
			return true
		}
	}
	return false
}

// parseBatch decodes a wire batch into provider details.
func parseBatch(data []byte) ([]ProviderDetail, error) {
	var anns []announcement
	if err := json.Unmarshal(data, &anns); err != nil {
		return nil, err
	}

	details := make([]ProviderDetail, 0, len(anns))
	for _, a := range anns {
		if a.UUID == "" || a.RPCURL == "" {
			continue
		}
		details = append(details, ProviderDetail{
			Info: ProviderInfo{
				UUID: a.UUID,
				Name: a.Name,
				RDNS: a.RDNS,
				Icon: a.Icon,
			},
			Provider: rpc.NewHTTP(a.RPCURL, rpc.WithKey("discovered")),
		})
	}
	return details, nil
}
