package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rickgao/walletcore/connector"
	"github.com/rickgao/walletcore/discovery"
	"github.com/rickgao/walletcore/rpc"
	"github.com/rickgao/walletcore/storage"
)

func TestNewRequiresChains(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, ErrNoChains) {
		t.Errorf("New err = %v, want ErrNoChains", err)
	}
}

func TestNewInitialState(t *testing.T) {
	c, _ := newTestConfig(t)

	state := c.State()
	if state.ChainID != testChains[0].ID {
		t.Errorf("ChainID = %d, want %d", state.ChainID, testChains[0].ID)
	}
	if state.Status != StatusDisconnected {
		t.Errorf("Status = %q, want %q", state.Status, StatusDisconnected)
	}
	if state.Connections.Len() != 0 {
		t.Errorf("Connections.Len() = %d, want 0", state.Connections.Len())
	}
}

func TestNewSetupFailureAborts(t *testing.T) {
	boom := errors.New("boom")
	factory := connector.Factory(func(cc connector.Context) (*connector.Connector, error) {
		return nil, boom
	})

	_, err := New(Options{Chains: testChains, Connectors: []connector.Factory{factory}})
	var setupErr *ConnectorSetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("New err = %v, want *ConnectorSetupError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err does not wrap factory error: %v", err)
	}
}

func TestSetStateCorruptionResets(t *testing.T) {
	c, _ := newTestConfig(t)

	c.SetState(State{ChainID: 0, Status: StatusConnected})

	state := c.State()
	if state.ChainID != testChains[0].ID {
		t.Errorf("ChainID = %d, want %d (reset)", state.ChainID, testChains[0].ID)
	}
	if state.Status != StatusDisconnected {
		t.Errorf("Status = %q, want %q (reset)", state.Status, StatusDisconnected)
	}
	if !state.Connections.Valid() {
		t.Error("Connections invalid after reset")
	}
}

func TestSetStateValidCommit(t *testing.T) {
	c, _ := newTestConfig(t)

	next := initialState(testChains)
	next.ChainID = 10
	c.SetState(next)

	if got := c.State().ChainID; got != 10 {
		t.Errorf("ChainID = %d, want 10", got)
	}
}

func TestConnectLifecycle(t *testing.T) {
	c, _ := newTestConfig(t, connector.MockConfig{ID: "a", Accounts: []string{"0x1"}, ChainID: 1})
	cn := c.Connectors()[0]

	var statuses []Status
	off := c.SubscribeState(func(s, _ State) {
		statuses = append(statuses, s.Status)
	})
	defer off()

	res, err := c.Connect(context.Background(), cn, 10)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if res.ChainID != 10 {
		t.Errorf("ChainID = %d, want 10", res.ChainID)
	}

	state := c.State()
	if state.Status != StatusConnected {
		t.Errorf("Status = %q, want %q", state.Status, StatusConnected)
	}
	if state.Current != cn.UID {
		t.Errorf("Current = %q, want %q", state.Current, cn.UID)
	}
	if len(statuses) == 0 || statuses[0] != StatusConnecting {
		t.Errorf("first observed status = %v, want connecting", statuses)
	}
}

func TestConnectFailureRestoresStatus(t *testing.T) {
	boom := errors.New("user rejected")
	c, _ := newTestConfig(t,
		connector.MockConfig{ID: "a", Accounts: []string{"0xa"}, ChainID: 1},
		connector.MockConfig{ID: "b", Accounts: []string{"0xb"}, ChainID: 1, ConnectErr: boom},
	)

	// Failing with no connections lands back on disconnected.
	if _, err := c.Connect(context.Background(), c.Connectors()[1], 1); !errors.Is(err, boom) {
		t.Fatalf("Connect err = %v, want %v", err, boom)
	}
	if got := c.State().Status; got != StatusDisconnected {
		t.Errorf("Status = %q, want %q", got, StatusDisconnected)
	}

	// Failing with an existing connection lands back on connected.
	if _, err := c.Connect(context.Background(), c.Connectors()[0], 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := c.Connect(context.Background(), c.Connectors()[1], 1); !errors.Is(err, boom) {
		t.Fatalf("Connect err = %v, want %v", err, boom)
	}
	if got := c.State().Status; got != StatusConnected {
		t.Errorf("Status = %q, want %q", got, StatusConnected)
	}
}

func TestDisconnectViaConnector(t *testing.T) {
	c, _ := newTestConfig(t, connector.MockConfig{ID: "a", Accounts: []string{"0x1"}, ChainID: 1})
	cn := c.Connectors()[0]

	if _, err := c.Connect(context.Background(), cn, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Disconnect(context.Background(), cn); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	state := c.State()
	if state.Status != StatusDisconnected {
		t.Errorf("Status = %q, want %q", state.Status, StatusDisconnected)
	}
	if state.Connections.Len() != 0 {
		t.Errorf("Connections.Len() = %d, want 0", state.Connections.Len())
	}
}

func TestChainSyncFollowsActiveConnection(t *testing.T) {
	c, providers := newTestConfig(t, connector.MockConfig{ID: "a", Accounts: []string{"0x1"}, ChainID: 1})
	p := providers[0]()

	p.EmitConnect([]string{"0x1"}, 1)
	p.EmitChange(nil, 10)

	if got := c.State().ChainID; got != 10 {
		t.Errorf("ChainID = %d, want 10", got)
	}

	// Unconfigured chain ids leave ChainID untouched.
	p.EmitChange(nil, 999)
	if got := c.State().ChainID; got != 10 {
		t.Errorf("ChainID = %d, want 10 (unconfigured ignored)", got)
	}
}

func TestChainSyncDisabled(t *testing.T) {
	factory, getter := connector.NewMock(connector.MockConfig{ID: "a", Accounts: []string{"0x1"}, ChainID: 1})
	c, err := New(Options{
		Chains:           testChains,
		Connectors:       []connector.Factory{factory},
		DisableChainSync: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	getter().EmitConnect([]string{"0x1"}, 10)

	if got := c.State().ChainID; got != testChains[0].ID {
		t.Errorf("ChainID = %d, want %d (sync disabled)", got, testChains[0].ID)
	}
}

func TestHeadlessDefersHydration(t *testing.T) {
	mem := storage.NewMemory()

	// Persist a connected session.
	first, err := New(Options{Chains: testChains, Storage: mem})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	next := initialState(testChains)
	next.ChainID = 10
	next.Connections = next.Connections.With("uid-1", Connection{
		Accounts:  []string{"0x1"},
		ChainID:   10,
		Connector: &connector.Connector{UID: "uid-1", ID: "mock", Name: "Mock Wallet"},
	})
	next.Current = "uid-1"
	next.Status = StatusConnected
	first.SetState(next)
	first.Close()

	// Headless: construction must not touch storage yet.
	c, err := New(Options{Chains: testChains, Storage: mem, Headless: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if got := c.State().Connections.Len(); got != 0 {
		t.Fatalf("Connections.Len() before Hydrate = %d, want 0", got)
	}

	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	state := c.State()
	if state.Connections.Len() != 1 {
		t.Errorf("Connections.Len() = %d, want 1", state.Connections.Len())
	}
	if state.Status != StatusReconnecting {
		t.Errorf("Status = %q, want %q", state.Status, StatusReconnecting)
	}
	if state.ChainID != 10 {
		t.Errorf("ChainID = %d, want 10", state.ChainID)
	}
	if state.Current != "uid-1" {
		t.Errorf("Current = %q, want uid-1", state.Current)
	}
}

func TestDiscoveryBridgeRegistersAnnounced(t *testing.T) {
	static := discovery.NewStatic()
	static.Announce(discovery.ProviderDetail{
		Info:     discovery.ProviderInfo{UUID: "u-1", Name: "Announced", RDNS: "com.example.wallet"},
		Provider: rpc.RequesterFunc(func(ctx context.Context, method string, params any) (any, error) { return nil, nil }),
	})

	c, err := New(Options{Chains: testChains, Discovery: static})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	cns := c.Connectors()
	if len(cns) != 1 {
		t.Fatalf("len(Connectors()) = %d, want 1", len(cns))
	}
	if cns[0].ID != "com.example.wallet" {
		t.Errorf("ID = %q, want com.example.wallet", cns[0].ID)
	}

	// Repeat announcements of the same uuid are deduplicated.
	static.Announce(discovery.ProviderDetail{
		Info:     discovery.ProviderInfo{UUID: "u-1", Name: "Announced", RDNS: "com.example.wallet"},
		Provider: rpc.RequesterFunc(func(ctx context.Context, method string, params any) (any, error) { return nil, nil }),
	})
	if got := len(c.Connectors()); got != 1 {
		t.Errorf("len(Connectors()) after repeat = %d, want 1", got)
	}
}
