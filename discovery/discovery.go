package discovery

import (
	"github.com/rickgao/walletcore/connector"
)

// ProviderInfo is the announced metadata for one provider.
type ProviderInfo struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	RDNS string `json:"rdns"`
	Icon string `json:"icon,omitempty"`
}

// ProviderDetail pairs announced metadata with a live provider
// handle.
type ProviderDetail struct {
	Info     ProviderInfo
	Provider connector.Provider
}

// Announcer is the discovery broadcast protocol as consumed by the
// core: everything announced so far, plus live announcements.
type Announcer interface {
	// Providers returns all provider details announced so far.
	Providers() []ProviderDetail

	// Subscribe registers a listener for announcement batches and
	// returns its unsubscribe func. New subscribers do not receive
	// a replay; call Providers first.
	Subscribe(fn func([]ProviderDetail)) func()
}
