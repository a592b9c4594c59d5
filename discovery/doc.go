// Package discovery defines the wallet-discovery broadcast boundary.
//
// An Announcer exposes the providers announced so far and a
// subscription for later batches; providers may announce concurrently
// and at any time after bootstrap. Feed implements Announcer over a
// WebSocket announcement stream.
package discovery
