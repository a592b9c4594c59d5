// Package connector defines the pluggable connector type the
// registry manages: a wallet-style request provider plus lifecycle
// capability callbacks and an attached event emitter.
//
// Connectors are value-constructed by a Factory, owned exclusively by
// the registry, and referenced (never cloned or destroyed) by the
// connection state.
package connector
