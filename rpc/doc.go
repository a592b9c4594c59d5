// Package rpc provides the chain-client primitives the connection
// manager is built on: Chain descriptors, the Transport interface
// (an opaque request function plus routing metadata), an HTTP
// transport with bounded retry, and the per-chain Client handle.
//
// The package knows nothing about individual RPC method semantics.
// Every call is (method, params) -> result.
package rpc
