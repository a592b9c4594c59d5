// Package core implements the connection manager: a persisted,
// reactive connection state store, the connector registry, the event
// mediator that folds connector lifecycle events into state, the
// per-chain client cache, and the fallback request-routing transport.
//
// State moves only through the store's atomic updater: every
// transition reads the full prior state and commits a full next
// state, so racing connector events never interleave mid-update.
//
// Sharp edge, kept deliberately: the client cache is never
// invalidated when a different connector becomes current for an
// already-cached chain id. A cached client keeps its original
// transport for the lifetime of the Config.
package core
