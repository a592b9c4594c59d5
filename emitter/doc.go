// Package emitter implements the per-connector event emitter.
//
// Each emitter carries a process-unique id that doubles as the
// owning connector's uid. Listeners are registered per event kind
// and return an unsubscribe func so the owner can rewire them as the
// connection lifecycle moves between connected and disconnected.
package emitter
