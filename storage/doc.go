// Package storage provides the string-keyed persistence collaborator
// used for connection state snapshots.
//
// Three backends are included: an in-memory map (tests, ephemeral
// sessions), a JSON file, and a Postgres table on pgx. All values
// are opaque bytes; callers own the encoding.
package storage
