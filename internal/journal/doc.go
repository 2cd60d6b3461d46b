// Package journal records the inbound graph event stream in SQLite.
//
// The journal is an audit log, not store persistence: it feeds trace and
// replay, and a graph store is never hydrated from it implicitly.
//
// Records are append-only and idempotent on ID. Reads are ordered by
// seq ASC, id ASC (binary collation), so replay is deterministic.
// Bodies are stored as canonical JSON.
package journal
