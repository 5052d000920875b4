// Package queue persists deferred jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Queue owns a single database connection and a time source. Jobs carry
// a creation time, a start time, an optional expiry, and completion/lock
// flags; the queue answers "what runs next" and lets uncoordinated workers
// claim jobs atomically through BEGIN IMMEDIATE transactions. Job values are
// read-only snapshots taken at fetch time and never refresh themselves.
//
// A Queue is not safe for concurrent use. Workers that share a database file
// must each open their own Queue; cross-handle safety comes entirely from
// SQLite's transaction isolation and WAL journaling.
//
// Treat this package as the single source of truth for queue semantics; when
// the schema changes, add a numbered script under migrations/ rather than
// editing an existing one.
package queue
