// Package storage defines the backend contract used by the data engine and
// ships two implementations.
//
// The contract (Adapter) is deliberately small: select a database, ensure a
// table exists, insert, fetch by id, merge-update, soft or hard delete, and
// query. Backends own their rows; every row handed to a caller is a copy.
//
// # Engine-managed fields
//
//   - id: per-table counter starting at 1, scoped per database, never
//     reused and never taken from caller data
//   - create_time / update_time: wall-clock stamps formatted with TimeLayout
//   - deleted: soft-delete flag; deleted rows are invisible to Fetch,
//     Update and Query but remain stored until a hard delete
//
// # Backends
//
// Memory keeps database -> table -> id -> row maps. Numbers written to
// declared integer or real columns are stored as int64 or float64, matching
// what SQLite restores from its payloads.
//
// SQLite persists rows as JSON payloads in a fixed schema (schema.sql):
//
//   - WAL mode: Concurrent reads during writes
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: rows belong to a registered table
//
// Neither backend generates per-model SQL. Filtering, ordering and
// pagination are evaluated by queryir.Apply over live rows in id order, so
// both backends return identical results for identical data.
//
// # Concurrency
//
// Both backends serialize mutations behind one lock per adapter, which keeps
// id assignment and the check-then-act of soft delete atomic.
package storage
