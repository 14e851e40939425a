// Package store provides the SQLite-backed storage.Adapter.
//
// Rows are kept in one fixed table keyed by (database, table, id) with the
// model fields serialized as a JSON payload. Engine-managed fields live in
// their own columns.
//
// # Critical Patterns
//
// Monotonic ids
//   - model_tables.next_id is incremented in the same transaction as the
//     insert and never decremented, so hard-deleted ids are not reused
//
// Deterministic reads
//   - Every row scan uses ORDER BY id ASC before queryir.Apply runs
//
// Typed payloads
//   - Column types recorded by CreateTable restore REAL and BLOB values
//     that JSON would otherwise flatten into integers and base64 strings
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
