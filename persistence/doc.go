// Package persistence snapshots a peer's local protocol state — its
// ledger, its protocol phase, and its own public identity — to a single
// file so a restarted process can resume a session without replaying
// the wire from scratch.
//
// A snapshot is written via a temp-file-then-rename so a crash mid-write
// never leaves a half-written file in place (the same atomicity the
// teacher relies on for its WAL segment rotation, wal/file_wal.go).
// Loading a snapshot always re-verifies the embedded ledger; a snapshot
// that fails replay is rejected outright rather than silently repaired.
package persistence
