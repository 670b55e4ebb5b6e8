// Package store provides the SQLite-backed request and recording log.
//
// Two append-only tables:
//   - requests: one row per HTTP request (endpoint, parameters, status,
//     message, virtual clock time, wall duration)
//   - recordings: one row per finished recording session
//
// # Ordering
//
// Rows are ordered by seq, an INTEGER assigned on insert, never by
// timestamps: two requests in the same millisecond still have a stable
// order.
//
// # Files and Versions
//
// A log file runs in WAL mode with synchronous=NORMAL and a 5 second busy
// timeout, so the trace command can read it next to a live driver. The
// path ":memory:" keeps the log in memory for the process lifetime.
//
// PRAGMA user_version records the schema version. Open upgrades logs left
// by older drivers one migration at a time.
package store
