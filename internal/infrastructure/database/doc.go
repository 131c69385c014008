// Package database manages the SQLite store backing petkit-bridge.
//
// The bridge persists vendor session records (and nothing else) between
// restarts, so the store is deliberately small: a single file, WAL mode
// for concurrent readers, and embedded schema migrations applied on
// startup.
//
// Thread Safety: the returned *DB is safe for concurrent use; SQLite's
// single-writer model is respected by limiting the pool to one
// connection.
package database
