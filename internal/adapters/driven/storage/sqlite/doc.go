// Package sqlite provides the SQLite implementation of driven.PlaybookStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Embeddings are stored as little-endian
// float32 BLOBs and similarity is computed in Go with a linear cosine scan,
// which is adequate for playbook libraries of a few thousand entries.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.playbookbot/data/playbooks.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, and upserts run inside a transaction on a single connection.
package sqlite
