// Package journal persists run history in SQLite.
//
// Each session records one row in runs (status, last stage reached, table
// artifact, error) and one row in events per retagged or renamed file. The
// journal is a history for humans: it does not drive recovery and nothing is
// undone from it.
//
// The database uses the pure-Go modernc.org/sqlite driver in WAL mode. The
// schema is embedded and versioned; a mismatched database is rejected with
// ErrSchemaMismatch rather than migrated.
package journal
