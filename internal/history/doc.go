// Package history persists export runs and prerendered segment metadata in a
// SQLite database under the configured state directory.
//
// The schema is created on first open and guarded by a single version row;
// a mismatched version returns ErrSchemaMismatch rather than migrating.
// Writes retry briefly on SQLITE_BUSY so concurrent exports and the CLI can
// share one database file.
package history
