// Package sqlite implements driven.FindingStore on SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory and recorded in schema_migrations. Findings live in
// the findings table; findings_fts is an FTS5 external-content index over
// title, content and query, kept in step by triggers so a row and its index
// entry are always written by the same statement.
//
// # Data Location
//
// By default, the database is stored at .beans/research.db in the project.
//
// # Thread Safety
//
// All operations are safe for concurrent use within a process. Cross-process
// access relies on SQLite locking in WAL mode.
package sqlite
