// Package database provides the SQLite persistence layer for Ratewise Core.
//
// It wraps database/sql with connection configuration appropriate for
// SQLite (WAL mode, single writer, busy timeout), health checks, and an
// embedded migration runner. Migration files are compiled into the binary
// by the top-level migrations package and applied at startup.
package database
