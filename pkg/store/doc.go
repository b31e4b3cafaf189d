// Package store implements the rule repository, configuration store and
// package store on a local SQLite database (modernc.org/sqlite).
//
// The database uses WAL journaling and a single connection. The schema is
// versioned with PRAGMA user_version.
package store
