// Package repository defines the data access interfaces for physioeval.
//
// This package provides the repository abstraction layer for persisting
// and retrieving evaluations. The actual implementation is in the sqlite
// subpackage.
//
// # Repository Interface
//
// The Repository interface covers the evaluation aggregate: a patient, the
// evaluation header and 14 clinical sections, always written and removed
// together. UserRepository covers the login accounts.
//
// # SQLite Implementation
//
// The sqlite implementation keeps one long-lived connection per database
// file, probes it before every use and reopens it when the probe fails.
// It handles:
//
// - Schema and index creation on startup, idempotently
// - All-or-nothing writes across the 16 aggregate tables
// - A single joined read for the full aggregate
// - Paged, filtered summaries for list views
// - Bcrypt-hashed user accounts
//
// # Testing
//
// The sqlite repository is tested against temporary database files so that
// reopen and WAL behaviour match production.
package repository
