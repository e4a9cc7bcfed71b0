// Package store provides persistent storage for hookpanel using SQLite.
//
// # Architecture
//
// The store package splits its surface into small interfaces:
//
//   - SettingsStore: plugin settings keyed by (plugin, key) holding JSON values
//   - AuditStore: append-only log of administrative actions
//   - Store: both of the above plus Ping and Close
//
// SQLiteStore implements all interfaces in a single struct. MockStore is an
// in-memory implementation used by handler tests.
//
// # Settings
//
// A webhook section is persisted as one Setting whose Value is the JSON
// encoding of the key-to-record map. Saving is transactional: the console
// writes every changed setting of a plugin at once, or none of them.
//
// # Audit Log
//
// Every save, discard, seed regeneration and channel provisioning is
// appended to the audit log with the acting admin's subject. Entries are
// listed newest first and may be filtered by time range, actor, action and
// plugin.
//
// # Storage
//
// The database uses modernc.org/sqlite (pure Go, no cgo) in WAL mode.
// Timestamps are stored in UTC as fixed-width RFC3339 text with nanoseconds
// so that text comparison orders them. The schema is created on
// open; there are no migrations yet.
package store
