// ABOUTME: Store interface and data types for hookpanel persistence
// ABOUTME: Defines plugin Setting rows, audit entries and the Store interface

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrInvalidSetting is returned when a setting cannot be stored as given
var ErrInvalidSetting = errors.New("invalid setting")

// Setting is one persisted plugin setting. Value holds the JSON encoding the
// admin console reported for it.
type Setting struct {
	PluginID  string
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
	UpdatedBy string // admin subject that saved it (empty if unknown)
}

// SettingsStore persists plugin settings
type SettingsStore interface {
	// GetSetting returns one setting or ErrNotFound.
	GetSetting(ctx context.Context, pluginID, key string) (*Setting, error)
	// ListSettings returns all settings of a plugin ordered by key.
	ListSettings(ctx context.Context, pluginID string) ([]*Setting, error)
	// SaveSettings upserts values for a plugin in a single transaction.
	SaveSettings(ctx context.Context, pluginID string, values map[string]json.RawMessage, updatedBy string) error
	// DeleteSetting removes a setting; deleting a missing setting is not an error.
	DeleteSetting(ctx context.Context, pluginID, key string) error
}

// AuditStore records administrative actions
type AuditStore interface {
	AppendAuditLog(ctx context.Context, e *AuditEntry) error
	ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// Store combines every persistence concern of the console
type Store interface {
	SettingsStore
	AuditStore

	// Ping checks that the backing database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
