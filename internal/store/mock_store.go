// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	settings map[string]*Setting // keyed by "pluginID:key"
	audit    []AuditEntry

	// SaveErr, when set, is returned by SaveSettings without writing.
	SaveErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		settings: make(map[string]*Setting),
	}
}

func settingKey(pluginID, key string) string {
	return pluginID + ":" + key
}

func copySetting(s *Setting) *Setting {
	c := *s
	c.Value = append(json.RawMessage(nil), s.Value...)
	return &c
}

// GetSetting retrieves a setting.
func (m *MockStore) GetSetting(ctx context.Context, pluginID, key string) (*Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[settingKey(pluginID, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return copySetting(s), nil
}

// ListSettings returns the settings of a plugin ordered by key.
func (m *MockStore) ListSettings(ctx context.Context, pluginID string) ([]*Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*Setting{}
	for _, s := range m.settings {
		if s.PluginID == pluginID {
			result = append(result, copySetting(s))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, nil
}

// SaveSettings upserts values for a plugin.
func (m *MockStore) SaveSettings(ctx context.Context, pluginID string, values map[string]json.RawMessage, updatedBy string) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if pluginID == "" {
		return fmt.Errorf("%w: empty plugin id", ErrInvalidSetting)
	}
	for key, value := range values {
		if err := validateSettingValue(key, value); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for key, value := range values {
		m.settings[settingKey(pluginID, key)] = &Setting{
			PluginID:  pluginID,
			Key:       key,
			Value:     append(json.RawMessage(nil), value...),
			UpdatedAt: now,
			UpdatedBy: updatedBy,
		}
	}
	return nil
}

// DeleteSetting removes a setting.
func (m *MockStore) DeleteSetting(ctx context.Context, pluginID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.settings, settingKey(pluginID, key))
	return nil
}

// AppendAuditLog records an audit entry.
func (m *MockStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	valid := false
	for _, a := range ValidAuditActions {
		if e.Action == a {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid audit action %q", e.Action)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	m.audit = append(m.audit, *e)
	return nil
}

// ListAuditLog returns audit entries matching the filter, newest first.
func (m *MockStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []AuditEntry{}
	for _, e := range m.audit {
		if f.Since != nil && e.Timestamp.Before(*f.Since) {
			continue
		}
		if f.Until != nil && e.Timestamp.After(*f.Until) {
			continue
		}
		if f.Actor != nil && e.Actor != *f.Actor {
			continue
		}
		if f.Action != nil && e.Action != *f.Action {
			continue
		}
		if f.PluginID != nil && e.PluginID != *f.PluginID {
			continue
		}
		result = append(result, e)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if limit := normalizeAuditLimit(f.Limit); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Ping always succeeds.
func (m *MockStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store
var _ Store = (*MockStore)(nil)
