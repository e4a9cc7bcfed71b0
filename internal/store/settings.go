// ABOUTME: Plugin setting store methods for the SQLite backend
// ABOUTME: Settings are keyed by (plugin_id, setting_key) and hold JSON values

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

func validateSettingValue(key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidSetting)
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: %s is not valid JSON", ErrInvalidSetting, key)
	}
	return nil
}

// GetSetting retrieves a single plugin setting.
// Returns ErrNotFound if the setting doesn't exist.
func (s *SQLiteStore) GetSetting(ctx context.Context, pluginID, key string) (*Setting, error) {
	query := `
		SELECT plugin_id, setting_key, value_json, updated_at, updated_by
		FROM plugin_settings
		WHERE plugin_id = ? AND setting_key = ?
	`

	setting, err := scanSetting(s.db.QueryRowContext(ctx, query, pluginID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return setting, nil
}

// ListSettings returns every setting of a plugin ordered by key.
func (s *SQLiteStore) ListSettings(ctx context.Context, pluginID string) ([]*Setting, error) {
	query := `
		SELECT plugin_id, setting_key, value_json, updated_at, updated_by
		FROM plugin_settings
		WHERE plugin_id = ?
		ORDER BY setting_key
	`

	rows, err := s.db.QueryContext(ctx, query, pluginID)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	settings := []*Setting{}
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts all values for a plugin in one transaction. Either
// every value is written or none is.
func (s *SQLiteStore) SaveSettings(ctx context.Context, pluginID string, values map[string]json.RawMessage, updatedBy string) error {
	if pluginID == "" {
		return fmt.Errorf("%w: empty plugin id", ErrInvalidSetting)
	}
	for key, value := range values {
		if err := validateSettingValue(key, value); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO plugin_settings (plugin_id, setting_key, value_json, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(plugin_id, setting_key) DO UPDATE SET
			value_json = excluded.value_json,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by
	`

	now := time.Now().UTC().Format(timestampLayout)
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, query, pluginID, key, string(value), now, nullString(updatedBy)); err != nil {
			return fmt.Errorf("upserting setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}

	s.logger.Debug("saved settings", "plugin", pluginID, "count", len(values), "by", updatedBy)
	return nil
}

// DeleteSetting removes a setting. Missing settings are ignored.
func (s *SQLiteStore) DeleteSetting(ctx context.Context, pluginID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM plugin_settings WHERE plugin_id = ? AND setting_key = ?`,
		pluginID, key,
	)
	if err != nil {
		return fmt.Errorf("deleting setting: %w", err)
	}
	return nil
}

// scanSetting scans a row into a Setting.
func scanSetting(scanner interface{ Scan(dest ...any) error }) (*Setting, error) {
	var st Setting
	var valueJSON, updatedAtStr string
	var updatedBy sql.NullString

	if err := scanner.Scan(&st.PluginID, &st.Key, &valueJSON, &updatedAtStr, &updatedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning setting: %w", err)
	}

	var err error
	st.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	st.Value = json.RawMessage(valueJSON)
	st.UpdatedBy = updatedBy.String
	return &st, nil
}

// nullString converts an empty string to NULL
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
