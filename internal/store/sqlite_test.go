// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers database creation, persistence across reopen and in-memory mode

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created in the nested directory
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	err = store.SaveSettings(ctx, "plugin", map[string]json.RawMessage{"k": json.RawMessage(`1`)}, "")
	if err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	if _, err := store.GetSetting(ctx, "plugin", "k"); err != nil {
		t.Errorf("GetSetting failed: %v", err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	err = store.SaveSettings(ctx, "plugin", map[string]json.RawMessage{
		"PingdomHooksConfigs": json.RawMessage(`{"3":{"Team":"ops"}}`),
	}, "admin")
	if err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetSetting(ctx, "plugin", "PingdomHooksConfigs")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if string(got.Value) != `{"3":{"Team":"ops"}}` {
		t.Errorf("unexpected value %s", got.Value)
	}
}

func TestIsConstraintViolation(t *testing.T) {
	if isConstraintViolation(nil) {
		t.Error("nil should not be a constraint violation")
	}
}
