package backend

import (
	"context"
	"path/filepath"
	"testing"

	"varlik/internal/config"
)

func TestCreateMemoryStore(t *testing.T) {
	factory := NewFactory(nil)
	result, err := factory.CreateStore(context.Background(), Config{Type: MemoryStore})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if result.Store == nil {
		t.Fatal("expected a store")
	}
	if result.Cleanup != nil {
		t.Error("memory store should not need cleanup")
	}
}

func TestCreateSQLiteStore(t *testing.T) {
	factory := NewFactory(nil)
	cfg := Config{
		Type:         SQLiteStore,
		SQLiteDBPath: filepath.Join(t.TempDir(), "varlik.db"),
	}

	result, err := factory.CreateStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	t.Cleanup(func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	})

	if err := result.Store.AppendRow(context.Background(), "snapshots", []string{"Date", "Gold"}); err != nil {
		t.Errorf("store should be usable: %v", err)
	}
}

func TestCreateStoreRejectsUnknownType(t *testing.T) {
	factory := NewFactory(nil)
	if _, err := factory.CreateStore(context.Background(), Config{Type: "redis"}); err == nil {
		t.Fatal("expected error for unknown backend type")
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/varlik.db",
	}

	cfg, err := FromAppConfig(appCfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteStore {
		t.Errorf("Type = %s, want sqlite", cfg.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMirrorFromAppConfigRequiresSpreadsheet(t *testing.T) {
	if _, err := MirrorFromAppConfig(&config.Config{}); err == nil {
		t.Fatal("expected error without spreadsheet ID")
	}

	cfg, err := MirrorFromAppConfig(&config.Config{GoogleSpreadsheetID: "sheet-id"})
	if err != nil {
		t.Fatalf("MirrorFromAppConfig: %v", err)
	}
	if cfg.Type != SheetsStore {
		t.Errorf("Type = %s, want sheets", cfg.Type)
	}
}
