package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sync.OngoingDays != 1 {
		t.Errorf("expected default ongoing days 1, got %d", cfg.Sync.OngoingDays)
	}
	if cfg.Provider.BaseURL == "" {
		t.Error("expected default provider base URL")
	}
}

func TestLoadPartialConfigNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider:
  client_id: test-client
sync:
  ongoing_days: 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider.ClientID != "test-client" {
		t.Errorf("expected client id from file, got %q", cfg.Provider.ClientID)
	}
	if cfg.Sync.OngoingDays != 3 {
		t.Errorf("expected ongoing days 3, got %d", cfg.Sync.OngoingDays)
	}
	// Unset fields fall back to defaults.
	if cfg.Provider.Authority == "" {
		t.Error("expected default authority to be filled in")
	}
	if len(cfg.Provider.Scopes) == 0 {
		t.Error("expected default scopes to be filled in")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CALSYNC_CLIENT_ID", "env-client")
	t.Setenv("CALSYNC_DATA_DIR", "/tmp/calsync-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider.ClientID != "env-client" {
		t.Errorf("expected env client id, got %q", cfg.Provider.ClientID)
	}
	if cfg.DataDir != "/tmp/calsync-test" {
		t.Errorf("expected env data dir, got %q", cfg.DataDir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Provider.ClientID = "round-trip"
	cfg.Sync.OngoingDays = 7

	if err := Save(cfg, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Provider.ClientID != "round-trip" {
		t.Errorf("expected client id to survive round trip, got %q", loaded.Provider.ClientID)
	}
	if loaded.Sync.OngoingDays != 7 {
		t.Errorf("expected ongoing days 7, got %d", loaded.Sync.OngoingDays)
	}
}
