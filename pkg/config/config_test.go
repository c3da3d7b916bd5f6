package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.RemediationDays != 7 {
		t.Errorf("expected 7 remediation days, got %d", cfg.RemediationDays)
	}
	if cfg.SystemActor != "admin" {
		t.Errorf("expected admin system actor, got %s", cfg.SystemActor)
	}
	if cfg.Store.Backend != BackendCSV {
		t.Errorf("expected csv backend, got %s", cfg.Store.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_NotExists(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Lookup != "flagged_searches" {
		t.Errorf("expected default lookup, got %s", cfg.Store.Lookup)
	}
}

func TestLoad_Exists(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DirName), 0755); err != nil {
		t.Fatal(err)
	}
	content := `remediation_days: 14
system_actor: splunk-system
store:
  backend: sqlite
notify:
  webhooks:
    - url: http://localhost:9000/hook
      enabled: true
`
	if err := os.WriteFile(Path(root), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RemediationDays != 14 {
		t.Errorf("expected 14, got %d", cfg.RemediationDays)
	}
	if cfg.SystemActor != "splunk-system" {
		t.Errorf("expected splunk-system, got %s", cfg.SystemActor)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("expected sqlite, got %s", cfg.Store.Backend)
	}
	// unset keys keep their defaults
	if cfg.Store.Lookup != "flagged_searches" {
		t.Errorf("expected default lookup, got %s", cfg.Store.Lookup)
	}
	if len(cfg.Notify.Webhooks) != 1 || !cfg.Notify.Webhooks[0].Enabled {
		t.Errorf("expected one enabled webhook, got %+v", cfg.Notify.Webhooks)
	}
}

func TestLoad_Invalid(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, DirName), 0755)
	os.WriteFile(Path(root), []byte("remediation_days: 0\n"), 0644)

	if _, err := Load(root); err == nil {
		t.Error("expected validation error for zero remediation days")
	}

	os.WriteFile(Path(root), []byte("remediation_days: [oops\n"), 0644)
	if _, err := Load(root); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.RemediationDays = 3

	if err := Save(root, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RemediationDays != 3 {
		t.Errorf("expected 3, got %d", loaded.RemediationDays)
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()
	for _, key := range Keys {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%s): %v", key, err)
		}
	}

	if err := cfg.Set("remediation_days", "10"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := cfg.Get("remediation_days"); v != "10" {
		t.Errorf("expected 10, got %s", v)
	}
	if err := cfg.Set("remediation_days", "ten"); err == nil {
		t.Error("expected error for non-integer")
	}
	if err := cfg.Set("store.backend", "postgres"); err == nil {
		t.Error("expected error for unknown backend")
	}
	if err := cfg.Set("nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	if got := cfg.Resolve("/ws", "lookups"); got != filepath.Join("/ws", DirName, "lookups") {
		t.Errorf("unexpected relative resolve: %s", got)
	}
	if got := cfg.Resolve("/ws", "/abs/audit.jsonl"); got != "/abs/audit.jsonl" {
		t.Errorf("unexpected absolute resolve: %s", got)
	}
}
