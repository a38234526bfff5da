package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestStore_Defaults(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "state.json"), "", zerolog.Nop())
	if s.Settings() != Defaults() {
		t.Errorf("expected defaults, got %+v", s.Settings())
	}
	if s.Tenant() != DefaultTenant {
		t.Errorf("expected %s, got %s", DefaultTenant, s.Tenant())
	}
}

func TestStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := Open(path, "", zerolog.Nop())

	want := Settings{Theme: ThemeDark, Language: "pt-br"}
	if err := s.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if err := s.SetTenant("clinica_1"); err != nil {
		t.Fatalf("SetTenant: %v", err)
	}

	reopened := Open(path, "", zerolog.Nop())
	if reopened.Settings() != want {
		t.Errorf("expected %+v, got %+v", want, reopened.Settings())
	}
	if reopened.Tenant() != "clinica_1" {
		t.Errorf("expected clinica_1, got %s", reopened.Tenant())
	}

	var raw map[string]json.RawMessage
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("state file is not JSON: %v", err)
	}
	if _, ok := raw[KeySettings]; !ok {
		t.Errorf("missing %s key", KeySettings)
	}
	if string(raw[KeyTenant]) != `"clinica_1"` {
		t.Errorf("unexpected tenant value %s", raw[KeyTenant])
	}
}

func TestStore_EmptyTenantResets(t *testing.T) {
	s := Open("", "clinic", zerolog.Nop())
	s.SetTenant("other")
	s.SetTenant("  ")
	if s.Tenant() != "clinic" {
		t.Errorf("expected configured default, got %s", s.Tenant())
	}
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	s := Open(path, "", zerolog.Nop())
	if s.Settings() != Defaults() || s.Tenant() != DefaultTenant {
		t.Error("corrupt file should fall back to defaults")
	}

	os.WriteFile(path, []byte(`{"alignwork:settings":{"theme":"neon"}}`), 0o644)
	s = Open(path, "", zerolog.Nop())
	if s.Settings() != Defaults() {
		t.Errorf("invalid theme should fall back to defaults, got %+v", s.Settings())
	}
}

func TestSaveSettings_InvalidTheme(t *testing.T) {
	s := Open("", "", zerolog.Nop())
	if err := s.SaveSettings(Settings{Theme: "neon"}); err != ErrInvalidTheme {
		t.Errorf("expected ErrInvalidTheme, got %v", err)
	}
}

func TestStore_FailedWriteKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "state.json"), "", zerolog.Nop())
	if err := s.SetTenant("clinica_1"); err != nil {
		t.Fatalf("SetTenant: %v", err)
	}

	// A regular file where the state directory should be makes every write fail.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s.path = filepath.Join(blocker, "state.json")

	if err := s.SetTenant("clinica_2"); err == nil {
		t.Fatal("expected write error")
	}
	if s.Tenant() != "clinica_1" {
		t.Errorf("tenant changed despite failed write: %s", s.Tenant())
	}
	if err := s.SaveSettings(Settings{Theme: ThemeDark}); err == nil {
		t.Fatal("expected write error")
	}
	if s.Settings() != Defaults() {
		t.Errorf("settings changed despite failed write: %+v", s.Settings())
	}
}
