package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := st.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
listen: ":9999"
slots:
  start_hour: 8
  end_hour: 6
  step_minutes: 7
professors: ["  Olivares ", "", "Olivares", "Bernabé"]
subjects: []
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Slots.StartHour != 8 || cfg.Slots.EndHour != 21 || cfg.Slots.StepMinutes != 30 {
		t.Errorf("Slots = %+v", cfg.Slots)
	}
	if want := []string{"Olivares", "Bernabé"}; !reflect.DeepEqual(cfg.Professors, want) {
		t.Errorf("Professors = %v, want %v", cfg.Professors, want)
	}
	if !reflect.DeepEqual(cfg.Subjects, defaultSubjects) {
		t.Errorf("Subjects = %v", cfg.Subjects)
	}
	if cfg.Backup.MinBookings != 3 {
		t.Errorf("MinBookings = %d", cfg.Backup.MinBookings)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LABCAL_LISTEN", "0.0.0.0:7000")
	t.Setenv("LABCAL_BACKUP_DIR", "/tmp/labcal-backups")
	t.Setenv("LABCAL_AUTH_USER", "lab")
	t.Setenv("LABCAL_AUTH_PASSWORD", "secret")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Listen != "0.0.0.0:7000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Backup.Dir != "/tmp/labcal-backups" {
		t.Errorf("Backup.Dir = %q", cfg.Backup.Dir)
	}
	if cfg.BasicAuth == nil || cfg.BasicAuth.Username != "lab" || cfg.BasicAuth.Password != "secret" {
		t.Errorf("BasicAuth = %+v", cfg.BasicAuth)
	}
	if cfg.Timezone != "America/Mexico_City" {
		t.Errorf("Timezone changed without env: %q", cfg.Timezone)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Professors = []string{"Olivares"}
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.Professors, []string{"Olivares"}) {
		t.Errorf("Professors = %v", got.Professors)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "u" {
		t.Errorf("BasicAuth = %+v", got.BasicAuth)
	}
}
