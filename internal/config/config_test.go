package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != ":8000" {
		t.Errorf("Listen = %q, want :8000", cfg.Server.Listen)
	}
	if cfg.Feed.Mode != "file" || cfg.Feed.Path != DefaultGetDataPath {
		t.Errorf("feed defaults wrong: %+v", cfg.Feed)
	}
	if cfg.Clearance.CrossingNearM != 15.0 {
		t.Errorf("CrossingNearM = %v, want 15", cfg.Clearance.CrossingNearM)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected an error for an explicitly named missing file")
	}
}

func TestLoadPartialFileBackfills(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9100"
feed:
  mode: mock
  mockFixture: fixtures/class_323.txt
clearance:
  crossing_near_m: 20
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != ":9100" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Feed.Mode != "mock" || cfg.Feed.MockFixture != "fixtures/class_323.txt" {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	// Unset fields come from the defaults.
	if cfg.Feed.PollIntervalMS != 50 {
		t.Errorf("PollIntervalMS = %d, want 50", cfg.Feed.PollIntervalMS)
	}
	if cfg.ProfilesDir != "profiles" {
		t.Errorf("ProfilesDir = %q", cfg.ProfilesDir)
	}
	if cfg.Clearance.CrossingNearM != 20.0 {
		t.Errorf("CrossingNearM = %v, want the configured 20", cfg.Clearance.CrossingNearM)
	}
	if cfg.Clearance.CrossingJumpM != 100.0 {
		t.Errorf("CrossingJumpM = %v, want the default 100", cfg.Clearance.CrossingJumpM)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad feed mode", "feed:\n  mode: carrier_pigeon\n"},
		{"bad listen addr", "server:\n  listen: not-an-addr\n"},
		{"bad log level", "log:\n  level: shouty\n"},
		{"negative poll interval", "feed:\n  pollIntervalMS: -5\n"},
		{"not yaml", "{{{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
