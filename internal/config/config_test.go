package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SLIDEDECK_STORAGE", "")
	t.Setenv("SLIDEDECK_OUT_DIR", "")
	t.Setenv("SLIDEDECK_LOG_LEVEL", "")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Export.OutDir != "." || cfg.Log.Level != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	w, err := cfg.QuietWindow()
	if err != nil || w != 30*time.Second {
		t.Fatalf("expected 30s quiet window, got %v (%v)", w, err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("SLIDEDECK_STORAGE", "")
	t.Setenv("SLIDEDECK_OUT_DIR", "")
	t.Setenv("SLIDEDECK_LOG_LEVEL", "")
	dir := t.TempDir()

	cfg := Default()
	cfg.Storage.Backend = BackendFile
	cfg.Storage.Path = "deck.json"
	cfg.Autosave.QuietWindow = "5s"
	cfg.Export.OutDir = "/tmp/slides"
	cfg.Export.Overwrite = true
	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "[storage]") || !strings.Contains(string(b), `quiet_window = "5s"`) {
		t.Fatalf("unexpected file:\n%s", b)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
	if p := got.StoragePath(dir); p != filepath.Join(dir, "deck.json") {
		t.Fatalf("unexpected storage path %q", p)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("[storage]\nbackend = \"sqlite\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SLIDEDECK_STORAGE", "redis")
	t.Setenv("SLIDEDECK_OUT_DIR", "/srv/out")
	t.Setenv("SLIDEDECK_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != BackendRedis || cfg.Export.OutDir != "/srv/out" || cfg.Log.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("SLIDEDECK_STORAGE", "")
	t.Setenv("SLIDEDECK_OUT_DIR", "")
	t.Setenv("SLIDEDECK_LOG_LEVEL", "")
	for name, body := range map[string]string{
		"backend": "[storage]\nbackend = \"s3\"\n",
		"window":  "[autosave]\nquiet_window = \"soon\"\n",
		"level":   "[log]\nlevel = \"loud\"\n",
		"syntax":  "[storage\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(Path(dir), []byte(body), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(dir); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv("SLIDEDECK_CONFIG_DIR", "/custom/dir")
	d, err := Dir()
	if err != nil || d != "/custom/dir" {
		t.Fatalf("got %q, %v", d, err)
	}
}

func TestStoragePath_Defaults(t *testing.T) {
	cfg := Default()
	if p := cfg.StoragePath("/c"); p != filepath.Join("/c", "slidedeck.sqlite") {
		t.Fatalf("sqlite default: %q", p)
	}
	cfg.Storage.Backend = BackendFile
	if p := cfg.StoragePath("/c"); p != filepath.Join("/c", "project.json") {
		t.Fatalf("file default: %q", p)
	}
	cfg.Storage.Path = "/abs/x.json"
	if p := cfg.StoragePath("/c"); p != "/abs/x.json" {
		t.Fatalf("absolute path: %q", p)
	}
}
