package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(afero.NewMemMapFs()), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Interval != 500*time.Millisecond {
		t.Errorf("Expected 500ms interval, got %s", cfg.Interval)
	}

	if cfg.Binary != "" {
		t.Errorf("Expected empty binary override, got %q", cfg.Binary)
	}

	if filepath.Base(cfg.CatalogPath) != "tsdctl.bolt" {
		t.Errorf("Unexpected catalog path %s", cfg.CatalogPath)
	}
}

func TestLoad_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("tsd:\n  binary: /opt/tsd/bin/tsd\nprogress:\n  interval: 250ms\n")

	if err := afero.WriteFile(fs, "/etc/tsdctl.yaml", content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(New(fs), "/etc/tsdctl.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Binary != "/opt/tsd/bin/tsd" {
		t.Errorf("Expected binary from file, got %q", cfg.Binary)
	}

	if cfg.Interval != 250*time.Millisecond {
		t.Errorf("Expected 250ms interval, got %s", cfg.Interval)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(New(afero.NewMemMapFs()), "/nope/config.yaml"); err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TSDCTL_TSD_BINARY", "tsd-beta")

	cfg, err := Load(New(afero.NewMemMapFs()), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Binary != "tsd-beta" {
		t.Errorf("Expected binary from env, got %q", cfg.Binary)
	}
}

func TestLoad_InvalidInterval(t *testing.T) {
	v := New(afero.NewMemMapFs())
	v.Set(KeyInterval, "-1s")

	if _, err := Load(v, ""); err == nil {
		t.Fatal("Expected error for negative interval")
	}
}

func TestEnsureDirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := &Config{CatalogPath: "/data/a/catalog.bolt", HistoryPath: "/data/b/history.db"}

	if err := cfg.EnsureDirs(fs); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}

	for _, dir := range []string{"/data/a", "/data/b"} {
		if ok, _ := afero.DirExists(fs, dir); !ok {
			t.Errorf("Expected %s to exist", dir)
		}
	}
}
