package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.Server.Port != 37717 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if !cfg.Hooks.Enabled {
		t.Error("hooks should default to enabled")
	}
	if cfg.ListenAddr() != "127.0.0.1:37717" {
		t.Errorf("listen addr = %q", cfg.ListenAddr())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 37717 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 4000

[database]
path = "/tmp/custom.db"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("port = %d, want 4000", cfg.Server.Port)
	}
	// Unset keys keep their defaults.
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("bind = %q, want default", cfg.Server.Bind)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
