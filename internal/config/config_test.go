package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tbmeter.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing config should not be an error: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadEmptyPathReturnsZeroValue(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg != (Config{}) {
		t.Fatalf("empty path should yield zero-value config with no error, got %+v, %v", cfg, err)
	}
}

func TestLoadParsesFields(t *testing.T) {
	path := writeConfig(t, `
binary: /path/to/guest
limit: 1000000
syscall_cost: 50
from_start: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Binary != "/path/to/guest" || cfg.Limit != 1000000 || cfg.SyscallCost != 50 || !cfg.FromStart {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestInstallArgsOmitsUnsetFields(t *testing.T) {
	cfg := Config{Binary: "/g"}
	args := cfg.InstallArgs()
	if len(args) != 1 || args[0] != "binary=/g" {
		t.Errorf("expected exactly one binary= arg, got %v", args)
	}
}

func TestInstallArgsIncludesFromStart(t *testing.T) {
	cfg := Config{FromStart: true}
	args := cfg.InstallArgs()
	found := false
	for _, a := range args {
		if a == "from_start" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected from_start in %v", args)
	}
}
