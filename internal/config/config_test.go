package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitSpecloomDirCreatesStructure(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitSpecloomDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, dir := range []string{"templates", "logs", "out"} {
		path := filepath.Join(projectDir, SpecloomDir, dir)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", path)
		}
	}
	if _, err := os.Stat(filepath.Join(projectDir, SpecloomDir, "config.yaml")); err != nil {
		t.Fatalf("expected default config.yaml: %v", err)
	}
}

func TestInitSpecloomDirKeepsExistingConfig(t *testing.T) {
	projectDir := t.TempDir()
	configPath := filepath.Join(projectDir, SpecloomDir, "config.yaml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	custom := []byte("version: 1\ntemplates:\n  default: my-template\n")
	if err := os.WriteFile(configPath, custom, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := InitSpecloomDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != string(custom) {
		t.Fatalf("init must not overwrite existing config")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.DefaultTemplate() != defaultTemplateID {
		t.Fatalf("unexpected default template: %s", cfg.DefaultTemplate())
	}
	if cfg.MaxRounds() != defaultMaxRounds {
		t.Fatalf("unexpected max rounds: %d", cfg.MaxRounds())
	}
	want := filepath.Join(projectDir, SpecloomDir, "out", defaultOutputFile)
	if cfg.DefaultOutputPath() != want {
		t.Fatalf("unexpected output path: %s", cfg.DefaultOutputPath())
	}
}

func TestNewConfigLoadsProjectOverrides(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitSpecloomDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	override := `version: 1
templates:
  default: internal-rfc
interview:
  max_rounds: 3
output:
  dir: docs/specs
  file: DESIGN.md
`
	configPath := filepath.Join(projectDir, SpecloomDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.DefaultTemplate() != "internal-rfc" {
		t.Fatalf("override not applied: %s", cfg.DefaultTemplate())
	}
	if cfg.MaxRounds() != 3 {
		t.Fatalf("max rounds not applied: %d", cfg.MaxRounds())
	}
	want := filepath.Join(projectDir, "docs", "specs", "DESIGN.md")
	if cfg.DefaultOutputPath() != want {
		t.Fatalf("unexpected output path: %s", cfg.DefaultOutputPath())
	}
}

func TestNewConfigRejectsInvalidRounds(t *testing.T) {
	projectDir := t.TempDir()
	configPath := filepath.Join(projectDir, SpecloomDir, "config.yaml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(configPath, []byte("version: 1\ninterview:\n  max_rounds: -2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewConfig(projectDir); err == nil {
		t.Fatalf("expected negative round cap to fail validation")
	}
}

func TestSetDefaultTemplatePersists(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if err := cfg.SetDefaultTemplate("internal-rfc"); err != nil {
		t.Fatalf("set default template: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DefaultTemplate() != "internal-rfc" {
		t.Fatalf("expected persisted template, got %s", reloaded.DefaultTemplate())
	}
	if !contains(reloaded.Project.Templates.Available, "internal-rfc") {
		t.Fatalf("expected template in available list")
	}
}
