package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug not parsed")
	}
	if cfg.Server.Port != 8080 || cfg.Server.Host != "localhost" {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Model.Model == "" || cfg.Model.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("model defaults: %+v", cfg.Model)
	}
	if cfg.Search.PageSize != 50 || cfg.Search.PipelineLimit != 100 ||
		cfg.Search.AnalyzeRecords != 10 || cfg.Search.SummaryRecords != 5 ||
		cfg.Search.EntityRecords != 5 {
		t.Errorf("search defaults: %+v", cfg.Search)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "storage:\n  database_path: ./data/contracts.db\nwatch:\n  directories:\n    - ./drops\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "data/contracts.db") {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Watch.Directories[0] != filepath.Join(dir, "drops") {
		t.Errorf("watch dir = %q", cfg.Watch.Directories[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestModelAPIKeyFromEnv(t *testing.T) {
	t.Setenv("SAMSCOPE_TEST_KEY", "sk-test")
	m := ModelConfig{APIKeyEnv: "SAMSCOPE_TEST_KEY"}
	if m.APIKey() != "sk-test" {
		t.Errorf("api key = %q", m.APIKey())
	}
}
