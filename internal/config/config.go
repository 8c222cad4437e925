// Package config provides configuration loading and structs for SAMScope.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Model   ModelConfig   `yaml:"model"`
	Search  SearchConfig  `yaml:"search"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the contracts database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ModelConfig holds external model provider settings. The API key is read
// from the environment variable named by APIKeyEnv, never from the file.
type ModelConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKeyEnv     string `yaml:"api_key_env"`
	Model         string `yaml:"model"`
	EnhanceTokens int    `yaml:"enhance_max_tokens"`
	AnalyzeTokens int    `yaml:"analyze_max_tokens"`
	SummaryTokens int    `yaml:"summary_max_tokens"`
	EntityTokens  int    `yaml:"entity_max_tokens"`
}

// APIKey returns the provider API key from the configured environment
// variable, or "" when unset.
func (m *ModelConfig) APIKey() string {
	return os.Getenv(m.APIKeyEnv)
}

// SearchConfig holds paging and enrichment caps.
type SearchConfig struct {
	PageSize       int `yaml:"page_size"`
	PipelineLimit  int `yaml:"pipeline_limit"`
	AnalyzeRecords int `yaml:"analyze_records"`
	SummaryRecords int `yaml:"summary_records"`
	EntityRecords  int `yaml:"entity_records"`
}

// WatchConfig holds CSV drop-directory settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
