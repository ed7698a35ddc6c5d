// Package config provides configuration loading and structs for the foundermatch server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/foundermatch/internal/validation"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Recommend RecommendConfig `yaml:"recommend"`
	Corpus    CorpusConfig    `yaml:"corpus"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=1,lte=65535"`
	// CORSOrigins enables CORS for these origins ("*" for any). Empty disables it.
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit is the number of API requests allowed per client IP per minute.
	// Zero disables rate limiting.
	RateLimit int `yaml:"rate_limit" validate:"gte=0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the database and the keyword index.
// ":memory:" keeps either one in memory.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path" validate:"required"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// RecommendConfig holds ranking settings.
type RecommendConfig struct {
	DefaultTopN int `yaml:"default_top_n" validate:"gte=1"`
	MaxTopN     int `yaml:"max_top_n" validate:"gtefield=DefaultTopN"`
	// HistoryLimit is how many of a user's most recent stored queries build
	// their profile when a request carries no history.
	HistoryLimit int `yaml:"history_limit" validate:"gte=1"`
	// AutoFuzzy retries a search with the spelling-corrected query when the
	// original matched nothing.
	AutoFuzzy        *bool `yaml:"auto_fuzzy"`
	SpellMaxDistance int   `yaml:"spell_max_distance" validate:"gte=1,lte=3"`
}

// AutoFuzzyOrDefault returns whether auto-fuzzy is on; defaults to true when unset.
func (r *RecommendConfig) AutoFuzzyOrDefault() bool {
	if r.AutoFuzzy != nil {
		return *r.AutoFuzzy
	}
	return true
}

// CorpusConfig holds corpus file settings.
type CorpusConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Watch       bool     `yaml:"watch"`
	Recursive   *bool    `yaml:"recursive"`
	// UseFallback serves the built-in startup dataset while storage is empty.
	UseFallback *bool `yaml:"use_fallback"`
}

// RecursiveOrDefault returns whether to scan and watch recursively; defaults to true when unset.
func (c *CorpusConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// UseFallbackOrDefault returns whether the fallback dataset is enabled; defaults to true when unset.
func (c *CorpusConfig) UseFallbackOrDefault() bool {
	if c.UseFallback != nil {
		return *c.UseFallback
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies defaults,
// and validates the result.
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
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Corpus.Directories {
		cfg.Corpus.Directories[i] = expandPath(cfg.Corpus.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c)
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths and
// ":memory:" are returned unchanged.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
