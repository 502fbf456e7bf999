// Package config handles loading and resolving corpus CLI configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags (--backend, --base, --db, --format)
//  2. Environment variables (CORPUS_BACKEND, CORPUS_BASE, CORPUS_DB)
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultConfigFile = "config.json"
	DefaultFormat     = "table"
	DefaultBackend    = "local"
	EnvBackend        = "CORPUS_BACKEND"
	EnvBase           = "CORPUS_BASE"
	EnvDBPath         = "CORPUS_DB"
)

// Backend kinds accepted by --backend.
const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
)

// File is the on-disk representation of config.json.
type File struct {
	Backend string  `json:"backend"`
	Base    string  `json:"base"`
	DBPath  string  `json:"db_path"`
	Format  string  `json:"default_format"`
	Rate    float64 `json:"rate"`
}

// Config is the fully-resolved runtime configuration.
type Config struct {
	Backend    string  // memory | local | sqlite
	Base       string  // base directory for the local backend
	DBPath     string  // database path for the sqlite backend
	Format     string
	Rate       float64 // >0 wraps the backend in a rate limiter
	ConfigPath string  // path of the config.json that was loaded (empty if none)

	// Runtime overrides set from CLI flags after Load()
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources. Flag values arrive later via
// the cmd package and override whatever Load resolved.
func Load() (*Config, error) {
	cfg := &Config{
		Backend: DefaultBackend,
		Format:  DefaultFormat,
	}

	// Layer 1: config.json (lowest priority)
	if f, path, err := loadFile(); err == nil && f != nil {
		applyFile(cfg, f, path)
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv(EnvBase); v != "" {
		cfg.Base = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}

	// Defaults for paths that are still unset.
	if cfg.Base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Base = filepath.Join(home, ".corpus")
		}
	}
	if cfg.DBPath == "" && cfg.Base != "" {
		cfg.DBPath = filepath.Join(cfg.Base, "corpus.db")
	}

	return cfg, nil
}

// Validate returns an error if the resolved configuration is unusable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendLocal, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s, or %s)",
			c.Backend, BackendMemory, BackendLocal, BackendSQLite)
	}
	if c.Backend == BackendLocal && c.Base == "" {
		return fmt.Errorf("local backend needs a base directory (--base or %s)", EnvBase)
	}
	if c.Backend == BackendSQLite && c.DBPath == "" {
		return fmt.Errorf("sqlite backend needs a database path (--db or %s)", EnvDBPath)
	}
	return nil
}

func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.Backend != "" {
		cfg.Backend = f.Backend
	}
	if f.Base != "" {
		cfg.Base = f.Base
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.Format != "" {
		cfg.Format = f.Format
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, path, nil
}
