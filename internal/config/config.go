// Package config holds the roster configuration: which substrate backend
// to use, where its data lives, and how chatty the logs are.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all roster configuration.
type Config struct {
	// Substrate backend: file, sqlite, or memory.
	Backend string `yaml:"backend"`

	// DataPath is the preferences file (file backend) or database
	// (sqlite backend). Ignored by the memory backend.
	DataPath string `yaml:"data_path"`

	// StorageKey is the substrate key the record blob lives under.
	StorageKey string `yaml:"storage_key"`

	// Seed controls first-use sample seeding.
	Seed bool `yaml:"seed"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration: file backend under
// .roster/ in the working directory, seeding enabled.
func DefaultConfig() *Config {
	return &Config{
		Backend:    BackendFile,
		DataPath:   filepath.Join(".roster", "data.json"),
		StorageKey: "user_records",
		Seed:       true,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration at path, layered over the defaults and
// under the environment overrides. A missing file is not an error; the
// defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ROSTER_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("ROSTER_DATA"); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv("ROSTER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the composition root cannot build.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want file, sqlite, or memory)", c.Backend)
	}
	if c.Backend != BackendMemory && c.DataPath == "" {
		return fmt.Errorf("data_path is required for backend %q", c.Backend)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("storage_key must not be empty")
	}
	return nil
}
