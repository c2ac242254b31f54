package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, filepath.Join(".roster", "data.json"), cfg.DataPath)
	assert.Equal(t, "user_records", cfg.StorageKey)
	assert.True(t, cfg.Seed)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	body := `
backend: sqlite
data_path: /var/lib/roster/roster.db
storage_key: people
seed: false
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "/var/lib/roster/roster.db", cfg.DataPath)
	assert.Equal(t, "people", cfg.StorageKey)
	assert.False(t, cfg.Seed)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("ROSTER_BACKEND wins over file value", func(t *testing.T) {
		t.Setenv("ROSTER_BACKEND", "memory")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, BackendMemory, cfg.Backend)
	})

	t.Run("ROSTER_DATA overrides data path", func(t *testing.T) {
		t.Setenv("ROSTER_DATA", "/tmp/override.json")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/override.json", cfg.DataPath)
	})

	t.Run("ROSTER_LOG_LEVEL overrides level", func(t *testing.T) {
		t.Setenv("ROSTER_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("empty env leaves config alone", func(t *testing.T) {
		t.Setenv("ROSTER_BACKEND", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, BackendFile, cfg.Backend)
	})

	t.Run("env override applies through Load", func(t *testing.T) {
		t.Setenv("ROSTER_BACKEND", "sqlite")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, cfg.Backend)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default ok", func(c *Config) {}, false},
		{"memory without path ok", func(c *Config) { c.Backend = BackendMemory; c.DataPath = "" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, true},
		{"file without path", func(c *Config) { c.DataPath = "" }, true},
		{"empty storage key", func(c *Config) { c.StorageKey = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
