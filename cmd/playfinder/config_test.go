package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/playfinder/pkg/filters"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields defaults", func(t *testing.T) {
		config, err := loadConfigFile(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 8080, config.Server.Port)
		assert.Equal(t, "info", config.Logging.Level)
		assert.Equal(t, 24, config.Auth.SessionHours)
		assert.Equal(t, filters.DefaultFilterConfig, config.Filters.Rules)
		assert.NoError(t, ValidateConfig(config))
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: ~/playfinder/test.db
logging:
  level: debug
  format: json
redis:
  enabled: true
  address: redis:6379
filters:
  default_max_distance_km: 15
  rules:
    age: false
`), 0600))

		config, err := loadConfigFile(path)
		require.NoError(t, err)

		home, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "playfinder", "test.db"), config.Database.Path)
		assert.Equal(t, "debug", config.Logging.Level)
		assert.Equal(t, "json", config.Logging.Format)
		assert.True(t, config.Redis.Enabled)
		assert.Equal(t, "redis:6379", config.Redis.Address)
		assert.Equal(t, 15.0, config.Filters.DefaultMaxDistanceKm)
		assert.False(t, config.Filters.Rules.EnableAgeFilter)
		assert.True(t, config.Filters.Rules.EnableDistanceFilter, "unset rules stay enabled")
		assert.Equal(t, 8080, config.Server.Port, "unset keys keep their defaults")
		assert.True(t, config.Metrics.Enabled)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [port"), 0600))

		_, err := loadConfigFile(path)
		assert.Error(t, err)
	})
}

func TestSaveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := GetDefaultConfig()
	config.Auth.JWTSecret = "s3cret"
	config.Server.Port = 9090
	require.NoError(t, saveConfigFile(path, config))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", loaded.Auth.JWTSecret)
	assert.Equal(t, 9090, loaded.Server.Port)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty host", func(c *Config) { c.Server.Host = "" }, true},
		{"empty database", func(c *Config) { c.Database.Path = "" }, true},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"warning level", func(c *Config) { c.Logging.Level = "warning" }, false},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"negative session", func(c *Config) { c.Auth.SessionHours = -1 }, true},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" }, true},
		{"negative distance", func(c *Config) { c.Filters.DefaultMaxDistanceKm = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := GetDefaultConfig()
			tt.mutate(config)
			err := ValidateConfig(config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, home, expandPath("~"))
	assert.Equal(t, filepath.Join(home, ".playfinder", "data.db"), expandPath("~/.playfinder/data.db"))
	assert.Equal(t, "/var/lib/playfinder.db", expandPath("/var/lib/playfinder.db"))
	assert.True(t, filepath.IsAbs(expandPath("relative.db")))
}

func TestGenerateSecret(t *testing.T) {
	a, err := generateSecret()
	require.NoError(t, err)
	b, err := generateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestParseGlobalFlags(t *testing.T) {
	defer func() { globalConfig = GlobalConfig{} }()

	args, err := parseGlobalFlags([]string{"--format", "json", "--config=/tmp/pf.yaml", "-v", "serve", "--port", "3000"})
	require.NoError(t, err)
	assert.Equal(t, []string{"serve", "--port", "3000"}, args)
	assert.Equal(t, "json", globalConfig.Format)
	assert.Equal(t, "/tmp/pf.yaml", globalConfig.ConfigPath)
	assert.True(t, globalConfig.Verbose)

	_, err = parseGlobalFlags([]string{"--format", "xml", "serve"})
	assert.Error(t, err)

	_, err = parseGlobalFlags([]string{"--bogus", "serve"})
	assert.Error(t, err)
}
