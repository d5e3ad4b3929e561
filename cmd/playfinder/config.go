package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/filters"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Filters  FiltersConfig  `yaml:"filters"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	SessionHours int    `yaml:"session_hours"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type FiltersConfig struct {
	DefaultMaxDistanceKm float64              `yaml:"default_max_distance_km"`
	Rules                filters.FilterConfig `yaml:"rules"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

func (c AuthConfig) SessionDuration() time.Duration {
	return time.Duration(c.SessionHours) * time.Hour
}

func getConfigPath() string {
	if globalConfig.ConfigPath != "" {
		return expandPath(globalConfig.ConfigPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".playfinder/config.yaml"
	}

	return filepath.Join(homeDir, ".playfinder", "config.yaml")
}

// LoadConfig reads the config file over the defaults. A missing file yields
// the defaults.
func LoadConfig() (*Config, error) {
	return loadConfigFile(getConfigPath())
}

func loadConfigFile(configPath string) (*Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Database.Path = expandPath(config.Database.Path)
	config.Logging.Path = expandPath(config.Logging.Path)

	return config, nil
}

func SaveConfig(config *Config) error {
	return saveConfigFile(getConfigPath(), config)
}

func saveConfigFile(configPath string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file carries the token secret
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func GetDefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	baseDir := filepath.Join(homeDir, ".playfinder")

	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(baseDir, "data.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			SessionHours: 24,
		},
		Redis: RedisConfig{
			Address: "127.0.0.1:6379",
		},
		Filters: FiltersConfig{
			Rules: filters.DefaultFilterConfig,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return homeDir
		}
		return filepath.Join(homeDir, path[1:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		return absPath
	}

	return path
}

func ValidateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !logging.ValidLevel(config.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s", config.Logging.Level)
	}

	if config.Logging.Format != "" && config.Logging.Format != "text" && config.Logging.Format != "json" {
		return fmt.Errorf("invalid logging format: %s", config.Logging.Format)
	}

	if config.Auth.SessionHours < 0 {
		return fmt.Errorf("session hours cannot be negative: %d", config.Auth.SessionHours)
	}

	if config.Redis.Enabled && config.Redis.Address == "" {
		return fmt.Errorf("redis address cannot be empty when redis is enabled")
	}

	if config.Filters.DefaultMaxDistanceKm < 0 {
		return fmt.Errorf("default max distance cannot be negative: %g", config.Filters.DefaultMaxDistanceKm)
	}

	return nil
}

// InitDatabase opens the database and applies pending migrations.
func InitDatabase(dbPath string) (*storage.DB, error) {
	return storage.Open(storage.Config{Path: dbPath})
}

// newLogger builds the process logger. A logging path sends logs to
// <path>/playfinder.log instead of stderr.
func newLogger(config LoggingConfig) (logging.Logger, io.Closer, error) {
	level := config.Level
	if globalConfig.Verbose {
		level = "debug"
	}

	if config.Path == "" {
		return logging.New(logging.Config{Level: level, Format: config.Format}), nopCloser{}, nil
	}

	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(config.Path, "playfinder.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logging.New(logging.Config{Level: level, Format: config.Format, Output: f}), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
