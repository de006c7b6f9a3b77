package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Qobuz     QobuzConfig     `toml:"qobuz"`
	Reporting ReportingConfig `toml:"reporting"`
	Autoplay  AutoplayConfig  `toml:"autoplay"`
	Database  DatabaseConfig  `toml:"database"`
}

// QobuzConfig contains provider account credentials and app identity.
//
// PasswordHash is the MD5 of the account password, never the clear text.
// Secrets holds the candidate app secrets used for signed stream-URL
// requests; the client probes them at login until one validates.
type QobuzConfig struct {
	Email        string   `toml:"email"`
	PasswordHash string   `toml:"password_hash"`
	AppID        string   `toml:"app_id"`
	Secrets      []string `toml:"secrets"`
	FormatID     int      `toml:"format_id"`
}

// ReportingConfig tunes the playback telemetry sender.
type ReportingConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// AutoplayConfig tunes the recommendation engine.
type AutoplayConfig struct {
	BatchSize int `toml:"batch_size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
