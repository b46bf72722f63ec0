// Package config handles configuration loading for MacroLens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	FRED      FREDConfig      `mapstructure:"fred"      yaml:"fred"`
	Snapshots SnapshotsConfig `mapstructure:"snapshots" yaml:"snapshots"`
	News      NewsConfig      `mapstructure:"news"      yaml:"news"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// FREDConfig holds upstream FRED API settings.
type FREDConfig struct {
	APIKey        string `mapstructure:"api_key"         yaml:"api_key"`
	RequireAPIKey bool   `mapstructure:"require_api_key" yaml:"require_api_key"`
	BaseURL       string `mapstructure:"base_url"        yaml:"base_url"`
	TimeoutSec    int    `mapstructure:"timeout_sec"     yaml:"timeout_sec"`
}

// SnapshotsConfig holds local snapshot storage settings.
type SnapshotsConfig struct {
	Dir          string `mapstructure:"dir"           yaml:"dir"`
	Enabled      bool   `mapstructure:"enabled"       yaml:"enabled"`
	HistoryLimit int    `mapstructure:"history_limit" yaml:"history_limit"`
}

// NewsConfig holds economic news feed settings.
type NewsConfig struct {
	CacheTTLMin int `mapstructure:"cache_ttl_min" yaml:"cache_ttl_min"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.macrolens/config.yaml (home directory)
//  3. /etc/macrolens/config.yaml (system)
//
// Environment variables override config file values.
// Format: MACROLENS_<SECTION>_<KEY>, e.g., MACROLENS_FRED_API_KEY.
// The bare FRED_API_KEY variable is also honored.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".macrolens"))
	v.AddConfigPath("/etc/macrolens")

	// Environment variable settings
	v.SetEnvPrefix("MACROLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found: fall back to defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("MACROLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// FRED defaults
	v.SetDefault("fred.base_url", "https://api.stlouisfed.org/fred")
	v.SetDefault("fred.require_api_key", true)
	v.SetDefault("fred.timeout_sec", 30)

	// Snapshot defaults
	v.SetDefault("snapshots.dir", "./snapshots")
	v.SetDefault("snapshots.enabled", true)
	v.SetDefault("snapshots.history_limit", 3)

	// News defaults
	v.SetDefault("news.cache_ttl_min", 10)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// The bare FRED_API_KEY form is checked first; the prefixed form wins when
// both are set.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FRED_API_KEY"); key != "" {
		cfg.FRED.APIKey = key
	}
	if key := os.Getenv("MACROLENS_FRED_API_KEY"); key != "" {
		cfg.FRED.APIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
