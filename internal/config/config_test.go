package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearKeyEnv() {
	os.Unsetenv("FRED_API_KEY")
	os.Unsetenv("MACROLENS_FRED_API_KEY")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// FRED defaults
	if cfg.FRED.BaseURL != "https://api.stlouisfed.org/fred" {
		t.Errorf("FRED.BaseURL: got %q", cfg.FRED.BaseURL)
	}
	if !cfg.FRED.RequireAPIKey {
		t.Error("FRED.RequireAPIKey should be true by default")
	}
	if cfg.FRED.TimeoutSec != 30 {
		t.Errorf("FRED.TimeoutSec: got %d, want 30", cfg.FRED.TimeoutSec)
	}

	// Snapshot defaults
	if cfg.Snapshots.Dir != "./snapshots" {
		t.Errorf("Snapshots.Dir: got %q, want %q", cfg.Snapshots.Dir, "./snapshots")
	}
	if !cfg.Snapshots.Enabled {
		t.Error("Snapshots.Enabled should be true by default")
	}
	if cfg.Snapshots.HistoryLimit != 3 {
		t.Errorf("Snapshots.HistoryLimit: got %d, want 3", cfg.Snapshots.HistoryLimit)
	}

	// News defaults
	if cfg.News.CacheTTLMin != 10 {
		t.Errorf("News.CacheTTLMin: got %d, want 10", cfg.News.CacheTTLMin)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
fred:
  api_key: "file_key_1234567890abcdef"
  require_api_key: false
  timeout_sec: 10
snapshots:
  dir: "/var/lib/macrolens/snapshots"
  enabled: false
  history_limit: 5
api:
  port: 9090
logging:
  level: "debug"
  format: "console"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	clearKeyEnv()

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.FRED.APIKey != "file_key_1234567890abcdef" {
		t.Errorf("FRED.APIKey: got %q", cfg.FRED.APIKey)
	}
	if cfg.FRED.RequireAPIKey {
		t.Error("FRED.RequireAPIKey should be false from file")
	}
	if cfg.FRED.TimeoutSec != 10 {
		t.Errorf("FRED.TimeoutSec: got %d, want 10", cfg.FRED.TimeoutSec)
	}
	if cfg.Snapshots.Dir != "/var/lib/macrolens/snapshots" {
		t.Errorf("Snapshots.Dir: got %q", cfg.Snapshots.Dir)
	}
	if cfg.Snapshots.Enabled {
		t.Error("Snapshots.Enabled should be false from file")
	}
	if cfg.Snapshots.HistoryLimit != 5 {
		t.Errorf("Snapshots.HistoryLimit: got %d, want 5", cfg.Snapshots.HistoryLimit)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	// File must not disturb untouched sections
	if cfg.FRED.BaseURL != "https://api.stlouisfed.org/fred" {
		t.Errorf("FRED.BaseURL default lost: got %q", cfg.FRED.BaseURL)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnvBareVar(t *testing.T) {
	clearKeyEnv()
	os.Setenv("FRED_API_KEY", "bare-env-key-123456")
	defer clearKeyEnv()

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.FRED.APIKey != "bare-env-key-123456" {
		t.Errorf("FRED.APIKey: got %q, want the FRED_API_KEY value", cfg.FRED.APIKey)
	}
}

func TestOverrideFromEnvPrefixedWins(t *testing.T) {
	clearKeyEnv()
	os.Setenv("FRED_API_KEY", "bare-env-key")
	os.Setenv("MACROLENS_FRED_API_KEY", "prefixed-env-key")
	defer clearKeyEnv()

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.FRED.APIKey != "prefixed-env-key" {
		t.Errorf("FRED.APIKey: got %q, want the prefixed value to win", cfg.FRED.APIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv()

	cfg := &Config{FRED: FREDConfig{APIKey: "from-config"}}
	overrideFromEnv(cfg)

	// Should retain the original value when env is not set
	if cfg.FRED.APIKey != "from-config" {
		t.Errorf("FRED.APIKey should stay as 'from-config' when env is unset, got %q", cfg.FRED.APIKey)
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	// Keys with 8 or fewer characters should be fully masked
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	// Keys with more than 8 characters show first 3 + ... + last 3
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"abcdef1234567890xyz", "abc...xyz"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysEmpty(t *testing.T) {
	clearKeyEnv()

	cfg := &Config{FRED: FREDConfig{RequireAPIKey: true}}
	statuses := CheckAPIKeys(cfg)

	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	s := statuses[0]
	if s.IsSet {
		t.Errorf("Key %q should not be set", s.Name)
	}
	if s.Source != KeySourceNone {
		t.Errorf("Key %q source: got %q, want %q", s.Name, s.Source, KeySourceNone)
	}
	if !s.Required {
		t.Error("Required should reflect FRED.RequireAPIKey")
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearKeyEnv()

	cfg := &Config{FRED: FREDConfig{APIKey: "abcdef0123456789fredkey"}}
	statuses := CheckAPIKeys(cfg)

	s := statuses[0]
	if !s.IsSet {
		t.Error("FRED key should be set")
	}
	if s.Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
	}
	if s.Masked != "abc...key" {
		t.Errorf("Masked: got %q, want %q", s.Masked, "abc...key")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	clearKeyEnv()
	os.Setenv("FRED_API_KEY", "env-key-for-testing")
	defer clearKeyEnv()

	cfg := &Config{FRED: FREDConfig{APIKey: "env-key-for-testing"}}
	statuses := CheckAPIKeys(cfg)

	if statuses[0].Source != KeySourceEnv {
		t.Errorf("Source: got %q, want %q", statuses[0].Source, KeySourceEnv)
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	// No env, no value
	os.Unsetenv("TEST_VAR")
	s := checkKey("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone {
		t.Errorf("empty value: got source %q, want %q", s.Source, KeySourceNone)
	}
	if s.IsSet {
		t.Error("empty value should not be set")
	}

	// Value from config (no env)
	s = checkKey("Test", "config-value-long-enough", "TEST_VAR")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}
	if !s.IsSet {
		t.Error("config value should be set")
	}

	// Value from env (any of the listed vars)
	os.Setenv("TEST_VAR_ALT", "env-value-long-enough")
	defer os.Unsetenv("TEST_VAR_ALT")
	s = checkKey("Test", "env-value-long-enough", "TEST_VAR", "TEST_VAR_ALT")
	if s.Source != KeySourceEnv {
		t.Errorf("env value: got source %q, want %q", s.Source, KeySourceEnv)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}
