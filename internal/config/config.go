// Package config loads hangul-typing configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
)

// Config holds the runtime configuration for the assistant broker.
type Config struct {
	// Port is the HTTP port the command layer listens on.
	Port int `json:"port"`
	// EnableCORS enables permissive CORS on the HTTP surface.
	EnableCORS bool `json:"enableCors"`
	// LogLevel is the minimum log level (DEBUG|INFO|WARN|ERROR).
	LogLevel string `json:"logLevel"`
	// LogPretty enables human-readable console logging.
	LogPretty bool `json:"logPretty"`
	// CopilotBinary is the Copilot CLI executable name or path.
	CopilotBinary string `json:"copilotBinary"`
	// GHBinary is the GitHub CLI executable name or path.
	GHBinary string `json:"ghBinary"`
	// SessionTimeoutSeconds bounds each wait for the next session event.
	SessionTimeoutSeconds int `json:"sessionTimeoutSeconds"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Port:                  8080,
		EnableCORS:            true,
		LogLevel:              "INFO",
		CopilotBinary:         "copilot",
		GHBinary:              "gh",
		SessionTimeoutSeconds: 60,
	}
}

// SessionTimeout returns the watchdog timeout as a duration.
func (c *Config) SessionTimeout() time.Duration {
	if c.SessionTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

// Load loads configuration from multiple sources (priority order):
//  1. Global config (~/.config/hangul-typing/)
//  2. Project config (./hangul-typing.jsonc)
//  3. Explicit path (highest-priority file)
//  4. Environment variables
//
// A .env file in the working directory is loaded first so that env
// overrides can come from it as well. Missing files are skipped.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		globalDir := filepath.Join(home, ".config", "hangul-typing")
		loadFile(filepath.Join(globalDir, "config.json"), cfg)
		loadFile(filepath.Join(globalDir, "config.jsonc"), cfg)
	}

	loadFile("hangul-typing.json", cfg)
	loadFile("hangul-typing.jsonc", cfg)

	if path == "" {
		path = os.Getenv("HANGUL_TYPING_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadFile loads a single JSONC config file into cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	return json.Unmarshal(data, cfg)
}

// applyEnvOverrides applies HANGUL_TYPING_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HANGUL_TYPING_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("HANGUL_TYPING_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HANGUL_TYPING_COPILOT_BIN"); v != "" {
		cfg.CopilotBinary = v
	}
	if v := os.Getenv("HANGUL_TYPING_GH_BIN"); v != "" {
		cfg.GHBinary = v
	}
	if v := os.Getenv("HANGUL_TYPING_SESSION_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.SessionTimeoutSeconds = secs
		}
	}
}
