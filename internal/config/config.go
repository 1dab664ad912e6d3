// Package config loads specl configuration from a global file, an optional
// local file, and SPECL_-prefixed environment variables, in increasing
// priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration is everything the specl CLI needs to run.
type Configuration struct {
	// DBPath locates the SQLite database holding documents and exports.
	DBPath string `koanf:"db_path" validate:"required"`

	// AIMode is the oracle capability tier: cloud, local or disabled.
	AIMode string `koanf:"ai_mode" validate:"oneof=cloud local disabled"`

	// Oracle provider settings; APIKey may also come from SPECL_API_KEY.
	Provider string `koanf:"provider" validate:"required_unless=AIMode disabled"`
	Model    string `koanf:"model" validate:"required_unless=AIMode disabled"`
	BaseURL  string `koanf:"base_url" validate:"omitempty,url"`
	APIKey   string `koanf:"api_key"`

	// Export defaults, overridable per invocation.
	Profile string `koanf:"profile" validate:"oneof=lean standard detailed"`
	Scope   string `koanf:"scope" validate:"oneof=all p0_only p0_p1"`

	MaxRetries int `koanf:"max_retries" validate:"min=1,max=10"`

	// TimeoutSeconds bounds one oracle HTTP call.
	TimeoutSeconds int `koanf:"timeout" validate:"min=1,max=600"`
}

// GetDefaults returns the baseline configuration values.
func GetDefaults() map[string]any {
	return map[string]any{
		"db_path":     "~/.specl/specl.db",
		"ai_mode":     "disabled",
		"provider":    "anthropic",
		"model":       "claude-sonnet-4-20250514",
		"profile":     "standard",
		"scope":       "all",
		"max_retries": 3,
		"timeout":     120,
	}
}

// Load reads configuration with priority:
// environment > local file > global file > defaults.
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		globalPath := filepath.Join(homeDir, ".specl", "config.json")
		if _, err := os.Stat(globalPath); err == nil {
			if err := k.Load(file.Provider(globalPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("load global config: %w", err)
			}
		}
	}

	if localConfigPath != "" {
		if _, err := os.Stat(localConfigPath); err == nil {
			if err := k.Load(file.Provider(localConfigPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("load local config: %w", err)
			}
		}
	}

	k.Load(env.Provider("SPECL_", ".", envTransform), nil)

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.DBPath = expandHomePath(cfg.DBPath)

	return &cfg, nil
}

// envTransform converts environment variable names to config keys.
// Example: SPECL_AI_MODE -> ai_mode
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "SPECL_"))
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
