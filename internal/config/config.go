// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jonathan/career-navigator/internal/ingestion"
	"github.com/jonathan/career-navigator/internal/llm"
)

// Defaults
const (
	DefaultPort                = 8080
	DefaultExchange            = "session_updates"
	DefaultStageTimeoutSeconds = 120
)

// Environment fallbacks
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvDatabaseURL = "DATABASE_URL"
	EnvAMQPURL     = "AMQP_URL"
)

// Config represents the configuration that can be loaded from a JSON or TOML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Input
	Resume     string `json:"resume,omitempty" toml:"resume"`           // Resume file path or s3://bucket/key
	CareerGoal string `json:"career_goal,omitempty" toml:"career_goal"` // Optional goal hint for path generation
	ChosenPath string `json:"chosen_path,omitempty" toml:"chosen_path"` // Career path title to select
	Output     string `json:"out,omitempty" toml:"out"`                 // Where to write the profile JSON

	// Generators
	APIKey              string      `json:"api_key,omitempty" toml:"api_key"`
	Offline             bool        `json:"offline,omitempty" toml:"offline"` // Use the static advisor
	StageTimeoutSeconds int         `json:"stage_timeout_seconds,omitempty" toml:"stage_timeout_seconds"`
	LLM                 *llm.Config `json:"llm,omitempty" toml:"llm"`

	// Adapters
	DatabaseURL string              `json:"database_url,omitempty" toml:"database_url"`
	AMQPURL     string              `json:"amqp_url,omitempty" toml:"amqp_url"`
	Exchange    string              `json:"exchange,omitempty" toml:"exchange"`
	S3          *ingestion.S3Config `json:"s3,omitempty" toml:"s3"`

	// Server
	Port int `json:"port,omitempty" toml:"port"`

	// Behavior
	Verbose bool `json:"verbose,omitempty" toml:"verbose"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		StageTimeoutSeconds: DefaultStageTimeoutSeconds,
		Exchange:            DefaultExchange,
		Port:                DefaultPort,
		LLM:                 llm.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a file. Files ending in .toml are
// decoded as TOML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked by the commands after merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}
	if c.StageTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'stage_timeout_seconds' must be non-negative")
	}

	if c.Resume != "" && !strings.HasPrefix(c.Resume, "s3://") {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}

	if c.LLM != nil {
		switch c.LLM.Provider {
		case llm.ProviderGemini, llm.ProviderGenAI, "":
		default:
			return fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider)
		}
		if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
			return fmt.Errorf("config error: 'llm.temperature' must be between 0 and 2")
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.CareerGoal == "" {
		result.CareerGoal = defaults.CareerGoal
	}
	if result.ChosenPath == "" {
		result.ChosenPath = defaults.ChosenPath
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.AMQPURL == "" {
		result.AMQPURL = defaults.AMQPURL
	}
	if result.Exchange == "" {
		result.Exchange = defaults.Exchange
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.StageTimeoutSeconds == 0 {
		result.StageTimeoutSeconds = defaults.StageTimeoutSeconds
	}

	// Nested sections are taken whole
	if result.LLM == nil {
		result.LLM = defaults.LLM
	}
	if result.S3 == nil {
		result.S3 = defaults.S3
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills credentials and URLs that are still empty from the environment
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(EnvAPIKey)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv(EnvDatabaseURL)
	}
	if c.AMQPURL == "" {
		c.AMQPURL = os.Getenv(EnvAMQPURL)
	}
}

// StageTimeout returns the per-stage generator timeout. Zero disables it.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.StageTimeoutSeconds) * time.Second
}
