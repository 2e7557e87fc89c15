package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. TOFF_DB_PATH.
const EnvPrefix = "TOFF_"

const (
	PolicyBlock = "block"
	PolicyWarn  = "warn"
)

// Config is the complete toff configuration.
type Config struct {
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// JournalConfig locates the trade store.
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path" env:"DB_PATH"`
}

// ValidationConfig controls the balance check run before every save.
type ValidationConfig struct {
	Policy  string  `json:"policy" yaml:"policy" env:"POLICY"` // "block" or "warn"
	Epsilon float64 `json:"epsilon" yaml:"epsilon" env:"EPSILON"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level       string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Development bool   `json:"development" yaml:"development" env:"LOG_DEVELOPMENT"`
}

// Load reads path (or starts from Default when path is empty), applies
// TOFF_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML) without
// environment overrides. Fields missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TOFF_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if c.Validation.Policy != PolicyBlock && c.Validation.Policy != PolicyWarn {
		return fmt.Errorf("validation.policy must be 'block' or 'warn'")
	}
	if c.Validation.Epsilon <= 0 || c.Validation.Epsilon >= 1 {
		return fmt.Errorf("validation.epsilon must be between 0 and 1")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Journal: JournalConfig{
			DBPath: "./toff.sqlite",
		},
		Validation: ValidationConfig{
			Policy:  PolicyBlock,
			Epsilon: 1e-8,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// NewLogger builds a zap logger for this configuration.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
