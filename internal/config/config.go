package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents extraction pipeline configuration options
type Config struct {
	// CSVOut is the path of the output artifact
	CSVOut string `yaml:"csv_out"`

	// Jobs is the degree of parallelism within one batch
	Jobs int `yaml:"jobs"`

	// BatchSize is the number of candidate files dispatched per batch
	BatchSize int `yaml:"batch_size"`

	// ToolPath overrides discovery of the crystal-eye converter binary
	ToolPath string `yaml:"tool_path"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		CSVOut:    "open_sight_results.csv",
		Jobs:      1,
		BatchSize: 50,
		ToolPath:  "",
		LogLevel:  "info",
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if fileCfg.CSVOut != "" {
		cfg.CSVOut = fileCfg.CSVOut
	}
	if fileCfg.Jobs != 0 {
		cfg.Jobs = fileCfg.Jobs
	}
	if fileCfg.BatchSize != 0 {
		cfg.BatchSize = fileCfg.BatchSize
	}
	if fileCfg.ToolPath != "" {
		cfg.ToolPath = fileCfg.ToolPath
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .opensight/config.yaml in the
// specified directory. If the directory or file doesn't exist, returns
// default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".opensight", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
// This allows CLI flags to take precedence over config file settings.
func (c *Config) MergeWithFlags(csvOut *string, jobs *int, batchSize *int, toolPath *string, logLevel *string) {
	if csvOut != nil {
		c.CSVOut = *csvOut
	}
	if jobs != nil {
		c.Jobs = *jobs
	}
	if batchSize != nil {
		c.BatchSize = *batchSize
	}
	if toolPath != nil {
		c.ToolPath = *toolPath
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.CSVOut == "" {
		return fmt.Errorf("csv_out cannot be empty")
	}

	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be >= 1, got %d", c.Jobs)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", c.BatchSize)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}
