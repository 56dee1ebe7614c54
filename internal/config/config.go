// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	Dump   string `json:"dump,omitempty"`    // Path to the (optionally .bz2) dump file
	OutDir string `json:"out_dir,omitempty"` // Output directory
	Base   string `json:"base,omitempty"`    // Base name for output files

	MaxPages  int `json:"max_pages,omitempty"`  // Page cap, 0 = unbounded
	BatchSize int `json:"batch_size,omitempty"` // Records per shard

	SkipRedirects         bool `json:"skip_redirects,omitempty"`
	IncludeNonMain        bool `json:"include_non_main,omitempty"`
	IncludeDisambiguation bool `json:"include_disambiguation,omitempty"`
	KeepLists             bool `json:"keep_lists,omitempty"`

	DisambiguationMarkers []string `json:"disambiguation_markers,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
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
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.MaxPages < 0 {
		return fmt.Errorf("config error: 'max_pages' must be non-negative")
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("config error: 'batch_size' must be non-negative")
	}

	if c.Dump != "" {
		if _, err := os.Stat(c.Dump); os.IsNotExist(err) {
			return fmt.Errorf("config error: dump file not found: %s", c.Dump)
		}
	}

	return nil
}
