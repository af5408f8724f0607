// Package config provides configuration loading and management for rawtools.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Scan parameters control range discovery over float volumes
	Scan struct {
		// Workers bounds how many slice files are scanned concurrently
		// when discovering the range of an NSI project
		Workers int `yaml:"workers"`

		// BufferPercent sizes the range-scan chunk as a percentage of the
		// scanned file. Zero keeps the built-in default of one percent.
		BufferPercent float64 `yaml:"bufferPercent"`
	} `yaml:"scan"`

	// Output parameters
	Output struct {
		// Progress enables per-volume progress bars on stderr
		Progress bool `yaml:"progress"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Extract parameters for exporting slice images from a volume
	Extract struct {
		// JPEGQuality is the encoder quality for exported slice images
		JPEGQuality int `yaml:"jpegQuality"`
	} `yaml:"extract"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default scan parameters
	cfg.Scan.Workers = runtime.NumCPU() // Scan slice files on all cores by default
	cfg.Scan.BufferPercent = 0

	// Set default output parameters
	cfg.Output.Progress = true
	cfg.Output.Verbose = false

	// Set default extract parameters
	cfg.Extract.JPEGQuality = 90

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
