package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/history"
)

// Config holds the application configuration
type Config struct {
	Session SessionConfig `json:"session"`
	Output  OutputConfig  `json:"output"`
	Input   InputConfig   `json:"input"`
}

// SessionConfig holds configuration for interactive cropping
type SessionConfig struct {
	MaxHistory      int     `json:"max_history"`
	HandleTolerance float64 `json:"handle_tolerance"`
	// DefaultRatio is a lock request ("free", "original", "16:9", ...)
	DefaultRatio string `json:"default_ratio"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format"`
	Quality       int    `json:"quality"`
	Lossless      bool   `json:"lossless"`
	OutputDir     string `json:"output_dir"`
	Prefix        string `json:"prefix"`
	Suffix        string `json:"suffix"`
	// Overwrite writes crops back over their inputs
	Overwrite bool `json:"overwrite"`
}

// InputConfig holds configuration for input discovery
type InputConfig struct {
	SupportedFormats []string `json:"supported_formats"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			MaxHistory:      history.DefaultMaxHistory,
			HandleTolerance: cropper.DefaultTolerance,
			DefaultRatio:    "free",
		},
		Output: OutputConfig{
			DefaultFormat: "",
			Quality:       90,
			OutputDir:     "./output",
			Suffix:        "_cropped",
		},
		Input: InputConfig{
			SupportedFormats: []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"},
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads filename when it exists and falls back to defaults otherwise
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFromFile(filename)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Session.MaxHistory < 1 {
		return fmt.Errorf("session.max_history must be positive")
	}

	if c.Session.HandleTolerance <= 0 {
		return fmt.Errorf("session.handle_tolerance must be positive")
	}

	if _, err := cropper.ParseLockRequest(c.Session.DefaultRatio); err != nil {
		return fmt.Errorf("session.default_ratio: %w", err)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if f := strings.ToLower(c.Output.DefaultFormat); f != "" && !c.Supports(f) {
		return fmt.Errorf("output.default_format %q is not a supported format", c.Output.DefaultFormat)
	}

	if !c.Output.Overwrite && c.Output.OutputDir == "" && c.Output.Prefix == "" && c.Output.Suffix == "" && c.Output.DefaultFormat == "" {
		return fmt.Errorf("output would overwrite inputs; set output.overwrite or a dir, prefix, suffix or format")
	}

	if len(c.Input.SupportedFormats) == 0 {
		return fmt.Errorf("input.supported_formats cannot be empty")
	}

	return nil
}

// Supports reports whether ext (with or without the dot) is an accepted
// image format
func (c *Config) Supports(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, f := range c.Input.SupportedFormats {
		if strings.ToLower(f) == ext {
			return true
		}
	}
	return false
}

// LockRequest parses the configured default ratio
func (c *Config) LockRequest() (cropper.LockRequest, error) {
	return cropper.ParseLockRequest(c.Session.DefaultRatio)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-cropper", "config.json")
}
