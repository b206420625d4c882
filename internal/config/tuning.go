// Package config holds the serving daemon's tunable parameters. All fields
// are pointers so a partial JSON file only overrides what it names; the Get*
// accessors supply the defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig is the root tuning schema for the history daemon.
type TuningConfig struct {
	// History store params
	RetentionDays      *int `json:"retention_days,omitempty"`
	DefaultHistoryDays *int `json:"default_history_days,omitempty"`

	// Server params
	ShutdownTimeout *string `json:"shutdown_timeout,omitempty"` // duration string like "5s"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted from
// the JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.RetentionDays != nil && *c.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be positive, got %d", *c.RetentionDays)
	}
	if c.DefaultHistoryDays != nil && *c.DefaultHistoryDays < 1 {
		return fmt.Errorf("default_history_days must be positive, got %d", *c.DefaultHistoryDays)
	}
	if c.RetentionDays != nil && c.DefaultHistoryDays != nil &&
		*c.DefaultHistoryDays > *c.RetentionDays {
		return fmt.Errorf("default_history_days (%d) cannot exceed retention_days (%d)",
			*c.DefaultHistoryDays, *c.RetentionDays)
	}
	if c.ShutdownTimeout != nil && *c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(*c.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid shutdown_timeout '%s': %w", *c.ShutdownTimeout, err)
		}
	}
	return nil
}

// GetRetentionDays returns the retention_days value or the default.
func (c *TuningConfig) GetRetentionDays() int {
	if c.RetentionDays == nil {
		return 30 // matches history.RetentionDays
	}
	return *c.RetentionDays
}

// GetDefaultHistoryDays returns the default_history_days value or the default.
func (c *TuningConfig) GetDefaultHistoryDays() int {
	if c.DefaultHistoryDays == nil {
		return 21
	}
	return *c.DefaultHistoryDays
}

// GetShutdownTimeout parses and returns the ShutdownTimeout as a time.Duration.
func (c *TuningConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == nil || *c.ShutdownTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
