package config

import (
	"fmt"
)

// RunLogConfig defines settings for batch run record storage and rotation.
type RunLogConfig struct {
	// Backend selects the run log store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the run log store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *RunLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "runs.log"
	}
}

// Validate checks mandatory fields.
func (c RunLogConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown run log backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("run log path is required")
	}
	return nil
}
