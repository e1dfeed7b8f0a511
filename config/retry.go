package config

import (
	"fmt"
	"time"

	"github.com/4Lajf/grafikonator-6000/core/retry"
)

// RetryConfig tunes the backoff policy wrapped around store operations.
type RetryConfig struct {
	// MaxAttempts is the attempt budget per operation.
	MaxAttempts int `json:"max_attempts"`
	// BaseDelayMS is the first backoff delay in milliseconds; subsequent
	// delays double.
	BaseDelayMS int `json:"base_delay_ms"`
}

// SetDefaults applies the standard three-attempt policy.
func (c *RetryConfig) SetDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = retry.DefaultMaxAttempts
	}
	if c.BaseDelayMS == 0 {
		c.BaseDelayMS = int(retry.DefaultBaseDelay / time.Millisecond)
	}
}

// Validate checks the policy is usable.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1")
	}
	if c.BaseDelayMS < 0 {
		return fmt.Errorf("retry base_delay_ms must not be negative")
	}
	return nil
}

// Options converts the config into retry options.
func (c RetryConfig) Options() retry.Options {
	return retry.Options{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   time.Duration(c.BaseDelayMS) * time.Millisecond,
	}
}
