// Package config loads the application configuration from a YAML or JSON
// file with K_ environment variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/4Lajf/grafikonator-6000/core/metrics"
	"github.com/4Lajf/grafikonator-6000/infra/notify"
)

type Config struct {
	Store     StoreConfig     `json:"store"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Retry     RetryConfig     `json:"retry"`
	Metrics   metrics.Config  `json:"metrics"`
	Notifier  NotifierConfig  `json:"notifier"`
	RunLog    RunLogConfig    `json:"run_log"`
	HTTP      HTTPConfig      `json:"http"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver selects the store type: "sqlite" or "memory".
	Driver string `json:"driver"`
	// Path is the SQLite database location.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Path == "" {
		c.Path = "grafikonator.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Driver != "sqlite" && c.Driver != "memory" {
		return fmt.Errorf("unknown store driver %s", c.Driver)
	}
	if c.Driver == "sqlite" && c.Path == "" {
		return fmt.Errorf("store path is required")
	}
	return nil
}

// SchedulerConfig tunes slot generation.
type SchedulerConfig struct {
	// SlotStartHour is the hour of the first generated slot.
	SlotStartHour int `json:"slot_start_hour"`
	// SlotEndHour is the exclusive upper bound of generated slots.
	SlotEndHour int `json:"slot_end_hour"`
}

// SetDefaults applies the standard business-hours grid.
func (c *SchedulerConfig) SetDefaults() {
	if c.SlotStartHour == 0 && c.SlotEndHour == 0 {
		c.SlotStartHour = 8
		c.SlotEndHour = 20
	}
}

// Validate checks the hour range.
func (c SchedulerConfig) Validate() error {
	if c.SlotStartHour < 0 || c.SlotEndHour > 24 || c.SlotStartHour >= c.SlotEndHour {
		return fmt.Errorf("invalid slot hour range %d-%d", c.SlotStartHour, c.SlotEndHour)
	}
	return nil
}

// NotifierConfig enables the MQTT notifier.
type NotifierConfig struct {
	Enabled bool          `json:"enabled"`
	MQTT    notify.Config `json:"mqtt"`
}

// Validate checks mandatory fields when enabled.
func (c NotifierConfig) Validate() error {
	if c.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("notifier broker is required")
	}
	return nil
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// Token, when set, is required as a bearer token on every API request.
	Token string `json:"token"`
	// Detail exposes full error messages in API responses. Leave off in
	// production; clients then get the generic statement per error kind.
	Detail bool `json:"detail"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Store.SetDefaults()
	cfg.Scheduler.SetDefaults()
	cfg.Retry.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Notifier.MQTT.SetDefaults()
	cfg.RunLog.SetDefaults()
	cfg.HTTP.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifier.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RunLog.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
