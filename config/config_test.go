package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `store:
  driver: "sqlite"
  path: "/tmp/test.db"
scheduler:
  slot_start_hour: 9
  slot_end_hour: 17
retry:
  max_attempts: 5
  base_delay_ms: 50
metrics:
  prometheus_enabled: true
  prometheus_port: ":9100"
notifier:
  enabled: true
  mqtt:
    broker: "tcp://localhost:1883"
    client_id: "cli"
    topic_prefix: "rota"
run_log:
  backend: "sqlite"
  path: "/tmp/runs.db"
http:
  addr: ":8088"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"store.driver", cfg.Store.Driver, "sqlite"},
		{"store.path", cfg.Store.Path, "/tmp/test.db"},
		{"scheduler.start", cfg.Scheduler.SlotStartHour, 9},
		{"scheduler.end", cfg.Scheduler.SlotEndHour, 17},
		{"retry.attempts", cfg.Retry.MaxAttempts, 5},
		{"retry.delay", cfg.Retry.BaseDelayMS, 50},
		{"metrics.prom", cfg.Metrics.PrometheusEnabled, true},
		{"metrics.port", cfg.Metrics.PrometheusPort, ":9100"},
		{"notifier.enabled", cfg.Notifier.Enabled, true},
		{"notifier.broker", cfg.Notifier.MQTT.Broker, "tcp://localhost:1883"},
		{"notifier.prefix", cfg.Notifier.MQTT.TopicPrefix, "rota"},
		{"run_log.backend", cfg.RunLog.Backend, "sqlite"},
		{"http.addr", cfg.HTTP.Addr, ":8088"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `store:
  driver: "memory"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("retry attempts default: got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelayMS != 1000 {
		t.Errorf("retry delay default: got %d", cfg.Retry.BaseDelayMS)
	}
	if cfg.Scheduler.SlotStartHour != 8 || cfg.Scheduler.SlotEndHour != 20 {
		t.Errorf("scheduler defaults: got %d-%d", cfg.Scheduler.SlotStartHour, cfg.Scheduler.SlotEndHour)
	}
	if cfg.RunLog.Backend != "jsonl" {
		t.Errorf("run log backend default: got %s", cfg.RunLog.Backend)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("http addr default: got %s", cfg.HTTP.Addr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `store:
  driver: "memory"
`)
	if err := os.Setenv("K_HTTP__ADDR", ":9999"); err != nil {
		t.Fatalf("setenv: %v", err)
	}
	defer os.Unsetenv("K_HTTP__ADDR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("env override ignored: got %s", cfg.HTTP.Addr)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad driver": `store:
  driver: "postgres"
`,
		"bad hours": `store:
  driver: "memory"
scheduler:
  slot_start_hour: 18
  slot_end_hour: 9
`,
		"bad run log": `store:
  driver: "memory"
run_log:
  backend: "csv"
`,
		"notifier without broker": `store:
  driver: "memory"
notifier:
  enabled: true
`,
	}
	for name, data := range cases {
		path := writeConfig(t, data)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
