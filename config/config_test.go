package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `rules:
  rest_hours_min: 12
  weekly_hours_cap: 50
solver:
  worker_count: 4
  time_budget_seconds: 20
store:
  type: "sqlite"
  conf:
    path: "roster.db"
metrics:
  sinks:
    - type: "nop"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"rest_hours_min", cfg.Rules.RestHoursMin, 12.0},
		{"weekly_hours_cap", cfg.Rules.WeeklyHoursCap, 50.0},
		{"span_regular_max default", cfg.Rules.SpanRegularMaxH, 14.0},
		{"worker_count", cfg.Solver.WorkerCount, 4},
		{"time_budget_seconds", cfg.Solver.TimeBudgetSeconds, 20},
		{"max_improvement_rounds default", cfg.Solver.MaxImprovementRounds, 10},
		{"store type", cfg.Store.Type, "sqlite"},
		{"store path", cfg.Store.Conf["path"], "roster.db"},
		{"metrics sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"log level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"rules": {"weekly_hours_cap": 48}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("R_RULES__WEEKLY_HOURS_CAP", "55")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Rules.WeeklyHoursCap != 55 {
		t.Fatalf("env override lost, cap = %v", cfg.Rules.WeeklyHoursCap)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestLoadInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "logging:\n  level: \"loud\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected invalid level error")
	}
}
