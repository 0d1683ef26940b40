// Package config loads the rosterd configuration from a JSON or YAML file
// with optional environment overrides.
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

	"github.com/fleetroster/rosterd/core/factory"
	"github.com/fleetroster/rosterd/core/metrics"
	"github.com/fleetroster/rosterd/core/rules"
	"github.com/fleetroster/rosterd/core/solver"
)

type Config struct {
	Rules   rules.Config         `json:"rules"`
	Solver  solver.Config        `json:"solver"`
	Store   factory.ModuleConfig `json:"store"`
	Metrics metrics.Config       `json:"metrics"`
	Logging LoggingConfig        `json:"logging"`
}

// Load reads the file at path and applies R_ environment overrides, so e.g.
// R_RULES__WEEKLY_HOURS_CAP=50 overrides rules.weekly_hours_cap.
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
	if err := k.Load(env.Provider("R_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "r_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Rules.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	var cfg Config
	cfg.Rules.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.Logging.SetDefaults()
	return &cfg
}
