package solver

import "fmt"

// Config defines solver execution settings.
type Config struct {
	// WorkerCount sets the number of goroutines building cost matrices.
	// Determinism is only formally guaranteed at 1; multi-worker results are
	// labeled best-effort and must not back a reproducibility claim.
	WorkerCount int `json:"worker_count"`
	// TimeBudgetSeconds bounds a single solve. Zero means 30 seconds.
	TimeBudgetSeconds int `json:"time_budget_seconds"`
	// MaxImprovementRounds caps the consolidation and part-time elimination
	// passes. Zero means 10.
	MaxImprovementRounds int `json:"max_improvement_rounds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.WorkerCount == 0 {
		c.WorkerCount = 1
	}
	if c.TimeBudgetSeconds == 0 {
		c.TimeBudgetSeconds = 30
	}
	if c.MaxImprovementRounds == 0 {
		c.MaxImprovementRounds = 10
	}
}

// Validate checks execution settings.
func (c Config) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be >= 1")
	}
	if c.TimeBudgetSeconds < 1 {
		return fmt.Errorf("time_budget_seconds must be >= 1")
	}
	if c.MaxImprovementRounds < 0 {
		return fmt.Errorf("max_improvement_rounds must not be negative")
	}
	return nil
}
