package rules

import (
	"fmt"
	"time"
)

// Config carries the tenant/site-overridable legality thresholds. Defaults
// follow the common collective-agreement values but are configuration, not
// mandates.
type Config struct {
	RestHoursMin      float64 `json:"rest_hours_min"`
	SpanRegularMaxH   float64 `json:"span_regular_max"`
	SpanSplitMaxH     float64 `json:"span_split_max"`
	SplitBreakMinMin  int     `json:"split_break_min"`
	SplitBreakMaxMin  int     `json:"split_break_max"`
	WeeklyHoursCap    float64 `json:"weekly_hours_cap"`
	BlockGapMinMin    int     `json:"block_gap_min"`
	BlockGapMaxMin    int     `json:"block_gap_max"`
	PartTimeThreshold float64 `json:"part_time_threshold"`
}

// SetDefaults applies the default thresholds for fields left at zero.
func (c *Config) SetDefaults() {
	if c.RestHoursMin == 0 {
		c.RestHoursMin = 11
	}
	if c.SpanRegularMaxH == 0 {
		c.SpanRegularMaxH = 14
	}
	if c.SpanSplitMaxH == 0 {
		c.SpanSplitMaxH = 16
	}
	if c.SplitBreakMinMin == 0 {
		c.SplitBreakMinMin = 240
	}
	if c.SplitBreakMaxMin == 0 {
		c.SplitBreakMaxMin = 360
	}
	if c.WeeklyHoursCap == 0 {
		c.WeeklyHoursCap = 48
	}
	if c.BlockGapMinMin == 0 {
		c.BlockGapMinMin = 30
	}
	if c.BlockGapMaxMin == 0 {
		c.BlockGapMaxMin = 60
	}
	if c.PartTimeThreshold == 0 {
		c.PartTimeThreshold = 30
	}
}

// Validate checks threshold consistency.
func (c Config) Validate() error {
	if c.RestHoursMin <= 0 {
		return fmt.Errorf("rest_hours_min must be positive")
	}
	if c.SpanRegularMaxH <= 0 || c.SpanSplitMaxH < c.SpanRegularMaxH {
		return fmt.Errorf("span maxima must be positive and split >= regular")
	}
	if c.SplitBreakMinMin <= 0 || c.SplitBreakMaxMin < c.SplitBreakMinMin {
		return fmt.Errorf("split break window invalid")
	}
	if c.BlockGapMinMin <= 0 || c.BlockGapMaxMin < c.BlockGapMinMin {
		return fmt.Errorf("block gap window invalid")
	}
	if c.WeeklyHoursCap <= 0 {
		return fmt.Errorf("weekly_hours_cap must be positive")
	}
	return nil
}

// RestMin returns the minimum rest as a duration.
func (c Config) RestMin() time.Duration {
	return time.Duration(c.RestHoursMin * float64(time.Hour))
}

// SpanRegularMax returns the regular span limit as a duration.
func (c Config) SpanRegularMax() time.Duration {
	return time.Duration(c.SpanRegularMaxH * float64(time.Hour))
}

// SpanSplitMax returns the split span limit as a duration.
func (c Config) SpanSplitMax() time.Duration {
	return time.Duration(c.SpanSplitMaxH * float64(time.Hour))
}

// SplitBreakMin returns the lower split break bound.
func (c Config) SplitBreakMin() time.Duration {
	return time.Duration(c.SplitBreakMinMin) * time.Minute
}

// SplitBreakMax returns the upper split break bound.
func (c Config) SplitBreakMax() time.Duration {
	return time.Duration(c.SplitBreakMaxMin) * time.Minute
}

// BlockGapMin returns the lower chaining gap bound.
func (c Config) BlockGapMin() time.Duration {
	return time.Duration(c.BlockGapMinMin) * time.Minute
}

// BlockGapMax returns the upper chaining gap bound.
func (c Config) BlockGapMax() time.Duration {
	return time.Duration(c.BlockGapMaxMin) * time.Minute
}
