package model

import (
	"fmt"
	"time"
)

// AvailabilityWindow is a period during which a driver may be assigned work.
type AvailabilityWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Driver is a rosterable employee. The weekly-hours accumulator and the
// availability calendar are maintained by an external collaborator and are
// read-only inside the core.
type Driver struct {
	ID          string               `json:"driver_id"`
	WeeklyHours float64              `json:"weekly_hours_accumulator"`
	Windows     []AvailabilityWindow `json:"availability_windows,omitempty"`
	Depot       string               `json:"depot,omitempty"`
	Skills      []string             `json:"skills,omitempty"`
}

// HasSkill reports whether the driver holds the named skill. The empty skill
// is held by everyone.
func (d Driver) HasSkill(skill string) bool {
	if skill == "" {
		return true
	}
	for _, s := range d.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// Validate checks the driver identity.
func (d Driver) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("driver id is required")
	}
	return nil
}

// Available reports whether the driver can work the full [start, end) range.
// A driver without windows is treated as always available.
func (d Driver) Available(start, end time.Time) bool {
	if len(d.Windows) == 0 {
		return true
	}
	for _, w := range d.Windows {
		if !start.Before(w.Start) && !end.After(w.End) {
			return true
		}
	}
	return false
}
