// Package rules implements the seven temporal and coverage checks that decide
// whether an assignment set is legal. Checks are pure functions over an
// in-memory set; a found violation is a result value, never an error. The
// audit engine and the repair orchestrator share these exact functions so a
// simulated overlay is judged by the same logic as a persisted plan.
package rules

import "fmt"

// CheckID identifies one of the seven checks.
type CheckID int

const (
	CheckCoverage CheckID = iota
	CheckOverlap
	CheckRest
	CheckSpanRegular
	CheckSpanSplit
	CheckFatigue
	CheckReproducibility
)

// AllChecks lists every check in evaluation order.
var AllChecks = []CheckID{
	CheckCoverage,
	CheckOverlap,
	CheckRest,
	CheckSpanRegular,
	CheckSpanSplit,
	CheckFatigue,
	CheckReproducibility,
}

// String returns the canonical check name.
func (c CheckID) String() string {
	switch c {
	case CheckCoverage:
		return "coverage"
	case CheckOverlap:
		return "overlap"
	case CheckRest:
		return "rest"
	case CheckSpanRegular:
		return "span-regular"
	case CheckSpanSplit:
		return "span-split"
	case CheckFatigue:
		return "fatigue"
	case CheckReproducibility:
		return "reproducibility"
	default:
		return "unknown"
	}
}

// Status is the outcome of one check.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	StatusSkipped
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return "unknown"
	}
}

// Violation describes one rule breach with enough structure for human
// presentation and for repair targeting.
type Violation struct {
	Check    CheckID `json:"check"`
	DriverID string  `json:"driver_id,omitempty"`
	TourID   string  `json:"tour_id,omitempty"`
	Day      int     `json:"day,omitempty"`
	Detail   string  `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Check, v.Detail)
}

// Result is the outcome of one check over a full assignment set.
type Result struct {
	Check      CheckID     `json:"check"`
	Status     Status      `json:"status"`
	Violations []Violation `json:"violations,omitempty"`
}

// failOrPass derives the status from the collected violations.
func failOrPass(check CheckID, violations []Violation) Result {
	st := StatusPass
	if len(violations) > 0 {
		st = StatusFail
	}
	return Result{Check: check, Status: st, Violations: violations}
}
