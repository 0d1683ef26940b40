// Package events defines the rostering events emitted on the event bus.
//
// Available event types:
//   - SolveEvent: a solve finished, successfully or not
//   - TransitionEvent: a plan version changed lifecycle state
//   - AuditEvent: an audit engine run completed
//   - RepairEvent: a repair was prepared, confirmed or cancelled
package events

import (
	"time"

	"github.com/fleetroster/rosterd/core/plan"
)

// Event is the union of everything published on the bus.
type Event interface{ isEvent() }

// SolveEvent is published when a solve run completes.
type SolveEvent struct {
	VersionID       string
	Seed            int64
	Workers         int
	BestEffort      bool
	OutputHash      string
	Tours           int
	Drivers         int
	CoveragePercent float64
	Duration        time.Duration
	Err             error
}

// TransitionEvent is published for each applied lifecycle transition.
type TransitionEvent struct {
	VersionID string
	From      plan.Status
	To        plan.Status
	Actor     plan.Actor
}

// AuditEvent is published after each audit engine run.
type AuditEvent struct {
	VersionID  string
	AllPassed  bool
	Violations int
}

// RepairEvent is published at each phase of a repair. Phase is one of
// "prepared", "confirmed" or "cancelled".
type RepairEvent struct {
	ParentID       string
	DraftID        string
	Phase          string
	Legal          bool
	ChangedTours   int
	ChangedDrivers int
}

func (SolveEvent) isEvent()      {}
func (TransitionEvent) isEvent() {}
func (AuditEvent) isEvent()      {}
func (RepairEvent) isEvent()     {}
