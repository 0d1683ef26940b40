// Package plan models plan versions and the lifecycle state machine
// governing them. A plan version is the aggregate root tying a forecast, a
// config snapshot, a seed and the solved assignment set together; once locked
// it is immutable and further change happens through child versions.
package plan

// Status is a lifecycle state of a plan version.
type Status string

const (
	StatusImported   Status = "IMPORTED"
	StatusParsed     Status = "PARSED"
	StatusExpanded   Status = "EXPANDED"
	StatusSolving    Status = "SOLVING"
	StatusSolved     Status = "SOLVED"
	StatusAudited    Status = "AUDITED"
	StatusDraft      Status = "DRAFT"
	StatusLocked     Status = "LOCKED"
	StatusPublished  Status = "PUBLISHED"
	StatusFrozen     Status = "FROZEN"
	StatusRepairing  Status = "REPAIRING"
	StatusRepaired   Status = "REPAIRED"
	StatusSuperseded Status = "SUPERSEDED"
	StatusFailed     Status = "FAILED"
)

// allowed is the transition table. Lock and publish transitions additionally
// require a human actor, enforced in Version.Lock rather than here, so that
// machine callers cannot reach them through the generic path at all.
var allowed = map[Status][]Status{
	StatusImported:  {StatusParsed},
	StatusParsed:    {StatusExpanded},
	StatusExpanded:  {StatusSolving},
	StatusSolving:   {StatusSolved, StatusFailed},
	StatusSolved:    {StatusAudited, StatusDraft},
	StatusAudited:   {StatusDraft, StatusFailed},
	StatusDraft:     {StatusSolving, StatusAudited},
	StatusLocked:    {StatusPublished, StatusRepairing},
	StatusPublished: {StatusFrozen, StatusRepairing},
	StatusRepairing: {StatusRepaired, StatusLocked, StatusPublished},
	StatusRepaired:  {StatusSuperseded},
}

// CanTransition reports whether from -> to is a legal machine transition.
func CanTransition(from, to Status) bool {
	for _, t := range allowed[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves the status.
func (s Status) Terminal() bool {
	return len(allowed[s]) == 0
}

// Mutable reports whether the assignment set under this status may still
// change. Locked, published and later statuses are immutable.
func (s Status) Mutable() bool {
	switch s {
	case StatusLocked, StatusPublished, StatusFrozen, StatusRepairing, StatusRepaired, StatusSuperseded:
		return false
	default:
		return true
	}
}
