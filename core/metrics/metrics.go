package metrics

import "time"

// SolveRecord represents one completed solve run to be recorded.
type SolveRecord struct {
	VersionID       string
	Seed            int64
	Workers         int
	BestEffort      bool
	Tours           int
	Drivers         int
	CoveragePercent float64
	PartTimeCount   int
	Duration        time.Duration
	Time            time.Time
}

// MetricsSink records solve results for observability purposes. Sinks may
// additionally implement the optional recorder interfaces below; callers
// type-assert before forwarding.
type MetricsSink interface {
	RecordSolve(rec SolveRecord) error
}

// TransitionRecord captures one lifecycle transition of a plan version.
type TransitionRecord struct {
	VersionID string
	From      string
	To        string
	ActorKind string
	Time      time.Time
}

// TransitionRecorder records plan lifecycle transitions.
type TransitionRecorder interface {
	RecordTransition(rec TransitionRecord) error
}

// AuditRunRecord captures one audit engine run over a plan version.
type AuditRunRecord struct {
	VersionID  string
	AllPassed  bool
	Violations int
	Time       time.Time
}

// AuditRecorder records audit engine runs.
type AuditRecorder interface {
	RecordAuditRun(rec AuditRunRecord) error
}

// RepairRecord captures one repair phase against a locked plan.
type RepairRecord struct {
	ParentID       string
	DraftID        string
	Phase          string
	Legal          bool
	ChangedTours   int
	ChangedDrivers int
	Time           time.Time
}

// RepairRecorder records repair activity.
type RepairRecorder interface {
	RecordRepair(rec RepairRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveRecord) error           { return nil }
func (NopSink) RecordTransition(TransitionRecord) error { return nil }
func (NopSink) RecordAuditRun(AuditRunRecord) error     { return nil }
func (NopSink) RecordRepair(RepairRecord) error         { return nil }
