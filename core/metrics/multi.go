package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the record to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSolve(rec SolveRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransition forwards lifecycle transitions to sinks that support them.
func (m *MultiSink) RecordTransition(rec TransitionRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(TransitionRecorder); ok {
			if err := r.RecordTransition(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordAuditRun forwards audit runs to sinks that support them.
func (m *MultiSink) RecordAuditRun(rec AuditRunRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(AuditRecorder); ok {
			if err := r.RecordAuditRun(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRepair forwards repair records to sinks that support them.
func (m *MultiSink) RecordRepair(rec RepairRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(RepairRecorder); ok {
			if err := r.RecordRepair(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
