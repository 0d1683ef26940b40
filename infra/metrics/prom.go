package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fleetroster/rosterd/core/metrics"
)

// PromSink records rostering events in Prometheus metrics.
type PromSink struct {
	solves      *prometheus.CounterVec
	coverage    prometheus.Gauge
	transitions *prometheus.CounterVec
	audits      *prometheus.CounterVec
	repairs     *prometheus.CounterVec
}

// NewPromSink registers rostering metrics on the default Prometheus
// registerer. The /metrics server is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_solves_recorded_total",
		Help: "Total number of solve runs recorded",
	}, []string{"best_effort"})
	coverage := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roster_solve_coverage_percent",
		Help: "Tour coverage of the most recent solve",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_plan_transitions_total",
		Help: "Total number of plan lifecycle transitions",
	}, []string{"to", "actor_kind"})
	audits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_audit_runs_total",
		Help: "Total number of audit engine runs",
	}, []string{"passed"})
	repairs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_repairs_total",
		Help: "Total number of repair phases",
	}, []string{"phase", "legal"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(coverage); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			coverage = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(audits); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			audits = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(repairs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			repairs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{
		solves:      solves,
		coverage:    coverage,
		transitions: transitions,
		audits:      audits,
		repairs:     repairs,
	}, nil
}

// RecordSolve increments the solve counter and refreshes the coverage gauge.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	s.solves.WithLabelValues(strconv.FormatBool(rec.BestEffort)).Inc()
	s.coverage.Set(rec.CoveragePercent)
	return nil
}

// RecordTransition counts lifecycle transitions by target state.
func (s *PromSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	s.transitions.WithLabelValues(rec.To, rec.ActorKind).Inc()
	return nil
}

// RecordAuditRun counts audit runs by outcome.
func (s *PromSink) RecordAuditRun(rec coremetrics.AuditRunRecord) error {
	s.audits.WithLabelValues(strconv.FormatBool(rec.AllPassed)).Inc()
	return nil
}

// RecordRepair counts repair phases.
func (s *PromSink) RecordRepair(rec coremetrics.RepairRecord) error {
	s.repairs.WithLabelValues(rec.Phase, strconv.FormatBool(rec.Legal)).Inc()
	return nil
}
