package solver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	solveDuration   prometheus.Histogram
	toursAssigned   prometheus.Counter
	driversRostered *prometheus.GaugeVec
	solvesTotal     *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, prometheus.Counter, *prometheus.GaugeVec, *prometheus.CounterVec) {
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solve_duration_seconds",
		Help:    "Wall time of complete solver runs",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	tours := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tours_assigned_total",
		Help: "Number of tour instances assigned across all solves",
	})
	drivers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drivers_rostered",
		Help: "Driver headcount of the latest solve",
	}, []string{"employment"})
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solves_total",
		Help: "Number of solver runs by determinism label",
	}, []string{"mode"})
	return dur, tours, drivers, solves
}

func init() {
	solveDuration, toursAssigned, driversRostered, solvesTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers solver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(solveDuration, toursAssigned, driversRostered, solvesTotal)
}

// ResetMetrics reinitializes collectors for testing purposes and registers
// them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	solveDuration, toursAssigned, driversRostered, solvesTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func observeSolve(res *Result) {
	toursAssigned.Add(float64(len(res.Set)))
	driversRostered.WithLabelValues("full_time").Set(float64(res.KPIs.FullTime))
	driversRostered.WithLabelValues("part_time").Set(float64(res.KPIs.PartTime))
	mode := "deterministic"
	if res.BestEffort {
		mode = "best_effort"
	}
	solvesTotal.WithLabelValues(mode).Inc()
}
