package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/fleetroster/rosterd/core/metrics"
	"github.com/fleetroster/rosterd/infra/logger"
)

// InfluxSink writes rostering events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails. A missing metrics backend must never
// block a solve.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSolve writes the solve run as a line protocol point.
func (s *InfluxSink) RecordSolve(rec coremetrics.SolveRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve_run").
		AddTag("version_id", rec.VersionID).
		AddTag("best_effort", strconv.FormatBool(rec.BestEffort)).
		AddTag("component", "solver").
		AddField("seed", rec.Seed).
		AddField("workers", rec.Workers).
		AddField("tours", rec.Tours).
		AddField("drivers", rec.Drivers).
		AddField("coverage_percent", round3(rec.CoveragePercent)).
		AddField("part_time_count", rec.PartTimeCount).
		AddField("duration_ms", round3(float64(rec.Duration.Milliseconds()))).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTransition persists a lifecycle transition.
func (s *InfluxSink) RecordTransition(rec coremetrics.TransitionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_transition").
		AddTag("version_id", rec.VersionID).
		AddTag("to", rec.To).
		AddTag("actor_kind", rec.ActorKind).
		AddTag("component", "plan").
		AddField("from", rec.From).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAuditRun persists an audit engine run.
func (s *InfluxSink) RecordAuditRun(rec coremetrics.AuditRunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("audit_run").
		AddTag("version_id", rec.VersionID).
		AddTag("passed", strconv.FormatBool(rec.AllPassed)).
		AddTag("component", "audit").
		AddField("violations", rec.Violations).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRepair persists a repair phase.
func (s *InfluxSink) RecordRepair(rec coremetrics.RepairRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("repair_phase").
		AddTag("parent_id", rec.ParentID).
		AddTag("draft_id", rec.DraftID).
		AddTag("phase", rec.Phase).
		AddTag("legal", strconv.FormatBool(rec.Legal)).
		AddTag("component", "repair").
		AddField("changed_tours", rec.ChangedTours).
		AddField("changed_drivers", rec.ChangedDrivers).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
