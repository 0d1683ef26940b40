package audit

import (
	"context"
	"testing"
	"time"

	"github.com/fleetroster/rosterd/core/logger"
	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/plan"
	"github.com/fleetroster/rosterd/core/rules"
	"github.com/fleetroster/rosterd/infra/store"
)

var week = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func tourAt(id string, day, startMin, endMin int) model.TourInstance {
	d := week.AddDate(0, 0, day-1)
	return model.TourInstance{
		ID:    id,
		Day:   day,
		Start: d.Add(time.Duration(startMin) * time.Minute),
		End:   d.Add(time.Duration(endMin) * time.Minute),
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(logger.NopLogger{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func defaults() rules.Config {
	var c rules.Config
	c.SetDefaults()
	return c
}

func TestSimulatePasses(t *testing.T) {
	tours := []model.TourInstance{tourAt("T1", 1, 6*60, 10*60)}
	set := model.AssignmentSet{{DriverID: "D1", Tour: tours[0], Day: 1, BlockKind: model.BlockSingle}}
	rep := newEngine(t).Simulate(tours, set, defaults(), "h1", "")
	if !rep.AllPassed {
		t.Fatalf("expected pass, failed checks: %v", rep.FailedChecks())
	}
	if rep.Violations != 0 {
		t.Fatalf("expected no violations, got %d", rep.Violations)
	}
	if len(rep.Results) != 7 {
		t.Fatalf("expected all seven checks to report, got %d", len(rep.Results))
	}
}

func TestSimulateUncoveredTour(t *testing.T) {
	tours := []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 1, 12*60, 16*60),
	}
	set := model.AssignmentSet{{DriverID: "D1", Tour: tours[0], Day: 1, BlockKind: model.BlockSingle}}
	rep := newEngine(t).Simulate(tours, set, defaults(), "h1", "")
	if rep.AllPassed {
		t.Fatal("expected coverage failure")
	}
	failed := rep.FailedChecks()
	if len(failed) != 1 || failed[0] != rules.CheckCoverage {
		t.Fatalf("expected coverage as the only failure, got %v", failed)
	}
}

func TestSimulateReproducibilityMismatch(t *testing.T) {
	tours := []model.TourInstance{tourAt("T1", 1, 6*60, 10*60)}
	set := model.AssignmentSet{{DriverID: "D1", Tour: tours[0], Day: 1, BlockKind: model.BlockSingle}}
	e := newEngine(t)
	if rep := e.Simulate(tours, set, defaults(), "h1", "h1"); !rep.AllPassed {
		t.Fatalf("matching ref hash must pass, failed: %v", rep.FailedChecks())
	}
	rep := e.Simulate(tours, set, defaults(), "h1", "other")
	if rep.AllPassed {
		t.Fatal("expected reproducibility failure on hash mismatch")
	}
}

func auditedVersion(t *testing.T) *plan.Version {
	t.Helper()
	tours := []model.TourInstance{tourAt("T1", 1, 6*60, 10*60)}
	v := plan.NewVersion("week-10", tours, []model.Driver{{ID: "D1"}}, 1, 1, defaults())
	set := model.AssignmentSet{{DriverID: "D1", Tour: tours[0], Day: 1, BlockKind: model.BlockSingle}}
	if err := v.SetAssignments(set, set.OutputHash()); err != nil {
		t.Fatalf("set assignments: %v", err)
	}
	return v
}

func TestRunPlanAppendsHistory(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	v := auditedVersion(t)
	if err := st.Create(ctx, v); err != nil {
		t.Fatalf("create: %v", err)
	}

	e := newEngine(t)
	rep, err := e.RunPlan(ctx, st, v.ID, "")
	if err != nil {
		t.Fatalf("run plan: %v", err)
	}
	if !rep.AllPassed {
		t.Fatalf("expected pass, failed: %v", rep.FailedChecks())
	}
	if rep.VersionID != v.ID {
		t.Fatalf("report version %s, want %s", rep.VersionID, v.ID)
	}

	rec, err := st.LatestAudit(ctx, v.ID)
	if err != nil {
		t.Fatalf("latest audit: %v", err)
	}
	if !rec.AllPassed || rec.VersionID != v.ID {
		t.Fatalf("persisted record mismatch: %+v", rec)
	}

	// A second run appends and becomes the latest.
	if _, err := e.RunPlan(ctx, st, v.ID, "bogus"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	rec, err = st.LatestAudit(ctx, v.ID)
	if err != nil {
		t.Fatalf("latest audit after second run: %v", err)
	}
	if rec.AllPassed {
		t.Fatal("latest record must reflect the failing second run")
	}
}

func TestRunPlanUnknownVersion(t *testing.T) {
	e := newEngine(t)
	if _, err := e.RunPlan(context.Background(), store.NewMemoryStore(), "missing", ""); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestFailedErrorMessage(t *testing.T) {
	tours := []model.TourInstance{tourAt("T1", 1, 6*60, 10*60)}
	rep := newEngine(t).Simulate(tours, nil, defaults(), "h1", "")
	if rep.AllPassed {
		t.Fatal("empty set must fail coverage")
	}
	err := &FailedError{Report: rep}
	if err.Error() == "" {
		t.Fatal("expected a message")
	}
}
