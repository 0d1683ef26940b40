package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleetroster/rosterd/core/logger"
	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/rules"
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

func newSolver(t *testing.T, cfg Config) *Solver {
	t.Helper()
	var rc rules.Config
	rc.SetDefaults()
	s, err := New(rc, cfg, logger.NopLogger{})
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}
	return s
}

func drivers(ids ...string) []model.Driver {
	out := make([]model.Driver, len(ids))
	for i, id := range ids {
		out[i] = model.Driver{ID: id}
	}
	return out
}

// pairedWeek is two days of two chainable tours each: one driver can legally
// cover everything.
func pairedWeek() model.Forecast {
	return model.Forecast{Ref: "week-10", Tours: []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 1, 10*60+30, 14*60+30),
		tourAt("T3", 2, 6*60, 10*60),
		tourAt("T4", 2, 10*60+30, 14*60+30),
	}}
}

func TestSolveMinimizesHeadcount(t *testing.T) {
	s := newSolver(t, Config{})
	res, err := s.Solve(context.Background(), pairedWeek(), drivers("D1", "D2", "D3"), 94)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.KPIs.DriversUsed != 1 {
		t.Fatalf("expected a single driver, got %d", res.KPIs.DriversUsed)
	}
	if res.KPIs.CoveragePercent != 100 {
		t.Fatalf("expected full coverage, got %v", res.KPIs.CoveragePercent)
	}
	if res.BestEffort {
		t.Fatal("single worker result must not be best-effort")
	}
}

func TestSolveOutputPassesChecks(t *testing.T) {
	s := newSolver(t, Config{})
	forecast := pairedWeek()
	res, err := s.Solve(context.Background(), forecast, drivers("D1", "D2", "D3"), 94)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	var rc rules.Config
	rc.SetDefaults()
	for _, r := range rules.Evaluate(rules.Input{Tours: forecast.Tours, Set: res.Set}, rc) {
		if r.Status == rules.StatusFail {
			t.Fatalf("solver output violates %s: %+v", r.Check, r.Violations)
		}
	}
}

func TestSolveDeterministic(t *testing.T) {
	forecast := pairedWeek()
	pool := drivers("D1", "D2", "D3")
	a, err := newSolver(t, Config{}).Solve(context.Background(), forecast, pool, 94)
	if err != nil {
		t.Fatalf("first solve: %v", err)
	}
	b, err := newSolver(t, Config{}).Solve(context.Background(), forecast, pool, 94)
	if err != nil {
		t.Fatalf("second solve: %v", err)
	}
	if a.OutputHash != b.OutputHash {
		t.Fatalf("same seed produced different hashes: %s vs %s", a.OutputHash, b.OutputHash)
	}
}

func TestSolveBestEffortLabel(t *testing.T) {
	s := newSolver(t, Config{WorkerCount: 4})
	res, err := s.Solve(context.Background(), pairedWeek(), drivers("D1", "D2"), 1)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !res.BestEffort {
		t.Fatal("multi-worker result must be labeled best-effort")
	}
}

func TestSolveNoDrivers(t *testing.T) {
	s := newSolver(t, Config{})
	_, err := s.Solve(context.Background(), pairedWeek(), nil, 1)
	var inf *InfeasibleError
	if !errors.As(err, &inf) {
		t.Fatalf("expected InfeasibleError, got %v", err)
	}
}

func TestSolveInfeasibleSkill(t *testing.T) {
	forecast := model.Forecast{Ref: "w", Tours: []model.TourInstance{
		func() model.TourInstance {
			tr := tourAt("T1", 1, 6*60, 10*60)
			tr.Skill = "articulated"
			return tr
		}(),
	}}
	s := newSolver(t, Config{})
	_, err := s.Solve(context.Background(), forecast, drivers("D1"), 1)
	var inf *InfeasibleError
	if !errors.As(err, &inf) {
		t.Fatalf("expected InfeasibleError, got %v", err)
	}
	if inf.Blocking != "skill" {
		t.Fatalf("expected skill as blocking constraint, got %s", inf.Blocking)
	}
}

func TestSolveInfeasibleWeeklyCap(t *testing.T) {
	// Five 10h singletons against one driver break the 48h cap on day 5.
	var tours []model.TourInstance
	for d := 1; d <= 5; d++ {
		tours = append(tours, tourAt("T"+string(rune('0'+d)), d, 6*60, 16*60))
	}
	s := newSolver(t, Config{})
	_, err := s.Solve(context.Background(), model.Forecast{Ref: "w", Tours: tours}, drivers("D1"), 1)
	var inf *InfeasibleError
	if !errors.As(err, &inf) {
		t.Fatalf("expected InfeasibleError, got %v", err)
	}
	if inf.Blocking != "weekly-hours-cap" {
		t.Fatalf("expected weekly-hours-cap, got %s", inf.Blocking)
	}
	if inf.Day != 5 {
		t.Fatalf("expected day 5, got %d", inf.Day)
	}
}

func TestMatchDayExpiredBudgetIsTimeout(t *testing.T) {
	// A budget that runs out while the cost matrix is built must surface as a
	// timeout, never as an infeasible input.
	s := newSolver(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	st := &solveState{
		drivers: drivers("D1"),
		rank:    map[string]int{"D1": 0},
		hours:   map[string]float64{"D1": 0},
		used:    map[string]bool{},
		lastEnd: map[string]time.Time{},
		kinds:   map[string]map[int]model.BlockKind{},
	}
	dayBlocks := []model.Block{{
		Kind: model.BlockSingle, Day: 1,
		Tours: []model.TourInstance{tourAt("T1", 1, 6*60, 10*60)},
	}}
	err := s.matchDay(ctx, st, 1, dayBlocks)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if te.Stage != "matching" {
		t.Fatalf("expected the matching stage, got %s", te.Stage)
	}
}

func TestSolveConsolidationRespectsSkill(t *testing.T) {
	// D1 collects the two plain singletons, leaving D2 with a lone crane
	// tour. Consolidation must not merge that block onto unskilled D1.
	crane := tourAt("T3", 3, 6*60, 10*60)
	crane.Skill = "crane"
	forecast := model.Forecast{Ref: "w", Tours: []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 2, 6*60, 10*60),
		crane,
	}}
	pool := []model.Driver{{ID: "D1"}, {ID: "D2", Skills: []string{"crane"}}}
	s := newSolver(t, Config{})
	res, err := s.Solve(context.Background(), forecast, pool, 94)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	for _, a := range res.Set {
		if a.Tour.ID == "T3" && a.DriverID != "D2" {
			t.Fatalf("tour T3 requires skill crane but was assigned to %s", a.DriverID)
		}
	}
}

func TestSolveConsolidationRespectsAvailability(t *testing.T) {
	// D1 works days 1-2 and has no window on day 3, so D2's day-3 singleton
	// must stay put instead of merging onto the unavailable driver.
	forecast := model.Forecast{Ref: "w", Tours: []model.TourInstance{
		tourAt("T1", 1, 6*60, 10*60),
		tourAt("T2", 2, 6*60, 10*60),
		tourAt("T3", 3, 6*60, 10*60),
	}}
	firstTwoDays := model.Driver{ID: "D1", Windows: []model.AvailabilityWindow{
		{Start: week, End: week.Add(24 * time.Hour)},
		{Start: week.Add(24 * time.Hour), End: week.Add(48 * time.Hour)},
	}}
	pool := []model.Driver{firstTwoDays, {ID: "D2"}}
	s := newSolver(t, Config{})
	res, err := s.Solve(context.Background(), forecast, pool, 94)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	for _, a := range res.Set {
		if a.Day == 3 && a.DriverID != "D2" {
			t.Fatalf("day-3 tour assigned to %s outside any availability window", a.DriverID)
		}
	}
}

func TestSolveUnavailableDriverExcluded(t *testing.T) {
	forecast := model.Forecast{Ref: "w", Tours: []model.TourInstance{tourAt("T1", 1, 6*60, 10*60)}}
	busy := model.Driver{ID: "D1", Windows: []model.AvailabilityWindow{{
		Start: week.Add(12 * time.Hour), End: week.Add(20 * time.Hour),
	}}}
	free := model.Driver{ID: "D2"}
	s := newSolver(t, Config{})
	res, err := s.Solve(context.Background(), forecast, []model.Driver{busy, free}, 1)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if got := res.Set.Drivers(); len(got) != 1 || got[0] != "D2" {
		t.Fatalf("expected D2 only, got %v", got)
	}
}
