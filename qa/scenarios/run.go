package scenarios

import (
	"context"
	"testing"

	"github.com/fleetroster/rosterd/app"
	"github.com/fleetroster/rosterd/config"
	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/plan"
	"github.com/fleetroster/rosterd/core/repair"
)

var approver = plan.Actor{ID: "qa", Kind: plan.ActorHuman}

// RunScenario drives one scenario through the full lifecycle and checks the
// expectations. Every scenario is solved twice to verify the output hash is
// stable. Scenarios with absences additionally lock the plan, prepare a
// repair and, when the proposal is legal, confirm it.
func RunScenario(t *testing.T, sc *Scenario) {
	ctx := context.Background()
	cfg := config.Default()
	if sc.WeeklyHoursCap > 0 {
		cfg.Rules.WeeklyHoursCap = sc.WeeklyHoursCap
	}
	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	forecast, err := sc.Forecast()
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	drivers := make([]model.Driver, len(sc.Drivers))
	for i, d := range sc.Drivers {
		drivers[i] = d.ToModel()
	}

	v, res, rep, err := svc.Solve(ctx, forecast, drivers, sc.Seed)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.KPIs.DriversUsed != sc.Expected.DriversUsed {
		t.Errorf("drivers used: got %d, want %d", res.KPIs.DriversUsed, sc.Expected.DriversUsed)
	}
	if res.KPIs.CoveragePercent != sc.Expected.CoveragePercent {
		t.Errorf("coverage: got %v, want %v", res.KPIs.CoveragePercent, sc.Expected.CoveragePercent)
	}
	if !rep.AllPassed {
		t.Errorf("initial audit failed: %v", rep.FailedChecks())
	}
	_, res2, _, err := svc.Solve(ctx, forecast, drivers, sc.Seed)
	if err != nil {
		t.Fatalf("repeat solve: %v", err)
	}
	if res2.OutputHash != res.OutputHash {
		t.Errorf("output hash not stable across runs: %s vs %s", res.OutputHash, res2.OutputHash)
	}
	if len(sc.Absences) == 0 {
		return
	}

	if _, err := svc.Lock(ctx, v.ID, approver, false); err != nil {
		t.Fatalf("lock: %v", err)
	}
	req := repair.Request{PlanVersionID: v.ID}
	for _, a := range sc.Absences {
		req.Absences = append(req.Absences, a.ToRequest())
	}
	prop, err := svc.PrepareRepair(ctx, req, approver)
	if err != nil {
		t.Fatalf("prepare repair: %v", err)
	}
	if sc.Expected.RepairLegal != nil && prop.Legal != *sc.Expected.RepairLegal {
		t.Errorf("repair legal: got %t, want %t (failed checks %v)",
			prop.Legal, *sc.Expected.RepairLegal, prop.Audit.FailedChecks())
	}
	if !prop.Legal {
		return
	}

	cres, err := svc.ConfirmRepair(ctx, prop.DraftID, "qa-"+sc.Name, approver)
	if err != nil {
		t.Fatalf("confirm repair: %v", err)
	}
	if !cres.Audit.AllPassed {
		t.Errorf("confirm audit failed: %v", cres.Audit.FailedChecks())
	}
	draft, err := svc.Get(ctx, cres.DraftID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if draft.Status != plan.StatusAudited {
		t.Errorf("draft status %s, want AUDITED", draft.Status)
	}
	if len(draft.Set) != len(forecast.Tours) {
		t.Errorf("repaired coverage: %d assignments for %d tours", len(draft.Set), len(forecast.Tours))
	}
}
