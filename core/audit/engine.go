// Package audit runs the full constraint library over an assignment set and
// produces the canonical legality verdict. It has two equivalent modes:
// against a persisted plan version, and against an in-memory simulated
// overlay. Repair proposals are legal only when the simulated mode passes;
// nothing else in the system is allowed to claim legality.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetroster/rosterd/core/logger"
	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/plan"
	"github.com/fleetroster/rosterd/core/rules"
)

// Report is the outcome of one engine run.
type Report struct {
	VersionID  string         `json:"version_id,omitempty"`
	AllPassed  bool           `json:"all_passed"`
	Violations int            `json:"violations"`
	Results    []rules.Result `json:"results"`
	RunAt      time.Time      `json:"run_at"`
}

// FailedChecks lists the checks that failed.
func (r Report) FailedChecks() []rules.CheckID {
	var failed []rules.CheckID
	for _, res := range r.Results {
		if res.Status == rules.StatusFail {
			failed = append(failed, res.Check)
		}
	}
	return failed
}

// Engine evaluates the seven checks. It is stateless and safe for concurrent
// use across plan versions.
type Engine struct {
	log logger.Logger
}

// NewEngine creates an audit engine.
func NewEngine(log logger.Logger) (*Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("audit: nil logger provided to NewEngine")
	}
	return &Engine{log: log}, nil
}

// Simulate runs the checks over an in-memory overlay (mode ii). The set must
// be immutable for the duration of the call; callers hand a clone when the
// original may still change.
func (e *Engine) Simulate(tours []model.TourInstance, set model.AssignmentSet, cfg rules.Config, outputHash, refHash string) Report {
	results := rules.Evaluate(rules.Input{
		Tours:      tours,
		Set:        set,
		OutputHash: outputHash,
		RefHash:    refHash,
	}, cfg)
	return e.report("", results)
}

// RunPlan runs the checks against a persisted plan version (mode i), loading
// a stable snapshot from the store and appending the outcome to the audit
// history.
func (e *Engine) RunPlan(ctx context.Context, store plan.Store, versionID, refHash string) (Report, error) {
	v, err := store.Get(ctx, versionID)
	if err != nil {
		return Report{}, fmt.Errorf("audit: load plan %s: %w", versionID, err)
	}
	results := rules.Evaluate(rules.Input{
		Tours:      v.Tours,
		Set:        v.Set,
		OutputHash: v.OutputHash,
		RefHash:    refHash,
	}, v.Rules)
	rep := e.report(versionID, results)
	rec := plan.AuditRecord{
		VersionID:  versionID,
		RunAt:      rep.RunAt,
		AllPassed:  rep.AllPassed,
		Violations: rep.Violations,
		Results:    rep.Results,
	}
	if err := store.AppendAudit(ctx, rec); err != nil {
		return Report{}, fmt.Errorf("audit: append record: %w", err)
	}
	return rep, nil
}

func (e *Engine) report(versionID string, results []rules.Result) Report {
	rep := Report{VersionID: versionID, Results: results, AllPassed: true, RunAt: time.Now().UTC()}
	for _, r := range results {
		rep.Violations += len(r.Violations)
		if r.Status == rules.StatusFail {
			rep.AllPassed = false
		}
	}
	if !rep.AllPassed {
		e.log.Warnf("audit failed: %d violations across %d checks", rep.Violations, len(rep.FailedChecks()))
	}
	return rep
}
