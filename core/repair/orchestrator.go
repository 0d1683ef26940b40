package repair

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fleetroster/rosterd/core/audit"
	"github.com/fleetroster/rosterd/core/logger"
	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/plan"
)

// ErrNoCandidate is returned when an impacted block has no feasible
// replacement driver at all.
var ErrNoCandidate = errors.New("no feasible replacement driver")

// Absence declares a driver unavailable over an inclusive day range. A zero
// range (FromDay == ToDay == 0 with no day zero in the horizon semantics
// intended) covers the whole horizon.
type Absence struct {
	DriverID string `json:"driver_id"`
	FromDay  int    `json:"from_day"`
	ToDay    int    `json:"to_day"`
}

func (a Absence) covers(day int) bool {
	if a.FromDay == 0 && a.ToDay == 0 {
		return true
	}
	return day >= a.FromDay && day <= a.ToDay
}

// Request is one repair prepare call.
type Request struct {
	PlanVersionID string    `json:"plan_version_id"`
	Absences      []Absence `json:"absences"`
	Budget        Budget    `json:"budget"`
}

// ConfirmResult is the durable outcome of a confirmed repair, replayed as-is
// for duplicate operation keys.
type ConfirmResult struct {
	DraftID  string       `json:"draft_id"`
	ParentID string       `json:"parent_id"`
	Audit    audit.Report `json:"audit"`
}

// Orchestrator drives the two-phase repair protocol: Prepare builds a draft
// child against a locked parent and moves the parent to REPAIRING; Confirm
// re-audits the draft and supersedes the parent. The locked parent itself is
// never edited.
type Orchestrator struct {
	store  plan.Store
	engine *audit.Engine
	log    logger.Logger

	mu        sync.Mutex
	confirmed map[string]ConfirmResult
}

// NewOrchestrator creates a repair orchestrator.
func NewOrchestrator(store plan.Store, engine *audit.Engine, log logger.Logger) (*Orchestrator, error) {
	if store == nil || engine == nil {
		return nil, fmt.Errorf("repair: nil store or engine provided to NewOrchestrator")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Orchestrator{
		store:     store,
		engine:    engine,
		log:       log,
		confirmed: make(map[string]ConfirmResult),
	}, nil
}

// Prepare builds a repair proposal for the absences. Whole driver-day blocks
// are moved to replacement drivers; partial block splits are not attempted.
// The parent moves to REPAIRING and a DRAFT child carrying the simulated set
// is persisted, so a later Confirm works from durable state. The proposal is
// returned even when illegal, so a dispatcher can see exactly which checks
// the best available repair would break.
func (o *Orchestrator) Prepare(ctx context.Context, req Request, actor plan.Actor) (*Proposal, error) {
	parent, err := o.store.Get(ctx, req.PlanVersionID)
	if err != nil {
		return nil, fmt.Errorf("repair: load parent: %w", err)
	}
	if parent.Status != plan.StatusLocked && parent.Status != plan.StatusPublished {
		return nil, &plan.TransitionError{VersionID: parent.ID, From: parent.Status, To: plan.StatusRepairing}
	}
	req.Budget.SetDefaults()

	unavailable := make(map[string]bool, len(req.Absences))
	for _, ab := range req.Absences {
		unavailable[ab.DriverID] = true
	}

	impacted := impactedBlocks(parent.Set, req.Absences)
	if len(impacted) == 0 {
		return nil, fmt.Errorf("repair: plan %s: no assignment impacted by the absences", parent.ID)
	}

	finder := NewFinder(parent.Rules)
	simulated := parent.Set.Clone()
	prop := &Proposal{ParentID: parent.ID}
	receivers := make(map[string]struct{})
	for _, ib := range impacted {
		simulated = withoutBlock(simulated, ib)
		cands := finder.Candidates(ib, simulated, parent.Drivers, unavailable)
		if len(cands) == 0 {
			return nil, fmt.Errorf("repair: block %s day %d (%d tours): %w", ib.driver, ib.day, len(ib.tours), ErrNoCandidate)
		}
		target := cands[0].DriverID
		for _, t := range ib.tours {
			prop.ImpactedTours = append(prop.ImpactedTours, t.ID)
			prop.Removed = append(prop.Removed, model.Assignment{DriverID: ib.driver, Tour: t, Day: ib.day, BlockKind: ib.kind})
			moved := model.Assignment{DriverID: target, Tour: t, Day: ib.day, BlockKind: ib.kind}
			prop.Added = append(prop.Added, moved)
			simulated = append(simulated, moved)
		}
		receivers[target] = struct{}{}
		prop.BudgetUsed.ChangedTours += len(ib.tours)
		if ib.kind == model.BlockPairedSplit {
			prop.BudgetUsed.Splits++
		}
	}
	prop.BudgetUsed.ChangedDrivers = len(receivers)
	if len(prop.Added) > 0 {
		prop.BudgetUsed.ChainDepth = 1
	}
	if !prop.BudgetUsed.Within(req.Budget) {
		return nil, &BudgetExceededError{Used: prop.BudgetUsed, Budget: req.Budget, Detail: fmt.Sprintf("%d impacted blocks", len(impacted))}
	}

	prop.Audit = o.engine.Simulate(parent.Tours, simulated, parent.Rules, simulated.OutputHash(), "")
	prop.Legal = prop.Audit.AllPassed

	child := parent.Child()
	if err := child.SetAssignments(simulated, simulated.OutputHash()); err != nil {
		return nil, fmt.Errorf("repair: stage draft: %w", err)
	}
	if err := o.store.Create(ctx, child); err != nil {
		return nil, fmt.Errorf("repair: persist draft: %w", err)
	}
	if _, err := parent.Apply(plan.StatusRepairing, actor, "repair prepared, draft "+child.ID); err != nil {
		return nil, err
	}
	if err := o.store.Update(ctx, parent); err != nil {
		return nil, fmt.Errorf("repair: persist parent: %w", err)
	}
	prop.DraftID = child.ID
	o.log.Infof("repair prepared: parent=%s draft=%s tours=%d receivers=%d legal=%t",
		parent.ID, child.ID, prop.BudgetUsed.ChangedTours, prop.BudgetUsed.ChangedDrivers, prop.Legal)
	return prop, nil
}

// Confirm finalizes a prepared repair: the draft is re-audited against the
// store and, on a clean pass, promoted to AUDITED while the parent runs
// REPAIRING -> REPAIRED -> SUPERSEDED. Duplicate operation keys replay the
// recorded result without touching state.
func (o *Orchestrator) Confirm(ctx context.Context, draftID, operationKey string, actor plan.Actor) (*ConfirmResult, error) {
	o.mu.Lock()
	if res, ok := o.confirmed[operationKey]; ok {
		o.mu.Unlock()
		return &res, nil
	}
	o.mu.Unlock()

	draft, err := o.store.Get(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("repair: load draft: %w", err)
	}
	if draft.Status == plan.StatusAudited {
		// Confirmed earlier under another key or across a restart.
		return o.record(ctx, operationKey, draft)
	}
	if draft.Status != plan.StatusDraft {
		return nil, &plan.TransitionError{VersionID: draft.ID, From: draft.Status, To: plan.StatusAudited}
	}
	parent, err := o.store.Get(ctx, draft.ParentID)
	if err != nil {
		return nil, fmt.Errorf("repair: load parent: %w", err)
	}
	if parent.SupersededBy != "" && parent.SupersededBy != draft.ID {
		return nil, &plan.StaleStateError{VersionID: parent.ID, Reason: "parent superseded by " + parent.SupersededBy}
	}
	if parent.Status != plan.StatusRepairing {
		return nil, &plan.StaleStateError{VersionID: parent.ID, Reason: fmt.Sprintf("parent is %s, repair no longer in flight", parent.Status)}
	}

	rep, err := o.engine.RunPlan(ctx, o.store, draft.ID, "")
	if err != nil {
		return nil, err
	}
	if !rep.AllPassed {
		o.log.Warnf("repair confirm rejected: draft=%s violations=%d", draft.ID, rep.Violations)
		return nil, &audit.FailedError{Report: rep}
	}

	if _, err := draft.Apply(plan.StatusAudited, actor, "repair confirmed"); err != nil {
		return nil, err
	}
	if err := o.store.Update(ctx, draft); err != nil {
		return nil, fmt.Errorf("repair: persist draft: %w", err)
	}
	if _, err := parent.Apply(plan.StatusRepaired, actor, "repair confirmed, draft "+draft.ID); err != nil {
		return nil, err
	}
	if _, err := parent.Apply(plan.StatusSuperseded, actor, "superseded by "+draft.ID); err != nil {
		return nil, err
	}
	parent.SupersededBy = draft.ID
	if err := o.store.Update(ctx, parent); err != nil {
		return nil, fmt.Errorf("repair: persist parent: %w", err)
	}

	res := ConfirmResult{DraftID: draft.ID, ParentID: parent.ID, Audit: rep}
	o.mu.Lock()
	o.confirmed[operationKey] = res
	o.mu.Unlock()
	o.log.Infof("repair confirmed: parent=%s superseded by draft=%s", parent.ID, draft.ID)
	return &res, nil
}

// Cancel abandons a prepared repair and rolls the parent back to the exact
// state it held before Prepare. The draft stays behind as a dead DRAFT for
// the audit trail.
func (o *Orchestrator) Cancel(ctx context.Context, draftID string, actor plan.Actor) error {
	draft, err := o.store.Get(ctx, draftID)
	if err != nil {
		return fmt.Errorf("repair: load draft: %w", err)
	}
	parent, err := o.store.Get(ctx, draft.ParentID)
	if err != nil {
		return fmt.Errorf("repair: load parent: %w", err)
	}
	if parent.Status != plan.StatusRepairing {
		return &plan.StaleStateError{VersionID: parent.ID, Reason: fmt.Sprintf("parent is %s, nothing to cancel", parent.Status)}
	}
	prev := plan.StatusLocked
	for i := len(parent.History) - 1; i >= 0; i-- {
		if parent.History[i].To == plan.StatusRepairing {
			prev = parent.History[i].From
			break
		}
	}
	if _, err := parent.Apply(prev, actor, "repair cancelled"); err != nil {
		return err
	}
	if err := o.store.Update(ctx, parent); err != nil {
		return fmt.Errorf("repair: persist parent: %w", err)
	}
	o.log.Infof("repair cancelled: parent=%s back to %s, draft=%s abandoned", parent.ID, prev, draft.ID)
	return nil
}

func (o *Orchestrator) record(ctx context.Context, operationKey string, draft *plan.Version) (*ConfirmResult, error) {
	rec, err := o.store.LatestAudit(ctx, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("repair: load audit for confirmed draft: %w", err)
	}
	res := ConfirmResult{
		DraftID:  draft.ID,
		ParentID: draft.ParentID,
		Audit: audit.Report{
			VersionID:  rec.VersionID,
			AllPassed:  rec.AllPassed,
			Violations: rec.Violations,
			Results:    rec.Results,
			RunAt:      rec.RunAt,
		},
	}
	o.mu.Lock()
	o.confirmed[operationKey] = res
	o.mu.Unlock()
	return &res, nil
}

// impactedBlocks groups the absent drivers' assignments into whole driver-day
// blocks, in deterministic (day, driver) order.
func impactedBlocks(set model.AssignmentSet, absences []Absence) []impactedBlock {
	byAbsent := make(map[string][]Absence)
	for _, ab := range absences {
		byAbsent[ab.DriverID] = append(byAbsent[ab.DriverID], ab)
	}
	type key struct {
		driver string
		day    int
	}
	grouped := make(map[key]*impactedBlock)
	for _, a := range set {
		hit := false
		for _, ab := range byAbsent[a.DriverID] {
			if ab.covers(a.Day) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		k := key{a.DriverID, a.Day}
		ib, ok := grouped[k]
		if !ok {
			ib = &impactedBlock{driver: a.DriverID, day: a.Day, kind: a.BlockKind}
			grouped[k] = ib
		}
		ib.tours = append(ib.tours, a.Tour)
	}
	out := make([]impactedBlock, 0, len(grouped))
	for _, ib := range grouped {
		sort.Slice(ib.tours, func(i, j int) bool { return ib.tours[i].Start.Before(ib.tours[j].Start) })
		out = append(out, *ib)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].day != out[j].day {
			return out[i].day < out[j].day
		}
		return out[i].driver < out[j].driver
	})
	return out
}

func withoutBlock(set model.AssignmentSet, ib impactedBlock) model.AssignmentSet {
	out := set[:0:0]
	for _, a := range set {
		if a.DriverID == ib.driver && a.Day == ib.day {
			continue
		}
		out = append(out, a)
	}
	return out
}
