// Package app wires the rostering core to its infrastructure: plan store,
// metrics sinks, event bus and logging. It exposes the operations a CLI or
// API layer calls.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetroster/rosterd/config"
	"github.com/fleetroster/rosterd/core/audit"
	"github.com/fleetroster/rosterd/core/events"
	coremetrics "github.com/fleetroster/rosterd/core/metrics"
	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/plan"
	"github.com/fleetroster/rosterd/core/repair"
	"github.com/fleetroster/rosterd/core/solver"
	"github.com/fleetroster/rosterd/infra/logger"
	"github.com/fleetroster/rosterd/infra/metrics"
	"github.com/fleetroster/rosterd/infra/store"
	"github.com/fleetroster/rosterd/internal/eventbus"
	"github.com/fleetroster/rosterd/internal/famlock"
)

// Machine is the actor recorded on automated transitions.
var Machine = plan.Actor{ID: "rosterd", Kind: plan.ActorMachine}

// Service orchestrates solves, audits, locks and repairs over a plan store.
type Service struct {
	cfg    *config.Config
	store  plan.Store
	solver *solver.Solver
	engine *audit.Engine
	orch   *repair.Orchestrator
	bus    *eventbus.Bus[events.Event]
	sink   coremetrics.MetricsSink
	locks  *famlock.Guard
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("plan store: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	engine, err := audit.NewEngine(logger.New("audit"))
	if err != nil {
		return nil, err
	}
	slv, err := solver.New(cfg.Rules, cfg.Solver, logger.New("solver"))
	if err != nil {
		return nil, err
	}
	orch, err := repair.NewOrchestrator(st, engine, logger.New("repair"))
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:    cfg,
		store:  st,
		solver: slv,
		engine: engine,
		orch:   orch,
		bus:    eventbus.New[events.Event](16),
		sink:   sink,
		locks:  famlock.New(),
		log:    logg,
	}, nil
}

// Run starts the background observability plumbing and blocks until the
// context is cancelled. Solve and repair calls work without Run; only metrics
// forwarding and the /metrics endpoint need it.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Bus exposes the event bus for additional subscribers.
func (s *Service) Bus() *eventbus.Bus[events.Event] { return s.bus }

// Solve imports the forecast as a new plan version, runs the solver and
// audits the result. The initial audit report is returned alongside the
// version. A passing audit leaves the version AUDITED; a failing one drops it
// back to DRAFT and returns it together with an audit.FailedError so the
// caller can inspect the violations.
func (s *Service) Solve(ctx context.Context, forecast model.Forecast, drivers []model.Driver, seed int64) (*plan.Version, *solver.Result, audit.Report, error) {
	forecast, err := forecast.Normalize()
	if err != nil {
		return nil, nil, audit.Report{}, err
	}
	if err := s.locks.Acquire(forecast.Ref, "solve"); err != nil {
		return nil, nil, audit.Report{}, err
	}
	defer s.locks.Release(forecast.Ref, "solve")

	v := plan.NewVersion(forecast.Ref, forecast.Tours, drivers, seed, s.cfg.Solver.WorkerCount, s.cfg.Rules)
	if err := s.store.Create(ctx, v); err != nil {
		return nil, nil, audit.Report{}, err
	}
	if err := s.apply(ctx, v, plan.StatusParsed, Machine, "forecast parsed"); err != nil {
		return nil, nil, audit.Report{}, err
	}
	if err := s.apply(ctx, v, plan.StatusExpanded, Machine, "tours expanded"); err != nil {
		return nil, nil, audit.Report{}, err
	}
	if err := s.apply(ctx, v, plan.StatusSolving, Machine, "solve started"); err != nil {
		return nil, nil, audit.Report{}, err
	}

	start := time.Now()
	res, err := s.solver.Solve(ctx, forecast, drivers, seed)
	if err != nil {
		s.bus.Publish(events.SolveEvent{VersionID: v.ID, Seed: seed, Duration: time.Since(start), Err: err})
		if aerr := s.apply(ctx, v, plan.StatusFailed, Machine, err.Error()); aerr != nil {
			s.log.Errorf("mark plan %s failed: %v", v.ID, aerr)
		}
		return nil, nil, audit.Report{}, err
	}
	if err := v.SetAssignments(res.Set, res.OutputHash); err != nil {
		return nil, nil, audit.Report{}, err
	}
	if err := s.apply(ctx, v, plan.StatusSolved, Machine, "solve finished"); err != nil {
		return nil, nil, audit.Report{}, err
	}
	s.bus.Publish(events.SolveEvent{
		VersionID:       v.ID,
		Seed:            seed,
		Workers:         res.WorkerCount,
		BestEffort:      res.BestEffort,
		OutputHash:      res.OutputHash,
		Tours:           len(forecast.Tours),
		Drivers:         res.KPIs.DriversUsed,
		CoveragePercent: res.KPIs.CoveragePercent,
		Duration:        time.Since(start),
	})

	rep, err := s.engine.RunPlan(ctx, s.store, v.ID, "")
	if err != nil {
		return nil, nil, audit.Report{}, err
	}
	s.bus.Publish(events.AuditEvent{VersionID: v.ID, AllPassed: rep.AllPassed, Violations: rep.Violations})
	if !rep.AllPassed {
		if aerr := s.apply(ctx, v, plan.StatusDraft, Machine, "audit failed"); aerr != nil {
			return nil, nil, rep, aerr
		}
		return v, res, rep, &audit.FailedError{Report: rep}
	}
	if err := s.apply(ctx, v, plan.StatusAudited, Machine, "initial audit"); err != nil {
		return nil, nil, rep, err
	}
	return v, res, rep, nil
}

// Get returns a plan version.
func (s *Service) Get(ctx context.Context, versionID string) (*plan.Version, error) {
	return s.store.Get(ctx, versionID)
}

// ListFamily returns all versions of a forecast family, oldest first.
func (s *Service) ListFamily(ctx context.Context, familyID string) ([]*plan.Version, error) {
	return s.store.ListFamily(ctx, familyID)
}

// Audit re-runs the audit engine against a persisted version, optionally
// comparing the output hash against a reference run.
func (s *Service) Audit(ctx context.Context, versionID, refHash string) (audit.Report, error) {
	rep, err := s.engine.RunPlan(ctx, s.store, versionID, refHash)
	if err != nil {
		return audit.Report{}, err
	}
	s.bus.Publish(events.AuditEvent{VersionID: versionID, AllPassed: rep.AllPassed, Violations: rep.Violations})
	return rep, nil
}

// GetAudit returns the most recent persisted audit record.
func (s *Service) GetAudit(ctx context.Context, versionID string) (*plan.AuditRecord, error) {
	return s.store.LatestAudit(ctx, versionID)
}

// Lock moves an audited version to LOCKED, or PUBLISHED when publish is set.
// Only a human actor can lock, and only a version whose latest audit passed.
func (s *Service) Lock(ctx context.Context, versionID string, approver plan.Actor, publish bool) (*plan.Version, error) {
	v, err := s.store.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if err := s.locks.Acquire(v.FamilyID, "lock"); err != nil {
		return nil, err
	}
	defer s.locks.Release(v.FamilyID, "lock")

	rec, err := s.store.LatestAudit(ctx, versionID)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			return nil, fmt.Errorf("plan %s was never audited", versionID)
		}
		return nil, err
	}
	if !rec.AllPassed {
		return nil, fmt.Errorf("plan %s: refusing to lock, latest audit has %d violations", versionID, rec.Violations)
	}
	tr, err := v.Lock(approver, publish)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, v); err != nil {
		return nil, err
	}
	s.bus.Publish(events.TransitionEvent{VersionID: v.ID, From: tr.From, To: tr.To, Actor: approver})
	return v, nil
}

// PrepareRepair builds a repair proposal against a locked or published plan.
func (s *Service) PrepareRepair(ctx context.Context, req repair.Request, actor plan.Actor) (*repair.Proposal, error) {
	parent, err := s.store.Get(ctx, req.PlanVersionID)
	if err != nil {
		return nil, err
	}
	if err := s.locks.Acquire(parent.FamilyID, "repair-prepare"); err != nil {
		return nil, err
	}
	defer s.locks.Release(parent.FamilyID, "repair-prepare")

	prop, err := s.orch.Prepare(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.RepairEvent{
		ParentID:       prop.ParentID,
		DraftID:        prop.DraftID,
		Phase:          "prepared",
		Legal:          prop.Legal,
		ChangedTours:   prop.BudgetUsed.ChangedTours,
		ChangedDrivers: prop.BudgetUsed.ChangedDrivers,
	})
	return prop, nil
}

// ConfirmRepair finalizes a prepared repair. Duplicate operation keys replay
// the stored outcome.
func (s *Service) ConfirmRepair(ctx context.Context, draftID, operationKey string, actor plan.Actor) (*repair.ConfirmResult, error) {
	draft, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := s.locks.Acquire(draft.FamilyID, "repair-confirm"); err != nil {
		return nil, err
	}
	defer s.locks.Release(draft.FamilyID, "repair-confirm")

	res, err := s.orch.Confirm(ctx, draftID, operationKey, actor)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.RepairEvent{ParentID: res.ParentID, DraftID: res.DraftID, Phase: "confirmed", Legal: true})
	s.bus.Publish(events.AuditEvent{VersionID: res.DraftID, AllPassed: res.Audit.AllPassed, Violations: res.Audit.Violations})
	return res, nil
}

// CancelRepair abandons a prepared repair and rolls the parent back.
func (s *Service) CancelRepair(ctx context.Context, draftID string, actor plan.Actor) error {
	draft, err := s.store.Get(ctx, draftID)
	if err != nil {
		return err
	}
	if err := s.locks.Acquire(draft.FamilyID, "repair-cancel"); err != nil {
		return err
	}
	defer s.locks.Release(draft.FamilyID, "repair-cancel")

	if err := s.orch.Cancel(ctx, draftID, actor); err != nil {
		return err
	}
	s.bus.Publish(events.RepairEvent{ParentID: draft.ParentID, DraftID: draftID, Phase: "cancelled"})
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return s.store.Close()
}

// apply performs a lifecycle transition, persists it and publishes the event.
func (s *Service) apply(ctx context.Context, v *plan.Version, to plan.Status, actor plan.Actor, note string) error {
	tr, err := v.Apply(to, actor, note)
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, v); err != nil {
		return err
	}
	s.bus.Publish(events.TransitionEvent{VersionID: v.ID, From: tr.From, To: tr.To, Actor: actor})
	return nil
}
