package metrics

import (
	"context"
	"time"

	"github.com/fleetroster/rosterd/core/events"
	coremetrics "github.com/fleetroster/rosterd/core/metrics"
	"github.com/fleetroster/rosterd/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				forward(sink, ev)
			}
		}
	}()
}

func forward(sink coremetrics.MetricsSink, ev events.Event) {
	now := time.Now()
	switch e := ev.(type) {
	case events.SolveEvent:
		_ = sink.RecordSolve(coremetrics.SolveRecord{
			VersionID:       e.VersionID,
			Seed:            e.Seed,
			Workers:         e.Workers,
			BestEffort:      e.BestEffort,
			Tours:           e.Tours,
			Drivers:         e.Drivers,
			CoveragePercent: e.CoveragePercent,
			Duration:        e.Duration,
			Time:            now,
		})
	case events.TransitionEvent:
		if r, ok := sink.(coremetrics.TransitionRecorder); ok {
			_ = r.RecordTransition(coremetrics.TransitionRecord{
				VersionID: e.VersionID,
				From:      string(e.From),
				To:        string(e.To),
				ActorKind: string(e.Actor.Kind),
				Time:      now,
			})
		}
	case events.AuditEvent:
		if r, ok := sink.(coremetrics.AuditRecorder); ok {
			_ = r.RecordAuditRun(coremetrics.AuditRunRecord{
				VersionID:  e.VersionID,
				AllPassed:  e.AllPassed,
				Violations: e.Violations,
				Time:       now,
			})
		}
	case events.RepairEvent:
		if r, ok := sink.(coremetrics.RepairRecorder); ok {
			_ = r.RecordRepair(coremetrics.RepairRecord{
				ParentID:       e.ParentID,
				DraftID:        e.DraftID,
				Phase:          e.Phase,
				Legal:          e.Legal,
				ChangedTours:   e.ChangedTours,
				ChangedDrivers: e.ChangedDrivers,
				Time:           now,
			})
		}
	}
}
