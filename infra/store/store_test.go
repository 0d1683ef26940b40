package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/plan"
	"github.com/fleetroster/rosterd/core/rules"
)

func testVersion(t *testing.T, family string) *plan.Version {
	t.Helper()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tour := model.TourInstance{
		ID:    "T1",
		Day:   1,
		Start: day.Add(6 * time.Hour),
		End:   day.Add(10 * time.Hour),
		Depot: "north",
	}.WithFingerprint()
	drv := model.Driver{ID: "D1", WeeklyHours: 0}
	var cfg rules.Config
	cfg.SetDefaults()
	return plan.NewVersion(family, []model.TourInstance{tour}, []model.Driver{drv}, 42, 1, cfg)
}

func stores(t *testing.T) map[string]plan.Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]plan.Store{"memory": NewMemoryStore(), "sqlite": sq}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v := testVersion(t, "fam-1")
			if err := s.Create(ctx, v); err != nil {
				t.Fatalf("create: %v", err)
			}
			got, err := s.Get(ctx, v.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.FamilyID != "fam-1" || got.Status != plan.StatusImported {
				t.Fatalf("unexpected version: %+v", got)
			}
			if len(got.Tours) != 1 || got.Tours[0].ID != "T1" {
				t.Fatalf("tours lost in round trip: %+v", got.Tours)
			}
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, plan.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := testVersion(t, "fam-copy")
	if err := s.Create(ctx, v); err != nil {
		t.Fatalf("create: %v", err)
	}
	a, _ := s.Get(ctx, v.ID)
	a.Tours[0].ID = "mutated"
	b, _ := s.Get(ctx, v.ID)
	if b.Tours[0].ID != "T1" {
		t.Fatal("store leaked internal state to caller")
	}
}

func TestStoreImmutableGuard(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v := testVersion(t, "fam-lock")
			set := model.AssignmentSet{{DriverID: "D1", Tour: v.Tours[0], Day: 1, BlockKind: model.BlockSingle}}
			if err := v.SetAssignments(set, set.OutputHash()); err != nil {
				t.Fatalf("set assignments: %v", err)
			}
			v.Status = plan.StatusLocked
			if err := s.Create(ctx, v); err != nil {
				t.Fatalf("create: %v", err)
			}

			// Status-only updates must pass so the lifecycle can advance.
			v.Status = plan.StatusRepairing
			if err := s.Update(ctx, v); err != nil {
				t.Fatalf("status update rejected: %v", err)
			}

			v.OutputHash = "tampered"
			err := s.Update(ctx, v)
			var imm *plan.LockedImmutableError
			if !errors.As(err, &imm) {
				t.Fatalf("expected LockedImmutableError, got %v", err)
			}
		})
	}
}

func TestStoreListFamilyOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := testVersion(t, "fam-list")
			b := testVersion(t, "fam-list")
			b.CreatedAt = a.CreatedAt.Add(time.Second)
			other := testVersion(t, "fam-other")
			for _, v := range []*plan.Version{b, a, other} {
				if err := s.Create(ctx, v); err != nil {
					t.Fatalf("create: %v", err)
				}
			}
			got, err := s.ListFamily(ctx, "fam-list")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
				t.Fatalf("unexpected family order: %+v", got)
			}
		})
	}
}

func TestStoreAuditHistory(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v := testVersion(t, "fam-audit")
			if err := s.Create(ctx, v); err != nil {
				t.Fatalf("create: %v", err)
			}
			if _, err := s.LatestAudit(ctx, v.ID); !errors.Is(err, plan.ErrNotFound) {
				t.Fatalf("expected ErrNotFound before first audit, got %v", err)
			}
			first := plan.AuditRecord{VersionID: v.ID, RunAt: time.Now().UTC(), AllPassed: false, Violations: 2}
			second := plan.AuditRecord{VersionID: v.ID, RunAt: first.RunAt.Add(time.Minute), AllPassed: true}
			if err := s.AppendAudit(ctx, first); err != nil {
				t.Fatalf("append: %v", err)
			}
			if err := s.AppendAudit(ctx, second); err != nil {
				t.Fatalf("append: %v", err)
			}
			latest, err := s.LatestAudit(ctx, v.ID)
			if err != nil {
				t.Fatalf("latest: %v", err)
			}
			if !latest.AllPassed {
				t.Fatalf("expected the second record, got %+v", latest)
			}
		})
	}
}
