package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/rules"
)

// ActorKind distinguishes human approvers from automated callers. The
// external auth collaborator asserts the kind; the core only enforces it.
type ActorKind string

const (
	ActorHuman   ActorKind = "human"
	ActorMachine ActorKind = "machine"
)

// Actor identifies who requested a transition.
type Actor struct {
	ID   string    `json:"id"`
	Kind ActorKind `json:"kind"`
}

// Transition is one applied lifecycle step. History is append-only.
type Transition struct {
	From  Status    `json:"from"`
	To    Status    `json:"to"`
	Actor Actor     `json:"actor"`
	At    time.Time `json:"at"`
	Note  string    `json:"note,omitempty"`
}

// Version is the aggregate root of one plan. A repair never mutates a locked
// parent; it creates a child with ParentID set, and the parent records the
// child in SupersededBy as a purely informational back-reference.
type Version struct {
	ID           string              `json:"id"`
	FamilyID     string              `json:"family_id"` // forecast ref shared by all versions of a plan
	ParentID     string              `json:"parent_id,omitempty"`
	SupersededBy string              `json:"superseded_by,omitempty"`
	Seed         int64               `json:"seed"`
	WorkerCount  int                 `json:"worker_count"`
	Rules        rules.Config        `json:"rules"` // config snapshot at solve time
	Status       Status              `json:"status"`
	OutputHash   string              `json:"output_hash,omitempty"`
	Tours        []model.TourInstance `json:"tours"`
	Drivers      []model.Driver      `json:"drivers"`
	Set          model.AssignmentSet `json:"assignments,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	History      []Transition        `json:"history"`
}

// NewVersion creates a version in IMPORTED state for the given forecast.
func NewVersion(familyID string, tours []model.TourInstance, drivers []model.Driver, seed int64, workers int, cfg rules.Config) *Version {
	return &Version{
		ID:          uuid.NewString(),
		FamilyID:    familyID,
		Seed:        seed,
		WorkerCount: workers,
		Rules:       cfg,
		Status:      StatusImported,
		Tours:       tours,
		Drivers:     drivers,
		CreatedAt:   time.Now().UTC(),
	}
}

// Child derives a DRAFT child version for a repair, linked to the parent.
func (v *Version) Child() *Version {
	c := &Version{
		ID:          uuid.NewString(),
		FamilyID:    v.FamilyID,
		ParentID:    v.ID,
		Seed:        v.Seed,
		WorkerCount: v.WorkerCount,
		Rules:       v.Rules,
		Status:      StatusDraft,
		Tours:       append([]model.TourInstance(nil), v.Tours...),
		Drivers:     append([]model.Driver(nil), v.Drivers...),
		Set:         v.Set.Clone(),
		CreatedAt:   time.Now().UTC(),
	}
	return c
}

// Apply performs a lifecycle transition. Duplicate requests are idempotent:
// when the version already sits in the requested state through the same
// transition, the previously applied record is returned without error.
// Lock and publish targets are rejected here; use Lock.
func (v *Version) Apply(to Status, actor Actor, note string) (Transition, error) {
	if to == StatusLocked || to == StatusPublished {
		if v.Status == to {
			if tr, ok := v.lastTransitionTo(to); ok {
				return tr, nil
			}
		}
		// Only Lock reaches LOCKED/PUBLISHED; the single exception is the
		// repair rollback path REPAIRING -> LOCKED/PUBLISHED.
		if v.Status != StatusRepairing {
			return Transition{}, &TransitionError{VersionID: v.ID, From: v.Status, To: to}
		}
	}
	if v.Status == to {
		if tr, ok := v.lastTransitionTo(to); ok {
			return tr, nil
		}
	}
	if !CanTransition(v.Status, to) {
		return Transition{}, &TransitionError{VersionID: v.ID, From: v.Status, To: to}
	}
	tr := Transition{From: v.Status, To: to, Actor: actor, At: time.Now().UTC(), Note: note}
	v.Status = to
	v.History = append(v.History, tr)
	return tr, nil
}

// Lock moves an audited plan to LOCKED (or PUBLISHED when publish is true).
// It is the only path into those states, and it refuses machine-originated
// actors outright.
func (v *Version) Lock(approver Actor, publish bool) (Transition, error) {
	if approver.Kind != ActorHuman {
		return Transition{}, &MachineOriginError{VersionID: v.ID, ActorID: approver.ID}
	}
	target := StatusLocked
	if publish {
		target = StatusPublished
	}
	if v.Status == target {
		if tr, ok := v.lastTransitionTo(target); ok {
			return tr, nil
		}
	}
	if v.Status != StatusAudited && !(v.Status == StatusLocked && target == StatusPublished) {
		return Transition{}, &TransitionError{VersionID: v.ID, From: v.Status, To: target}
	}
	tr := Transition{From: v.Status, To: target, Actor: approver, At: time.Now().UTC(), Note: "human approval"}
	v.Status = target
	v.History = append(v.History, tr)
	return tr, nil
}

// SetAssignments replaces the assignment set. It refuses to touch an
// immutable version; hitting that refusal indicates a gating bug upstream.
func (v *Version) SetAssignments(set model.AssignmentSet, outputHash string) error {
	if !v.Status.Mutable() {
		return &LockedImmutableError{VersionID: v.ID, Status: v.Status}
	}
	v.Set = set
	v.OutputHash = outputHash
	return nil
}

func (v *Version) lastTransitionTo(to Status) (Transition, bool) {
	for i := len(v.History) - 1; i >= 0; i-- {
		if v.History[i].To == to {
			return v.History[i], true
		}
	}
	return Transition{}, false
}
