package plan

import (
	"context"
	"time"

	"github.com/fleetroster/rosterd/core/rules"
)

// AuditRecord is one audit engine run over a plan version. Records are
// append-only; re-audits add a new record instead of replacing the old one.
type AuditRecord struct {
	VersionID  string         `json:"version_id"`
	RunAt      time.Time      `json:"run_at"`
	AllPassed  bool           `json:"all_passed"`
	Violations int            `json:"violations"`
	Results    []rules.Result `json:"results"`
}

// Store persists plan versions, their assignment sets and audit history.
// Implementations must present a stable snapshot per call; readers never see
// a partially written version.
type Store interface {
	Create(ctx context.Context, v *Version) error
	// Get returns an independent copy of the version, or ErrNotFound.
	Get(ctx context.Context, id string) (*Version, error)
	// Update persists the version state. Implementations reject assignment
	// changes to immutable versions with LockedImmutableError.
	Update(ctx context.Context, v *Version) error
	// ListFamily returns all versions sharing a forecast family, ordered by
	// creation time.
	ListFamily(ctx context.Context, familyID string) ([]*Version, error)
	AppendAudit(ctx context.Context, rec AuditRecord) error
	// LatestAudit returns the most recent audit record, or ErrNotFound when
	// the version was never audited.
	LatestAudit(ctx context.Context, versionID string) (*AuditRecord, error)
	Close() error
}
