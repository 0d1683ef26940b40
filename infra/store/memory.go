// Package store provides plan.Store implementations: an in-memory store for
// tests and single-run CLI use, and a SQLite store for durable plan history.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/fleetroster/rosterd/core/plan"
)

// MemoryStore keeps plan versions and audit records in process memory.
// Every call works on deep copies, so callers never share state with the
// store or with each other.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string]*plan.Version
	audits   map[string][]plan.AuditRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[string]*plan.Version),
		audits:   make(map[string][]plan.AuditRecord),
	}
}

// Create persists a new version. The id must be unused.
func (s *MemoryStore) Create(_ context.Context, v *plan.Version) error {
	cp, err := copyVersion(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[v.ID]; ok {
		return fmt.Errorf("plan version %s already exists", v.ID)
	}
	s.versions[v.ID] = cp
	return nil
}

// Get returns an independent copy of the version.
func (s *MemoryStore) Get(_ context.Context, id string) (*plan.Version, error) {
	s.mu.RLock()
	v, ok := s.versions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, plan.ErrNotFound
	}
	return copyVersion(v)
}

// Update persists the version state. Assignment changes against an immutable
// stored version are rejected; status transitions still go through so the
// lifecycle can advance past LOCKED.
func (s *MemoryStore) Update(_ context.Context, v *plan.Version) error {
	cp, err := copyVersion(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.versions[v.ID]
	if !ok {
		return plan.ErrNotFound
	}
	if !cur.Status.Mutable() && cur.OutputHash != v.OutputHash {
		return &plan.LockedImmutableError{VersionID: v.ID, Status: cur.Status}
	}
	s.versions[v.ID] = cp
	return nil
}

// ListFamily returns all versions sharing a forecast family, oldest first.
func (s *MemoryStore) ListFamily(_ context.Context, familyID string) ([]*plan.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*plan.Version
	for _, v := range s.versions {
		if v.FamilyID != familyID {
			continue
		}
		cp, err := copyVersion(v)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AppendAudit adds an audit record to the version's history.
func (s *MemoryStore) AppendAudit(_ context.Context, rec plan.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[rec.VersionID]; !ok {
		return plan.ErrNotFound
	}
	s.audits[rec.VersionID] = append(s.audits[rec.VersionID], rec)
	return nil
}

// LatestAudit returns the most recent audit record for the version.
func (s *MemoryStore) LatestAudit(_ context.Context, versionID string) (*plan.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.audits[versionID]
	if len(recs) == 0 {
		return nil, plan.ErrNotFound
	}
	rec := recs[len(recs)-1]
	return &rec, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// copyVersion deep-copies through the JSON representation, which is also the
// persistence format of the SQLite store.
func copyVersion(v *plan.Version) (*plan.Version, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode version %s: %w", v.ID, err)
	}
	var cp plan.Version
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil, fmt.Errorf("store: decode version %s: %w", v.ID, err)
	}
	return &cp, nil
}
