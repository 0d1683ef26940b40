package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/fleetroster/rosterd/core/plan"
)

// SQLiteStore persists plan versions and audit records in a SQLite database.
// Versions are stored as JSON documents with the queryable columns lifted out.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS plan_versions (
        id TEXT PRIMARY KEY,
        family_id TEXT,
        created_ts INTEGER,
        status TEXT,
        output_hash TEXT,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_plan_family ON plan_versions(family_id, created_ts);
    CREATE TABLE IF NOT EXISTS audit_records (
        version_id TEXT,
        run_ts INTEGER,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_audit_version ON audit_records(version_id, run_ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Create inserts a new version.
func (s *SQLiteStore) Create(ctx context.Context, v *plan.Version) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode version %s: %w", v.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plan_versions (id, family_id, created_ts, status, output_hash, record)
         VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.FamilyID, v.CreatedAt.UnixNano(), string(v.Status), v.OutputHash, string(b))
	return err
}

// Get loads a version by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*plan.Version, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM plan_versions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v plan.Version
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("store: decode version %s: %w", id, err)
	}
	return &v, nil
}

// Update rewrites a version. Assignment changes against an immutable stored
// version are rejected.
func (s *SQLiteStore) Update(ctx context.Context, v *plan.Version) error {
	var curStatus, curHash string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, output_hash FROM plan_versions WHERE id = ?`, v.ID).
		Scan(&curStatus, &curHash)
	if err == sql.ErrNoRows {
		return plan.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !plan.Status(curStatus).Mutable() && curHash != v.OutputHash {
		return &plan.LockedImmutableError{VersionID: v.ID, Status: plan.Status(curStatus)}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode version %s: %w", v.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE plan_versions SET status = ?, output_hash = ?, record = ? WHERE id = ?`,
		string(v.Status), v.OutputHash, string(b), v.ID)
	return err
}

// ListFamily returns all versions of a forecast family, oldest first.
func (s *SQLiteStore) ListFamily(ctx context.Context, familyID string) ([]*plan.Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM plan_versions WHERE family_id = ? ORDER BY created_ts, id`, familyID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*plan.Version
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v plan.Version
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("store: decode family %s: %w", familyID, err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// AppendAudit adds an audit record to the version's history.
func (s *SQLiteStore) AppendAudit(ctx context.Context, rec plan.AuditRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode audit for %s: %w", rec.VersionID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_records (version_id, run_ts, record) VALUES (?, ?, ?)`,
		rec.VersionID, rec.RunAt.UnixNano(), string(b))
	return err
}

// LatestAudit returns the most recent audit record for the version.
func (s *SQLiteStore) LatestAudit(ctx context.Context, versionID string) (*plan.AuditRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM audit_records WHERE version_id = ? ORDER BY run_ts DESC LIMIT 1`,
		versionID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec plan.AuditRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("store: decode audit for %s: %w", versionID, err)
	}
	return &rec, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
