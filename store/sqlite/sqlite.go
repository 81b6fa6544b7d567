/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the assignment snapshot the engine reads and archives the reports
  it produces. The engine never touches this package; the API and the
  snapshot job load a full snapshot, run the pure functions and save results.

INTERFACES IMPLEMENTED:
  participation.AssignmentStore: Assignment records (replace-on-save)
  participation.SnapshotStore:   Archived reports (append-only)

KEY TABLES:
  assignments:      One row per assignment record, rate stored as decimal TEXT
  report_snapshots: Archived reports as JSON

ORDERING:
  assignments.seq is assigned on first insert and survives upserts, so
  ListAssignments returns insertion order and a replaced record keeps its
  position. Member tie-breaking in the classifier depends on this.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection so every query sees the same database.

USAGE:
  store, err := sqlite.New("./data/participation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - participation/store.go: Interface definitions
  - participation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/participation-engine/participation"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ participation.AssignmentStore = (*Store)(nil)
	_ participation.SnapshotStore   = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assignments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		member_id TEXT NOT NULL,
		member_display_name TEXT NOT NULL DEFAULT '',
		project_id TEXT NOT NULL,
		project_display_name TEXT NOT NULL DEFAULT '',
		rate TEXT NOT NULL,
		settlement_system TEXT NOT NULL DEFAULT '',
		funding_org TEXT NOT NULL DEFAULT '',
		period_start TEXT NOT NULL DEFAULT '',
		period_end TEXT NOT NULL DEFAULT '',
		is_document_only INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_member
		ON assignments(member_id, seq);

	CREATE TABLE IF NOT EXISTS report_snapshots (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		taken_at TEXT NOT NULL,
		ruleset_version TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_report_snapshots_taken_at
		ON report_snapshots(taken_at DESC, seq DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ASSIGNMENT STORE (participation.AssignmentStore interface)
// =============================================================================

const assignmentColumns = `
	id, member_id, member_display_name, project_id, project_display_name,
	rate, settlement_system, funding_org, period_start, period_end,
	is_document_only, note, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveAssignment inserts or replaces a record, keeping its position.
func (s *Store) SaveAssignment(ctx context.Context, a participation.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertAssignment(ctx, s.db, a)
}

func upsertAssignment(ctx context.Context, db execer, a participation.Assignment) error {
	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			member_id = excluded.member_id,
			member_display_name = excluded.member_display_name,
			project_id = excluded.project_id,
			project_display_name = excluded.project_display_name,
			rate = excluded.rate,
			settlement_system = excluded.settlement_system,
			funding_org = excluded.funding_org,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			is_document_only = excluded.is_document_only,
			note = excluded.note,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		string(a.ID), string(a.MemberID), a.MemberDisplayName,
		string(a.ProjectID), a.ProjectDisplayName,
		a.Rate.String(), string(a.SettlementSystem), a.FundingOrg,
		a.PeriodStart, a.PeriodEnd,
		a.IsDocumentOnly, a.Note,
		updatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save assignment %s: %w", a.ID, err)
	}
	return nil
}

// ReplaceAll swaps the whole snapshot inside one transaction.
func (s *Store) ReplaceAll(ctx context.Context, as []participation.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM assignments"); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}
	for _, a := range as {
		if err := upsertAssignment(ctx, tx, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAssignment returns participation.ErrAssignmentNotFound when absent.
func (s *Store) GetAssignment(ctx context.Context, id participation.AssignmentID) (participation.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	as, err := s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, string(id))
	if err != nil {
		return participation.Assignment{}, err
	}
	if len(as) == 0 {
		return participation.Assignment{}, participation.ErrAssignmentNotFound
	}
	return as[0], nil
}

// ListAssignments returns the snapshot in insertion order.
func (s *Store) ListAssignments(ctx context.Context) ([]participation.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments ORDER BY seq ASC`)
}

// ListByMember returns one member's records in insertion order.
func (s *Store) ListByMember(ctx context.Context, id participation.MemberID) ([]participation.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE member_id = ? ORDER BY seq ASC`, string(id))
}

// DeleteAssignment returns participation.ErrAssignmentNotFound when absent.
func (s *Store) DeleteAssignment(ctx context.Context, id participation.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return participation.ErrAssignmentNotFound
	}
	return nil
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]participation.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []participation.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func scanAssignment(rows *sql.Rows) (participation.Assignment, error) {
	var (
		a         participation.Assignment
		id        string
		memberID  string
		projectID string
		rate      string
		system    string
		updatedAt string
	)

	err := rows.Scan(
		&id, &memberID, &a.MemberDisplayName, &projectID, &a.ProjectDisplayName,
		&rate, &system, &a.FundingOrg, &a.PeriodStart, &a.PeriodEnd,
		&a.IsDocumentOnly, &a.Note, &updatedAt,
	)
	if err != nil {
		return a, fmt.Errorf("failed to scan assignment: %w", err)
	}

	a.ID = participation.AssignmentID(id)
	a.MemberID = participation.MemberID(memberID)
	a.ProjectID = participation.ProjectID(projectID)
	a.SettlementSystem = participation.SettlementSystem(system)
	if a.Rate, err = participation.ParseRate(rate); err != nil {
		return a, fmt.Errorf("assignment %s: %w", id, err)
	}
	a.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return a, nil
}

// =============================================================================
// SNAPSHOT STORE (participation.SnapshotStore interface)
// =============================================================================

// SaveSnapshot archives a report.
func (s *Store) SaveSnapshot(ctx context.Context, snap participation.ReportSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reportJSON, err := json.Marshal(snap.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO report_snapshots (id, taken_at, ruleset_version, report_json) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.TakenAt.UTC().Format(timeLayout), snap.RulesetVersion, string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// LatestSnapshot returns nil when nothing was archived yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*participation.ReportSnapshot, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// ListSnapshots returns newest first; limit <= 0 means all.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]participation.ReportSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, taken_at, ruleset_version, report_json
		FROM report_snapshots
		ORDER BY taken_at DESC, seq DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := []participation.ReportSnapshot{}
	for rows.Next() {
		var (
			snap       participation.ReportSnapshot
			takenAt    string
			reportJSON string
		)
		if err := rows.Scan(&snap.ID, &takenAt, &snap.RulesetVersion, &reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.TakenAt, _ = time.Parse(timeLayout, takenAt)
		if err := json.Unmarshal([]byte(reportJSON), &snap.Report); err != nil {
			return nil, fmt.Errorf("snapshot %s: failed to decode report: %w", snap.ID, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"assignments", "report_snapshots"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
