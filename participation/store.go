/*
store.go - Persistence interfaces for the surrounding collaborators

PURPOSE:
  The engine itself performs no I/O. These interfaces describe what the
  input supplier and report archive look like so the API, the scheduler and
  tests can swap a sqlite store for an in-memory one.

KEY INTERFACES:
  AssignmentStore: Snapshot supplier (replace-on-save, never patched)
  SnapshotStore:   Archive of generated reports for audit

ORDERING:
  ListAssignments returns records in insertion order, and replacing a record
  keeps its position. Tie-breaking in ClassifyAll follows this order.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - participation/store/memory.go: In-memory for testing
*/
package participation

import (
	"context"
	"time"
)

// AssignmentStore persists assignment records.
type AssignmentStore interface {
	// SaveAssignment inserts or replaces the record with the same ID.
	SaveAssignment(ctx context.Context, a Assignment) error

	// ReplaceAll swaps the entire snapshot atomically.
	ReplaceAll(ctx context.Context, as []Assignment) error

	// GetAssignment returns ErrAssignmentNotFound when absent.
	GetAssignment(ctx context.Context, id AssignmentID) (Assignment, error)

	ListAssignments(ctx context.Context) ([]Assignment, error)
	ListByMember(ctx context.Context, id MemberID) ([]Assignment, error)

	// DeleteAssignment returns ErrAssignmentNotFound when absent.
	DeleteAssignment(ctx context.Context, id AssignmentID) error
}

// ReportSnapshot is an archived report.
type ReportSnapshot struct {
	ID             string    `json:"id"`
	TakenAt        time.Time `json:"takenAt"`
	RulesetVersion string    `json:"rulesetVersion"`
	Report         Report    `json:"report"`
}

// SnapshotStore archives reports. Append-only.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap ReportSnapshot) error
	// LatestSnapshot returns nil when nothing was archived yet.
	LatestSnapshot(ctx context.Context) (*ReportSnapshot, error)
	// ListSnapshots returns newest first; limit <= 0 means all.
	ListSnapshots(ctx context.Context, limit int) ([]ReportSnapshot, error)
}
