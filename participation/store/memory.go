// Package store provides in-memory store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/participation-engine/participation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	order       []participation.AssignmentID
	assignments map[participation.AssignmentID]participation.Assignment
	snapshots   []participation.ReportSnapshot
}

var (
	_ participation.AssignmentStore = (*Memory)(nil)
	_ participation.SnapshotStore   = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		assignments: make(map[participation.AssignmentID]participation.Assignment),
	}
}

// SaveAssignment replaces in place, keeping the original position.
func (m *Memory) SaveAssignment(_ context.Context, a participation.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(a)
	return nil
}

// ReplaceAll swaps the snapshot in one step.
func (m *Memory) ReplaceAll(_ context.Context, as []participation.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = nil
	m.assignments = make(map[participation.AssignmentID]participation.Assignment, len(as))
	for _, a := range as {
		m.putLocked(a)
	}
	return nil
}

func (m *Memory) putLocked(a participation.Assignment) {
	if _, exists := m.assignments[a.ID]; !exists {
		m.order = append(m.order, a.ID)
	}
	m.assignments[a.ID] = a
}

func (m *Memory) GetAssignment(_ context.Context, id participation.AssignmentID) (participation.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assignments[id]
	if !ok {
		return participation.Assignment{}, participation.ErrAssignmentNotFound
	}
	return a, nil
}

func (m *Memory) ListAssignments(_ context.Context) ([]participation.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]participation.Assignment, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.assignments[id])
	}
	return out, nil
}

func (m *Memory) ListByMember(_ context.Context, member participation.MemberID) ([]participation.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []participation.Assignment
	for _, id := range m.order {
		if a := m.assignments[id]; a.MemberID == member {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) DeleteAssignment(_ context.Context, id participation.AssignmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assignments[id]; !ok {
		return participation.ErrAssignmentNotFound
	}
	delete(m.assignments, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (m *Memory) SaveSnapshot(_ context.Context, snap participation.ReportSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	return nil
}

func (m *Memory) LatestSnapshot(ctx context.Context) (*participation.ReportSnapshot, error) {
	snaps, _ := m.ListSnapshots(ctx, 1)
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func (m *Memory) ListSnapshots(_ context.Context, limit int) ([]participation.ReportSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// reversed so equal timestamps still list the most recent save first
	out := make([]participation.ReportSnapshot, 0, len(m.snapshots))
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		out = append(out, m.snapshots[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TakenAt.After(out[j].TakenAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
