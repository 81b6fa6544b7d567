package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/participation-engine/participation"
)

func rec(id, member, project string, rate int64) participation.Assignment {
	return participation.Assignment{
		ID:               participation.AssignmentID(id),
		MemberID:         participation.MemberID(member),
		ProjectID:        participation.ProjectID(project),
		Rate:             participation.NewRateFromInt(rate),
		SettlementSystem: participation.SystemENARA,
	}
}

func TestMemory_SaveKeepsPosition(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveAssignment(ctx, rec("a1", "m1", "p1", 10)))
	require.NoError(t, m.SaveAssignment(ctx, rec("a2", "m2", "p1", 20)))
	require.NoError(t, m.SaveAssignment(ctx, rec("a1", "m1", "p1", 55)))

	all, err := m.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, participation.AssignmentID("a1"), all[0].ID)
	assert.Equal(t, "55", all[0].Rate.String())
}

func TestMemory_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveAssignment(ctx, rec("a1", "m1", "p1", 10)))

	got, err := m.GetAssignment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, participation.MemberID("m1"), got.MemberID)

	require.NoError(t, m.DeleteAssignment(ctx, "a1"))
	_, err = m.GetAssignment(ctx, "a1")
	assert.ErrorIs(t, err, participation.ErrAssignmentNotFound)
	assert.ErrorIs(t, m.DeleteAssignment(ctx, "a1"), participation.ErrAssignmentNotFound)
}

func TestMemory_ReplaceAllAndListByMember(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveAssignment(ctx, rec("old", "m9", "p1", 10)))

	require.NoError(t, m.ReplaceAll(ctx, []participation.Assignment{
		rec("b1", "m1", "p1", 10),
		rec("b2", "m2", "p1", 20),
		rec("b3", "m1", "p2", 30),
	}))

	all, _ := m.ListAssignments(ctx)
	assert.Len(t, all, 3)

	mine, err := m.ListByMember(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, participation.AssignmentID("b1"), mine[0].ID)
	assert.Equal(t, participation.AssignmentID("b3"), mine[1].ID)
}

func TestMemory_Snapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	latest, err := m.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SaveSnapshot(ctx, participation.ReportSnapshot{ID: "s1", TakenAt: base}))
	require.NoError(t, m.SaveSnapshot(ctx, participation.ReportSnapshot{ID: "s2", TakenAt: base.Add(time.Hour)}))
	require.NoError(t, m.SaveSnapshot(ctx, participation.ReportSnapshot{ID: "s3", TakenAt: base.Add(time.Hour)}))

	latest, err = m.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "s3", latest.ID)

	snaps, err := m.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "s1", snaps[2].ID)

	snaps, _ = m.ListSnapshots(ctx, 2)
	assert.Len(t, snaps, 2)
}
