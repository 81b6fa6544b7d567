package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/participation-engine/participation"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id, member, project, rate string) participation.Assignment {
	r, _ := participation.ParseRate(rate)
	return participation.Assignment{
		ID:                 participation.AssignmentID(id),
		MemberID:           participation.MemberID(member),
		MemberDisplayName:  "홍길동(길동)",
		ProjectID:          participation.ProjectID(project),
		ProjectDisplayName: "Project " + project,
		Rate:               r,
		SettlementSystem:   participation.SystemRCMS,
		FundingOrg:         "한국연구재단/기초",
		PeriodStart:        "2025-01",
		PeriodEnd:          "2025-12",
		IsDocumentOnly:     true,
		Note:               "memo",
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// GIVEN: a record with a fractional rate
	want := record("a1", "m1", "p1", "33.333")
	want.UpdatedAt = time.Date(2025, time.May, 2, 3, 4, 5, 6, time.UTC)

	// WHEN: saved and read back
	require.NoError(t, store.SaveAssignment(ctx, want))
	got, err := store.GetAssignment(ctx, "a1")

	// THEN: every field survives, the rate exactly
	require.NoError(t, err)
	assert.Equal(t, "33.333", got.Rate.String())
	assert.Equal(t, want.MemberDisplayName, got.MemberDisplayName)
	assert.Equal(t, want.FundingOrg, got.FundingOrg)
	assert.Equal(t, participation.SystemRCMS, got.SettlementSystem)
	assert.True(t, got.IsDocumentOnly)
	assert.Equal(t, "memo", got.Note)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAssignment(context.Background(), "nope")

	assert.ErrorIs(t, err, participation.ErrAssignmentNotFound)
}

func TestStore_UpsertKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveAssignment(ctx, record("a1", "m1", "p1", "10")))
	require.NoError(t, store.SaveAssignment(ctx, record("a2", "m2", "p1", "20")))
	require.NoError(t, store.SaveAssignment(ctx, record("a3", "m1", "p2", "30")))
	require.NoError(t, store.SaveAssignment(ctx, record("a1", "m1", "p1", "15")))

	all, err := store.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, participation.AssignmentID("a1"), all[0].ID)
	assert.Equal(t, "15", all[0].Rate.String())
	assert.Equal(t, participation.AssignmentID("a3"), all[2].ID)

	mine, err := store.ListByMember(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, participation.AssignmentID("a3"), mine[1].ID)
}

func TestStore_ReplaceAllAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveAssignment(ctx, record("old", "m1", "p1", "10")))

	require.NoError(t, store.ReplaceAll(ctx, []participation.Assignment{
		record("b1", "m1", "p1", "10"),
		record("b2", "m1", "p2", "20"),
	}))

	_, err := store.GetAssignment(ctx, "old")
	assert.ErrorIs(t, err, participation.ErrAssignmentNotFound)

	require.NoError(t, store.DeleteAssignment(ctx, "b1"))
	assert.ErrorIs(t, store.DeleteAssignment(ctx, "b1"), participation.ErrAssignmentNotFound)

	all, err := store.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, participation.AssignmentID("b2"), all[0].ID)
}

func TestStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	engine := &participation.Engine{
		Ruleset: participation.DefaultRuleset(),
		Now:     func() time.Time { return time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC) },
	}
	report := engine.BuildReport([]participation.Assignment{
		record("a1", "m1", "p1", "60"),
		record("a2", "m1", "p2", "45"),
	})

	base := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.SaveSnapshot(ctx, participation.ReportSnapshot{
			ID:             id,
			TakenAt:        base.Add(time.Duration(i) * time.Minute),
			RulesetVersion: report.RulesetVersion,
			Report:         report,
		}))
	}

	latest, err = store.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "s3", latest.ID)
	require.Len(t, latest.Report.Rows, 1)
	assert.Equal(t, participation.RiskDanger, latest.Report.Rows[0].RiskLevel)
	assert.Equal(t, "105", latest.Report.Rows[0].TotalRate.String())

	snaps, err := store.ListSnapshots(ctx, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "s2", snaps[1].ID)

	require.NoError(t, store.Reset(ctx))
	snaps, err = store.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
