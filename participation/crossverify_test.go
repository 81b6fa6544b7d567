package participation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/participation-engine/participation"
)

func groupByKey(groups []participation.CrossVerifyGroup, member, key string) (participation.CrossVerifyGroup, bool) {
	for _, g := range groups {
		if g.MemberID == participation.MemberID(member) && g.GroupKey == key {
			return g, true
		}
	}
	return participation.CrossVerifyGroup{}, false
}

func TestCrossVerifyGroups_SystemGroups(t *testing.T) {
	as := []participation.Assignment{
		assign("a1", "m1", "p1", 60, participation.SystemENARA, "Org A"),
		assign("a2", "m1", "p2", 45, participation.SystemENARA, "Org B"),
		assign("a3", "m1", "p3", 30, participation.SystemAccountant, "Org C"),
		assign("a4", "m1", "p4", 50, participation.SystemPrivate, "Org D"),
		assign("a5", "m1", "p5", 50, participation.SystemNone, "Org E"),
	}

	groups := participation.CrossVerifyGroups(as, participation.DefaultRuleset())

	require.Len(t, groups, 2, "private and none systems are not grouped, single-record orgs neither")

	enara, ok := groupByKey(groups, "m1", "sys:ENARA")
	require.True(t, ok)
	assert.Equal(t, "e나라도움", enara.GroupLabel)
	assertRate(t, 105, enara.TotalRate)
	assert.Equal(t, participation.GroupHigh, enara.Risk)
	assert.True(t, enara.IsOverLimit)
	assert.Len(t, enara.Entries, 2)

	acc, ok := groupByKey(groups, "m1", "sys:ACCOUNTANT")
	require.True(t, ok)
	assert.Equal(t, participation.GroupLow, acc.Risk)
	assert.False(t, acc.IsOverLimit)
}

func TestCrossVerifyGroups_OrgGroupsNeedTwoRecords(t *testing.T) {
	as := []participation.Assignment{
		assign("a1", "m1", "p1", 50, participation.SystemPrivate, "KOICA"),
		assign("a2", "m1", "p2", 35, participation.SystemPrivate, "한국국제협력단/사업부"),
		assign("a3", "m1", "p3", 90, participation.SystemPrivate, "Lonely Org"),
	}

	groups := participation.CrossVerifyGroups(as, participation.DefaultRuleset())

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "org:KOICA", g.GroupKey)
	assert.Equal(t, "KOICA", g.GroupLabel)
	assertRate(t, 85, g.TotalRate)
	assert.Equal(t, participation.GroupMedium, g.Risk)
}

func TestCrossVerifyGroups_LimitBoundary(t *testing.T) {
	as := []participation.Assignment{
		assign("a1", "m1", "p1", 60, participation.SystemRCMS, "Org A"),
		assign("a2", "m1", "p2", 40, participation.SystemRCMS, "Org A"),
		assign("b1", "m2", "p1", 80, participation.SystemRCMS, "Org A"),
	}

	groups := participation.CrossVerifyGroups(as, participation.DefaultRuleset())

	atLimit, ok := groupByKey(groups, "m1", "sys:RCMS")
	require.True(t, ok)
	assert.Equal(t, participation.GroupMedium, atLimit.Risk, "100 is not over the limit")
	assert.False(t, atLimit.IsOverLimit)

	org, ok := groupByKey(groups, "m1", "org:Org A")
	require.True(t, ok)
	assert.False(t, org.IsOverLimit)

	atWarning, ok := groupByKey(groups, "m2", "sys:RCMS")
	require.True(t, ok)
	assert.Equal(t, participation.GroupLow, atWarning.Risk, "80 is not over the warning rate")
}

func TestCrossVerifyGroups_MemberOrderAndLabels(t *testing.T) {
	as := []participation.Assignment{
		withName(assign("a1", "m2", "p1", 10, participation.SystemENARA, "Org A"), "최지훈(지훈)"),
		assign("a2", "m1", "p1", 10, participation.SystemIRIS, "Org A"),
	}

	groups := participation.CrossVerifyGroups(as, participation.DefaultRuleset())

	require.Len(t, groups, 2)
	assert.Equal(t, participation.MemberID("m2"), groups[0].MemberID)
	assert.Equal(t, "최지훈(지훈)", groups[0].MemberDisplayName)
	assert.Equal(t, "sys:IRIS", groups[1].GroupKey)
}

func TestCrossVerifyGroups_UnknownSystemSkipped(t *testing.T) {
	as := []participation.Assignment{
		assign("a1", "m1", "p1", 120, participation.SettlementSystem("OTHER"), "Org A"),
	}

	groups := participation.CrossVerifyGroups(as, participation.DefaultRuleset())

	assert.Empty(t, groups)
}

// =============================================================================
// STATIC MATRIX
// =============================================================================

func TestMatrixRisk_SameSystemAlwaysHigh(t *testing.T) {
	for _, s := range participation.KnownSystems {
		cell := participation.MatrixRisk(s, s)
		assert.Equal(t, participation.GroupHigh, cell.Risk, string(s))
		assert.Contains(t, cell.Reason, "동일 시스템")
	}
}

func TestMatrixRisk_Symmetric(t *testing.T) {
	for _, a := range participation.KnownSystems {
		for _, b := range participation.KnownSystems {
			ab := participation.MatrixRisk(a, b)
			ba := participation.MatrixRisk(b, a)
			assert.Equal(t, ab.Risk, ba.Risk, "%s/%s", a, b)
			assert.Equal(t, a, ab.A)
			assert.Equal(t, b, ab.B)
		}
	}
}

func TestMatrixRisk_PrivateHasNoPath(t *testing.T) {
	cell := participation.MatrixRisk(participation.SystemPrivate, participation.SystemENARA)
	assert.Equal(t, participation.GroupNone, cell.Risk)

	cell = participation.MatrixRisk(participation.SystemENARA, participation.SystemAccountant)
	assert.Equal(t, participation.GroupLow, cell.Risk)
}

func TestRiskMatrix_Shape(t *testing.T) {
	rows := participation.RiskMatrix()

	require.Len(t, rows, len(participation.KnownSystems)-1, "NONE is not rendered")
	for i, row := range rows {
		require.Len(t, row.Cells, len(rows))
		assert.Equal(t, participation.GroupHigh, row.Cells[i].Risk, "diagonal")
		assert.NotEqual(t, participation.SystemNone, row.System)
	}
}
