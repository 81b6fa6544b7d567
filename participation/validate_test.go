package participation_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/participation-engine/participation"
)

// =============================================================================
// MONTHS AND RANGES
// =============================================================================

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want participation.Month
		ok   bool
	}{
		{"2025-03", participation.Month{Year: 2025, Month: time.March}, true},
		{"2025.11", participation.Month{Year: 2025, Month: time.November}, true},
		{"2025/1", participation.Month{Year: 2025, Month: time.January}, true},
		{"202507", participation.Month{Year: 2025, Month: time.July}, true},
		{"2025-03-15", participation.Month{Year: 2025, Month: time.March}, true},
		{"", participation.Month{}, true},
		{"2025-13", participation.Month{}, false},
		{"March", participation.Month{}, false},
		{"25-03", participation.Month{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := participation.ParseMonth(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMonthRange_Overlaps(t *testing.T) {
	r := func(s, e string) participation.MonthRange {
		mr, err := participation.ParseRange(s, e)
		require.NoError(t, err)
		return mr
	}

	assert.False(t, r("2025-01", "2025-06").Overlaps(r("2025-07", "2025-12")))
	assert.True(t, r("2025-01", "2025-07").Overlaps(r("2025-07", "2025-12")), "shared month")
	assert.True(t, r("", "").Overlaps(r("2025-07", "2025-12")), "open range")
	assert.True(t, r("2025-03", "").Overlaps(r("2026-01", "2026-02")))
	assert.False(t, r("", "2024-12").Overlaps(r("2025-01", "")))
}

func TestParseRange_EndBeforeStart(t *testing.T) {
	_, err := participation.ParseRange("2025-06", "2025-01")
	assert.Error(t, err)
}

func TestFindPeriodOverlaps(t *testing.T) {
	as := []participation.Assignment{
		withPeriod(assign("a1", "m1", "p1", 20, participation.SystemENARA, "NRF"), "2025-01", "2025-06"),
		withPeriod(assign("a2", "m1", "p1", 40, participation.SystemENARA, "NRF"), "2025-06", "2025-12"),
		withPeriod(assign("a3", "m1", "p2", 40, participation.SystemENARA, "NRF"), "2025-01", "2025-12"),
		withPeriod(assign("a4", "m1", "p2", 0, participation.SystemENARA, "NRF"), "2025-01", "2025-12"),
		withPeriod(assign("a5", "m2", "p1", 10, participation.SystemENARA, "NRF"), "2025-01", "2025-12"),
	}

	overlaps := participation.FindPeriodOverlaps(as)

	require.Len(t, overlaps, 1)
	assert.Equal(t, participation.AssignmentID("a1"), overlaps[0].First)
	assert.Equal(t, participation.AssignmentID("a2"), overlaps[0].Second)
	assertRate(t, 60, overlaps[0].Combined)

	// the sum is not altered by the diagnostic
	s := participation.Aggregate(as, participation.DefaultRuleset())[0]
	assertRate(t, 60, s.ProjectRates["p1"])
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	valid := assign("a1", "m1", "p1", 50, participation.SystemENARA, "NRF")
	require.NoError(t, participation.Validate(valid))

	cases := []struct {
		name   string
		mutate func(*participation.Assignment)
		field  string
	}{
		{"missing id", func(a *participation.Assignment) { a.ID = "" }, "id"},
		{"missing member", func(a *participation.Assignment) { a.MemberID = " " }, "memberId"},
		{"missing project", func(a *participation.Assignment) { a.ProjectID = "" }, "projectId"},
		{"negative rate", func(a *participation.Assignment) { a.Rate = rate(-1) }, "rate"},
		{"rate over 100", func(a *participation.Assignment) { a.Rate = rate(100.5) }, "rate"},
		{"bad period", func(a *participation.Assignment) { a.PeriodStart = "someday" }, "period"},
		{"inverted period", func(a *participation.Assignment) { a.PeriodStart, a.PeriodEnd = "2025-12", "2025-01" }, "period"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := valid
			tc.mutate(&a)

			err := participation.Validate(a)

			require.Error(t, err)
			assert.True(t, errors.Is(err, participation.ErrInvalidAssignment))
			var ve *participation.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.True(t, participation.IsClientError(err))
		})
	}
}

func TestValidate_BoundaryRatesAccepted(t *testing.T) {
	for _, r := range []float64{0, 100} {
		a := assign("a1", "m1", "p1", r, participation.SystemENARA, "NRF")
		assert.NoError(t, participation.Validate(a))
	}
}

func TestRateFromFloat_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := participation.RateFromFloat(f)
		assert.ErrorIs(t, err, participation.ErrInvalidAssignment)
	}
	r, err := participation.RateFromFloat(37.5)
	require.NoError(t, err)
	assert.Equal(t, "37.5", r.String())
}

func TestValidateSnapshot_RejectsStructuralDuplicates(t *testing.T) {
	as := []participation.Assignment{
		assign("a1", "m1", "p1", 20, participation.SystemENARA, "NRF"),
		withPeriod(assign("a2", "m1", "p1", 40, participation.SystemENARA, "NRF"), "2025.01", "202512"),
	}

	err := participation.ValidateSnapshot(as)

	require.Error(t, err)
	assert.ErrorIs(t, err, participation.ErrDuplicateAssignment)
	var dup *participation.DuplicateAssignmentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, participation.AssignmentID("a1"), dup.First)
	assert.Equal(t, participation.AssignmentID("a2"), dup.Second)
}

func TestValidateSnapshot_AllowsPeriodSlices(t *testing.T) {
	as := []participation.Assignment{
		withPeriod(assign("a1", "m1", "p1", 20, participation.SystemENARA, "NRF"), "2025-01", "2025-06"),
		withPeriod(assign("a2", "m1", "p1", 40, participation.SystemENARA, "NRF"), "2025-07", "2025-12"),
	}

	assert.NoError(t, participation.ValidateSnapshot(as))
}

func TestValidateSnapshot_RejectsRepeatedIDs(t *testing.T) {
	as := []participation.Assignment{
		assign("a1", "m1", "p1", 20, participation.SystemENARA, "NRF"),
		assign("a1", "m2", "p1", 20, participation.SystemENARA, "NRF"),
	}

	err := participation.ValidateSnapshot(as)

	assert.ErrorIs(t, err, participation.ErrInvalidAssignment)
}
