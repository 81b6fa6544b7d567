package participation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// MONTH - Period granularity of an assignment
// =============================================================================

// Month is a calendar month. The zero value means "unbounded".
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth accepts "2025-03", "2025.03", "2025/03" and "202503".
// An empty string yields the zero (unbounded) Month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Month{}, nil
	}

	var yearPart, monthPart string
	if i := strings.IndexAny(s, "-./"); i >= 0 {
		yearPart, monthPart = s[:i], s[i+1:]
		// tolerate a trailing day component ("2025-03-01")
		if j := strings.IndexAny(monthPart, "-./"); j >= 0 {
			monthPart = monthPart[:j]
		}
	} else if len(s) == 6 {
		yearPart, monthPart = s[:4], s[4:]
	} else {
		return Month{}, fmt.Errorf("invalid month %q", s)
	}

	year, err := strconv.Atoi(yearPart)
	if err != nil || year < 1900 || year > 9999 {
		return Month{}, fmt.Errorf("invalid month %q: bad year", s)
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return Month{}, fmt.Errorf("invalid month %q: bad month", s)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

func (m Month) IsZero() bool { return m.Year == 0 }

// index is a monotonically increasing month number.
func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

func (m Month) Before(o Month) bool { return m.index() < o.index() }

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// =============================================================================
// MONTH RANGE
// =============================================================================

// MonthRange is an inclusive span of months. A zero bound is open-ended.
type MonthRange struct {
	Start Month
	End   Month
}

// ParseRange parses an assignment's period strings.
func ParseRange(start, end string) (MonthRange, error) {
	s, err := ParseMonth(start)
	if err != nil {
		return MonthRange{}, err
	}
	e, err := ParseMonth(end)
	if err != nil {
		return MonthRange{}, err
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return MonthRange{}, fmt.Errorf("period end %s before start %s", e, s)
	}
	return MonthRange{Start: s, End: e}, nil
}

// Overlaps reports whether two inclusive ranges share at least one month.
func (r MonthRange) Overlaps(o MonthRange) bool {
	// r ends before o starts
	if !r.End.IsZero() && !o.Start.IsZero() && r.End.Before(o.Start) {
		return false
	}
	// o ends before r starts
	if !o.End.IsZero() && !r.Start.IsZero() && o.End.Before(r.Start) {
		return false
	}
	return true
}

func (r MonthRange) String() string {
	return r.Start.String() + "~" + r.End.String()
}

// =============================================================================
// PERIOD OVERLAP DIAGNOSTICS
// =============================================================================

// PeriodOverlap flags two records for the same member and project whose
// periods overlap while both carry a nonzero rate. Aggregation still adds
// the two rates; this only makes the double count visible.
type PeriodOverlap struct {
	MemberID  MemberID     `json:"memberId"`
	ProjectID ProjectID    `json:"projectId"`
	First     AssignmentID `json:"first"`
	Second    AssignmentID `json:"second"`
	Combined  Rate         `json:"combinedRate"`
}

// FindPeriodOverlaps scans the snapshot in input order. Records whose
// periods do not parse are skipped; Validate reports them.
func FindPeriodOverlaps(assignments []Assignment) []PeriodOverlap {
	type key struct {
		member  MemberID
		project ProjectID
	}
	type seen struct {
		a Assignment
		r MonthRange
	}

	byKey := make(map[key][]seen)
	var overlaps []PeriodOverlap
	for _, a := range assignments {
		if a.Rate.IsZero() {
			continue
		}
		r, err := ParseRange(a.PeriodStart, a.PeriodEnd)
		if err != nil {
			continue
		}
		k := key{a.MemberID, a.ProjectID}
		for _, prev := range byKey[k] {
			if prev.r.Overlaps(r) {
				overlaps = append(overlaps, PeriodOverlap{
					MemberID:  a.MemberID,
					ProjectID: a.ProjectID,
					First:     prev.a.ID,
					Second:    a.ID,
					Combined:  prev.a.Rate.Add(a.Rate),
				})
			}
		}
		byKey[k] = append(byKey[k], seen{a: a, r: r})
	}
	return overlaps
}
