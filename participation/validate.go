package participation

import (
	"strings"
)

// =============================================================================
// INGESTION BOUNDARY VALIDATION
// =============================================================================
//
// The aggregation core assumes well-formed records and never calls these.
// Whatever produces []Assignment (API, import, store) validates first.

// Validate checks one record: required IDs present, rate in [0, 100], and
// periods parseable with end not before start.
func Validate(a Assignment) error {
	fail := func(field, reason string) error {
		return &ValidationError{AssignmentID: a.ID, Field: field, Reason: reason}
	}

	if strings.TrimSpace(string(a.ID)) == "" {
		return fail("id", "is required")
	}
	if strings.TrimSpace(string(a.MemberID)) == "" {
		return fail("memberId", "is required")
	}
	if strings.TrimSpace(string(a.ProjectID)) == "" {
		return fail("projectId", "is required")
	}
	if a.Rate.IsNegative() {
		return fail("rate", "must not be negative")
	}
	if a.Rate.GreaterThan(FullCapacity) {
		return fail("rate", "must not exceed 100")
	}
	if _, err := ParseRange(a.PeriodStart, a.PeriodEnd); err != nil {
		return fail("period", err.Error())
	}
	return nil
}

// ValidateSnapshot validates every record and rejects structural duplicates
// (same member, project and identical period). Duplicates are a reporting
// bug upstream and are never silently merged.
func ValidateSnapshot(assignments []Assignment) error {
	type key struct {
		member  MemberID
		project ProjectID
		period  string
	}
	seen := make(map[key]AssignmentID, len(assignments))
	ids := make(map[AssignmentID]bool, len(assignments))

	for _, a := range assignments {
		if err := Validate(a); err != nil {
			return err
		}
		if ids[a.ID] {
			return &ValidationError{AssignmentID: a.ID, Field: "id", Reason: "is not unique"}
		}
		ids[a.ID] = true

		// parse errors were caught by Validate
		r, _ := ParseRange(a.PeriodStart, a.PeriodEnd)
		k := key{a.MemberID, a.ProjectID, r.String()}
		if first, dup := seen[k]; dup {
			return &DuplicateAssignmentError{
				MemberID:  a.MemberID,
				ProjectID: a.ProjectID,
				Period:    r.String(),
				First:     first,
				Second:    a.ID,
			}
		}
		seen[k] = a.ID
	}
	return nil
}
