/*
errors.go - Centralized error types for the participation engine

PURPOSE:
  The aggregation and classification core never fails: unknown settlement
  systems and unmatched organizations degrade gracefully. Errors exist only
  at the boundaries: validating ingested records, validating rulesets, and
  looking up members or stored records.

ERROR CATEGORIES:
  1. Validation errors - malformed assignment records or rulesets
  2. Lookup errors - member or assignment absent from the snapshot

USAGE:
    if errors.Is(err, participation.ErrInvalidAssignment) {
        var ve *participation.ValidationError
        errors.As(err, &ve) // ve.Field, ve.Reason
    }
*/
package participation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAssignment is returned when a required field is missing or the
	// rate is not a finite number in range.
	ErrInvalidAssignment = errors.New("invalid assignment")

	// ErrDuplicateAssignment is returned when a snapshot holds two records for
	// the same member, project and identical period.
	ErrDuplicateAssignment = errors.New("duplicate assignment for member, project and period")

	// ErrInvalidRuleset is returned when ruleset thresholds are inconsistent.
	ErrInvalidRuleset = errors.New("invalid ruleset")

	// ErrMemberNotFound is returned when a member has no assignments.
	ErrMemberNotFound = errors.New("member not found")

	// ErrAssignmentNotFound is returned when a stored record doesn't exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes why one assignment was rejected.
type ValidationError struct {
	AssignmentID AssignmentID
	Field        string
	Reason       string
}

func (e *ValidationError) Error() string {
	if e.AssignmentID != "" {
		return fmt.Sprintf("assignment %s: %s %s", e.AssignmentID, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAssignment
}

// DuplicateAssignmentError names the two records that collide.
type DuplicateAssignmentError struct {
	MemberID  MemberID
	ProjectID ProjectID
	Period    string
	First     AssignmentID
	Second    AssignmentID
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("duplicate assignment: member %s project %s period %s (%s, %s)",
		e.MemberID, e.ProjectID, e.Period, e.First, e.Second)
}

func (e *DuplicateAssignmentError) Unwrap() error {
	return ErrDuplicateAssignment
}

// RulesetError describes an inconsistent ruleset field.
type RulesetError struct {
	Field  string
	Reason string
}

func (e *RulesetError) Error() string {
	return fmt.Sprintf("ruleset %s: %s", e.Field, e.Reason)
}

func (e *RulesetError) Unwrap() error {
	return ErrInvalidRuleset
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAssignment) ||
		errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrInvalidRuleset)
}

// IsNotFound returns true if the error indicates a missing record or member.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}
