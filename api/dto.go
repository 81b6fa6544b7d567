/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request types carry
  go-playground/validator tags; the domain check (participation.Validate)
  still runs afterwards so the rules live in one place.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Assignment:
    AssignmentDTO, AssignmentRequest, ImportRequest

  Snapshots:
    SnapshotDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

  Summaries, reports, cross-verify groups and the ruleset are served as the
  domain types themselves; their rates marshal as exact JSON numbers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/ruleset.go: RulesetJSON document type
*/
package api

import (
	"strings"
	"time"

	"github.com/warp/participation-engine/participation"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AssignmentDTO represents an assignment in API responses.
type AssignmentDTO struct {
	ID                 string  `json:"id"`
	MemberID           string  `json:"member_id"`
	MemberDisplayName  string  `json:"member_display_name"`
	ProjectID          string  `json:"project_id"`
	ProjectDisplayName string  `json:"project_display_name"`
	Rate               float64 `json:"rate"`
	SettlementSystem   string  `json:"settlement_system"`
	SystemLabel        string  `json:"system_label"`
	FundingOrg         string  `json:"funding_org"`
	PeriodStart        string  `json:"period_start"`
	PeriodEnd          string  `json:"period_end"`
	IsDocumentOnly     bool    `json:"is_document_only"`
	Note               string  `json:"note,omitempty"`
	UpdatedAt          string  `json:"updated_at,omitempty"`
}

// AssignmentRequest creates or replaces one assignment. An empty ID gets a
// generated one.
type AssignmentRequest struct {
	ID                 string   `json:"id" validate:"max=128"`
	MemberID           string   `json:"member_id" validate:"required,max=128"`
	MemberDisplayName  string   `json:"member_display_name" validate:"max=200"`
	ProjectID          string   `json:"project_id" validate:"required,max=128"`
	ProjectDisplayName string   `json:"project_display_name" validate:"max=200"`
	Rate               *float64 `json:"rate" validate:"required,gte=0,lte=100"`
	SettlementSystem   string   `json:"settlement_system" validate:"max=32"`
	FundingOrg         string   `json:"funding_org" validate:"max=200"`
	PeriodStart        string   `json:"period_start" validate:"max=10"`
	PeriodEnd          string   `json:"period_end" validate:"max=10"`
	IsDocumentOnly     bool     `json:"is_document_only"`
	Note               string   `json:"note" validate:"max=2000"`
}

// ImportRequest replaces the whole snapshot.
type ImportRequest struct {
	Assignments []AssignmentRequest `json:"assignments" validate:"dive"`
}

// ImportResponse reports how many records the snapshot now holds.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// AffectedProjectsDTO answers the HR-event query.
type AffectedProjectsDTO struct {
	MemberID string   `json:"member_id"`
	Projects []string `json:"projects"`
}

// SnapshotDTO is an archived report without its rows.
type SnapshotDTO struct {
	ID             string                          `json:"id"`
	TakenAt        string                          `json:"taken_at"`
	RulesetVersion string                          `json:"ruleset_version"`
	TotalMembers   int                             `json:"total_members"`
	Counts         map[participation.RiskLevel]int `json:"counts"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Expected    string `json:"expected,omitempty"` // headline risk level
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAssignmentDTO(a participation.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:                 string(a.ID),
		MemberID:           string(a.MemberID),
		MemberDisplayName:  a.MemberDisplayName,
		ProjectID:          string(a.ProjectID),
		ProjectDisplayName: a.ProjectDisplayName,
		Rate:               a.Rate.Float64(),
		SettlementSystem:   string(a.SettlementSystem),
		SystemLabel:        a.SettlementSystem.Label(),
		FundingOrg:         a.FundingOrg,
		PeriodStart:        a.PeriodStart,
		PeriodEnd:          a.PeriodEnd,
		IsDocumentOnly:     a.IsDocumentOnly,
		Note:               a.Note,
	}
	if !a.UpdatedAt.IsZero() {
		dto.UpdatedAt = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toAssignmentDTOs(as []participation.Assignment) []AssignmentDTO {
	dtos := make([]AssignmentDTO, len(as))
	for i, a := range as {
		dtos[i] = toAssignmentDTO(a)
	}
	return dtos
}

// toAssignment converts a request that already passed struct validation.
func toAssignment(req AssignmentRequest, id string, now time.Time) (participation.Assignment, error) {
	rate, err := participation.RateFromFloat(*req.Rate)
	if err != nil {
		return participation.Assignment{}, err
	}
	return participation.Assignment{
		ID:                 participation.AssignmentID(id),
		MemberID:           participation.MemberID(strings.TrimSpace(req.MemberID)),
		MemberDisplayName:  strings.TrimSpace(req.MemberDisplayName),
		ProjectID:          participation.ProjectID(strings.TrimSpace(req.ProjectID)),
		ProjectDisplayName: strings.TrimSpace(req.ProjectDisplayName),
		Rate:               rate,
		SettlementSystem:   participation.SettlementSystem(strings.ToUpper(strings.TrimSpace(req.SettlementSystem))),
		FundingOrg:         strings.TrimSpace(req.FundingOrg),
		PeriodStart:        strings.TrimSpace(req.PeriodStart),
		PeriodEnd:          strings.TrimSpace(req.PeriodEnd),
		IsDocumentOnly:     req.IsDocumentOnly,
		Note:               req.Note,
		UpdatedAt:          now,
	}, nil
}

func toSnapshotDTO(s participation.ReportSnapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:             s.ID,
		TakenAt:        s.TakenAt.UTC().Format(time.RFC3339),
		RulesetVersion: s.RulesetVersion,
		TotalMembers:   s.Report.TotalMembers,
		Counts:         s.Report.Counts,
	}
}
