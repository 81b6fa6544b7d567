/*
Package participation provides the participation-rate aggregation and risk engine.

PURPOSE:
  Staff members are committed to several externally funded projects at once.
  Each commitment is an Assignment carrying a rate (percent of the member's
  capacity), the settlement system that will audit the spending, and the
  funding organization. This package sums those rates along several
  overlapping dimensions and classifies every member as SAFE, WARNING or
  DANGER against a versioned Ruleset.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rate: An exact percentage (decimal, never float)
  - SettlementSystem: Which external system verifies the spending
  - SystemFamily: Grouping of settlement systems used by the ceiling rules
  - Assignment: Immutable input record
  - MemberSummary: Derived per-member totals and classification
  - CrossVerifyGroup: Derived matrix-reporting row

DESIGN PRINCIPLES:
  1. Purity: Every operation is a function of (assignments, ruleset). No I/O,
     no shared mutable state, safe to call concurrently on separate snapshots.
  2. Precision: Uses decimal.Decimal so 100 vs 100.01 is never a rounding call
  3. Recompute, never patch: summaries have no identity and are rebuilt in full
  4. Auditability: Every report embeds the ruleset version that produced it

USAGE:
  summaries := participation.Summarize(assignments, participation.DefaultRuleset())
  for _, s := range summaries {
      fmt.Println(s.MemberDisplayName, s.RiskLevel, s.TotalRate)
  }

SEE ALSO:
  - aggregate.go: Per-member sums
  - classify.go: Ceiling rules and ordering
  - crossverify.go: Verification groups and the static system matrix
  - report.go: Report contract consumed by external tooling
*/
package participation

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE - Exact percentage of a member's capacity
// =============================================================================

// Rate is a participation percentage. 100 means the member's full capacity.
type Rate struct {
	Value decimal.Decimal
}

// FullCapacity is 100% of a member's working capacity.
var FullCapacity = NewRateFromInt(100)

func NewRate(value float64) Rate      { return Rate{Value: decimal.NewFromFloat(value)} }
func NewRateFromInt(value int64) Rate { return Rate{Value: decimal.NewFromInt(value)} }
func ZeroRate() Rate                  { return Rate{Value: decimal.Zero} }

// RateFromFloat converts an ingested float, rejecting NaN and infinities.
func RateFromFloat(value float64) (Rate, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Rate{}, &ValidationError{Field: "rate", Reason: "must be a finite number"}
	}
	return NewRate(value), nil
}

// ParseRate parses a decimal string such as "37.5".
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, &ValidationError{Field: "rate", Reason: fmt.Sprintf("not a number: %q", s)}
	}
	return Rate{Value: d}, nil
}

func (r Rate) Add(o Rate) Rate              { return Rate{Value: r.Value.Add(o.Value)} }
func (r Rate) Sub(o Rate) Rate              { return Rate{Value: r.Value.Sub(o.Value)} }
func (r Rate) IsZero() bool                 { return r.Value.IsZero() }
func (r Rate) IsPositive() bool             { return r.Value.IsPositive() }
func (r Rate) IsNegative() bool             { return r.Value.IsNegative() }
func (r Rate) GreaterThan(o Rate) bool      { return r.Value.GreaterThan(o.Value) }
func (r Rate) LessThanOrEqual(o Rate) bool  { return r.Value.LessThanOrEqual(o.Value) }
func (r Rate) Equal(o Rate) bool            { return r.Value.Equal(o.Value) }
func (r Rate) Float64() float64             { return r.Value.InexactFloat64() }

func (r Rate) Max(o Rate) Rate {
	if o.GreaterThan(r) {
		return o
	}
	return r
}

// String renders the exact value without trailing zeros ("120", "100.01").
func (r Rate) String() string {
	return r.Value.String()
}

// MarshalJSON writes the rate as a bare JSON number.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.Value.String()), nil
}

// UnmarshalJSON accepts both 37.5 and "37.5".
func (r *Rate) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		r.Value = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid rate %s: %w", data, err)
	}
	r.Value = d
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AssignmentID string
type MemberID string
type ProjectID string

// =============================================================================
// SETTLEMENT SYSTEMS
// =============================================================================

// SettlementSystem identifies the external financial-reporting system that
// executes and verifies spending for an assignment.
type SettlementSystem string

const (
	SystemENARA      SettlementSystem = "ENARA"      // national subsidy integrated system
	SystemRCMS       SettlementSystem = "RCMS"       // sub-agency research system
	SystemEzbaro     SettlementSystem = "EZBARO"     // sub-agency research system
	SystemIRIS       SettlementSystem = "IRIS"       // sub-agency administrative system
	SystemAccountant SettlementSystem = "ACCOUNTANT" // settled by a third-party accountant
	SystemPrivate    SettlementSystem = "PRIVATE"    // private / non-governmental
	SystemNone       SettlementSystem = "NONE"       // none / unspecified
)

// KnownSystems lists every recognized code in display order.
var KnownSystems = []SettlementSystem{
	SystemENARA, SystemRCMS, SystemEzbaro, SystemIRIS,
	SystemAccountant, SystemPrivate, SystemNone,
}

var systemLabels = map[SettlementSystem]string{
	SystemENARA:      "e나라도움",
	SystemRCMS:       "RCMS",
	SystemEzbaro:     "이지바로",
	SystemIRIS:       "IRIS",
	SystemAccountant: "회계법인 정산",
	SystemPrivate:    "민간",
	SystemNone:       "해당없음",
}

// Label returns the display name. Unknown codes render as themselves.
func (s SettlementSystem) Label() string {
	if l, ok := systemLabels[s]; ok {
		return l
	}
	return string(s)
}

// IsKnown reports whether the code is part of the fixed set.
func (s SettlementSystem) IsKnown() bool {
	_, ok := systemLabels[s]
	return ok
}

// SystemFamily groups settlement systems for the ceiling rules.
type SystemFamily string

const (
	FamilyNational   SystemFamily = "national"
	FamilyAccountant SystemFamily = "accountant"
	FamilyPrivate    SystemFamily = "private"
	FamilyNone       SystemFamily = "none"
	FamilyUnknown    SystemFamily = "unknown"
)

var familyLabels = map[SystemFamily]string{
	FamilyNational:   "국가 보조금 시스템(e나라도움 계열)",
	FamilyAccountant: "회계법인 정산",
	FamilyPrivate:    "민간",
}

func (f SystemFamily) Label() string {
	if l, ok := familyLabels[f]; ok {
		return l
	}
	return string(f)
}

// Family returns the family of a settlement system. Unrecognized codes
// degrade to FamilyUnknown, which no rule treats as verifiable.
func (s SettlementSystem) Family() SystemFamily {
	switch s {
	case SystemENARA, SystemRCMS, SystemEzbaro, SystemIRIS:
		return FamilyNational
	case SystemAccountant:
		return FamilyAccountant
	case SystemPrivate:
		return FamilyPrivate
	case SystemNone, "":
		return FamilyNone
	default:
		return FamilyUnknown
	}
}

// IsVerifiable reports whether an external auditor can cross-check the family.
func (f SystemFamily) IsVerifiable() bool {
	return f == FamilyNational || f == FamilyAccountant
}

// =============================================================================
// ASSIGNMENT - Immutable input record
// =============================================================================

// Assignment commits part of a member's capacity to one funded project.
// Records are never edited in place; an update replaces the whole record.
// Several records may exist for the same member and project when the rate
// changes across periods of the same year.
type Assignment struct {
	ID                 AssignmentID     `json:"id"`
	MemberID           MemberID         `json:"memberId"`
	MemberDisplayName  string           `json:"memberDisplayName"`
	ProjectID          ProjectID        `json:"projectId"`
	ProjectDisplayName string           `json:"projectDisplayName"`
	Rate               Rate             `json:"rate"`
	SettlementSystem   SettlementSystem `json:"settlementSystem"`
	FundingOrg         string           `json:"fundingOrg"`
	PeriodStart        string           `json:"periodStart"` // "YYYY-MM"
	PeriodEnd          string           `json:"periodEnd"`   // "YYYY-MM"
	IsDocumentOnly     bool             `json:"isDocumentOnly"`
	Note               string           `json:"note,omitempty"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// =============================================================================
// RISK LEVELS
// =============================================================================

// RiskLevel is the member-level classification.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "SAFE"
	RiskWarning RiskLevel = "WARNING"
	RiskDanger  RiskLevel = "DANGER"
)

// Severity orders levels: DANGER > WARNING > SAFE.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskDanger:
		return 2
	case RiskWarning:
		return 1
	default:
		return 0
	}
}

// GroupRisk is the risk of a single verification group or matrix cell.
type GroupRisk string

const (
	GroupHigh   GroupRisk = "HIGH"
	GroupMedium GroupRisk = "MEDIUM"
	GroupLow    GroupRisk = "LOW"
	GroupNone   GroupRisk = "NONE"
)

// =============================================================================
// MEMBER SUMMARY - Derived, recomputed on every pass
// =============================================================================

// MemberSummary holds one member's aggregated rates and classification.
type MemberSummary struct {
	MemberID          MemberID              `json:"memberId"`
	MemberDisplayName string                `json:"memberDisplayName"`
	RealName          string                `json:"realName"`
	Nickname          string                `json:"nickname"`
	Entries           []Assignment          `json:"entries"`
	TotalRate         Rate                  `json:"totalRate"`
	ProjectCount      int                   `json:"projectCount"`
	ProjectRates      map[ProjectID]Rate    `json:"projectRates"`
	BySystemRate      map[SystemFamily]Rate `json:"bySystemRate"`
	OrgRates          map[string]Rate       `json:"orgRates"`
	MaxVerifiableRate Rate                  `json:"maxVerifiableRate"`
	RiskLevel         RiskLevel             `json:"riskLevel"`
	RiskDetails       []string              `json:"riskDetails"`
}

// SystemRate returns the summed rate of a family, zero when absent.
func (s MemberSummary) SystemRate(f SystemFamily) Rate {
	if r, ok := s.BySystemRate[f]; ok {
		return r
	}
	return ZeroRate()
}

// =============================================================================
// CROSS VERIFY GROUP - Matrix reporting row
// =============================================================================

// CrossVerifyGroup is one set of a member's assignments that a single system
// or a single funding organization could check against each other.
type CrossVerifyGroup struct {
	MemberID          MemberID     `json:"memberId"`
	MemberDisplayName string       `json:"memberDisplayName"`
	GroupKey          string       `json:"groupKey"` // "sys:<code>" or "org:<name>"
	GroupLabel        string       `json:"groupLabel"`
	Entries           []Assignment `json:"entries"`
	TotalRate         Rate         `json:"totalRate"`
	Risk              GroupRisk    `json:"risk"`
	IsOverLimit       bool         `json:"isOverLimit"`
}
