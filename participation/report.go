/*
report.go - Report contract consumed by external tooling

PURPOSE:
  Wraps the sorted member summaries into the stable shape that compliance
  exports and notification triggers depend on. The report embeds the
  ruleset version and thresholds so that two reports produced under
  different rules are never silently compared.

REPORT SHAPE:
  generatedAt     when the report was built (injected clock)
  rulesetVersion  Ruleset.Version
  thresholds      warning / limit rates and sensitive keywords
  totalMembers    number of rows
  counts          members per risk level
  rows            one per member, sorted like ClassifyAll
  periodOverlaps  same-project records whose periods overlap (informational)

  Everything except generatedAt is a pure function of (assignments, ruleset).

SEE ALSO:
  - classify.go: Row ordering and risk details
  - period.go: Overlap diagnostics
*/
package participation

import "time"

// NoRiskHeadline is the headline of a row with no risk details.
const NoRiskHeadline = "위험 없음"

// =============================================================================
// ENGINE - Ruleset + clock, otherwise stateless
// =============================================================================

// Engine binds a ruleset and a clock to the pure functions of this package.
// It holds no assignment state; callers pass a snapshot on every call.
type Engine struct {
	Ruleset Ruleset
	Now     func() time.Time
}

// NewEngine returns an engine using the wall clock.
func NewEngine(rs Ruleset) *Engine {
	return &Engine{Ruleset: rs, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// Summaries aggregates, classifies and sorts.
func (e *Engine) Summaries(assignments []Assignment) []MemberSummary {
	return Summarize(assignments, e.Ruleset)
}

// MemberSummary returns one classified member.
func (e *Engine) MemberSummary(assignments []Assignment, id MemberID) (MemberSummary, error) {
	var own []Assignment
	for _, a := range assignments {
		if a.MemberID == id {
			own = append(own, a)
		}
	}
	if len(own) == 0 {
		return MemberSummary{}, ErrMemberNotFound
	}
	return Classify(Aggregate(own, e.Ruleset)[0], e.Ruleset), nil
}

// CrossVerify builds the verification groups under the engine's ruleset.
func (e *Engine) CrossVerify(assignments []Assignment) []CrossVerifyGroup {
	return CrossVerifyGroups(assignments, e.Ruleset)
}

// =============================================================================
// REPORT
// =============================================================================

// Thresholds echoes the ruleset values a report was built with.
type Thresholds struct {
	WarningRate          Rate     `json:"warningRate"`
	LimitRate            Rate     `json:"limitRate"`
	SensitiveOrgKeywords []string `json:"sensitiveOrgKeywords"`
}

// ReportRow is one member in the report.
type ReportRow struct {
	MemberID          MemberID              `json:"memberId"`
	Name              string                `json:"name"`
	RealName          string                `json:"realName"`
	Nickname          string                `json:"nickname"`
	TotalRate         Rate                  `json:"totalRate"`
	ProjectCount      int                   `json:"projectCount"`
	BySystemRate      map[SystemFamily]Rate `json:"bySystemRate"`
	OrgRates          map[string]Rate       `json:"orgRates"`
	MaxVerifiableRate Rate                  `json:"maxVerifiableRate"`
	RiskLevel         RiskLevel             `json:"riskLevel"`
	Risk              string                `json:"risk"`
	RiskDetails       []string              `json:"riskDetails"`
}

// Report is the stable contract for compliance exports and notifications.
type Report struct {
	GeneratedAt    time.Time         `json:"generatedAt"`
	RulesetVersion string            `json:"rulesetVersion"`
	Thresholds     Thresholds        `json:"thresholds"`
	TotalMembers   int               `json:"totalMembers"`
	Counts         map[RiskLevel]int `json:"counts"`
	Rows           []ReportRow       `json:"rows"`
	PeriodOverlaps []PeriodOverlap   `json:"periodOverlaps"`
}

// BuildReport runs the full pipeline over a snapshot.
func (e *Engine) BuildReport(assignments []Assignment) Report {
	summaries := e.Summaries(assignments)

	report := Report{
		GeneratedAt:    e.now(),
		RulesetVersion: e.Ruleset.Version,
		Thresholds: Thresholds{
			WarningRate:          e.Ruleset.WarningRate,
			LimitRate:            e.Ruleset.LimitRate,
			SensitiveOrgKeywords: append([]string{}, e.Ruleset.SensitiveOrgKeywords...),
		},
		TotalMembers: len(summaries),
		Counts: map[RiskLevel]int{
			RiskDanger:  0,
			RiskWarning: 0,
			RiskSafe:    0,
		},
		Rows:           make([]ReportRow, 0, len(summaries)),
		PeriodOverlaps: FindPeriodOverlaps(assignments),
	}
	if report.PeriodOverlaps == nil {
		report.PeriodOverlaps = []PeriodOverlap{}
	}

	for _, s := range summaries {
		report.Counts[s.RiskLevel]++
		report.Rows = append(report.Rows, toRow(s))
	}
	return report
}

func toRow(s MemberSummary) ReportRow {
	headline := NoRiskHeadline
	if len(s.RiskDetails) > 0 {
		headline = s.RiskDetails[0]
	}
	return ReportRow{
		MemberID:          s.MemberID,
		Name:              s.MemberDisplayName,
		RealName:          s.RealName,
		Nickname:          s.Nickname,
		TotalRate:         s.TotalRate,
		ProjectCount:      s.ProjectCount,
		BySystemRate:      s.BySystemRate,
		OrgRates:          s.OrgRates,
		MaxVerifiableRate: s.MaxVerifiableRate,
		RiskLevel:         s.RiskLevel,
		Risk:              headline,
		RiskDetails:       s.RiskDetails,
	}
}

// =============================================================================
// DOWNSTREAM QUERY
// =============================================================================

// AffectedProjects returns the distinct projects a member holds a nonzero
// rate on, in first-appearance order. HR-event notifications use this.
func AffectedProjects(assignments []Assignment, id MemberID) []ProjectID {
	seen := make(map[ProjectID]bool)
	projects := []ProjectID{}
	for _, a := range assignments {
		if a.MemberID != id || !a.Rate.IsPositive() || seen[a.ProjectID] {
			continue
		}
		seen[a.ProjectID] = true
		projects = append(projects, a.ProjectID)
	}
	return projects
}
