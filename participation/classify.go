/*
classify.go - Ceiling rules and member ordering

PURPOSE:
  Assigns SAFE / WARNING / DANGER to an aggregated member and explains why.

RULES (evaluated in this order, each may add explanations):
  1. System ceiling: national-family sum > LimitRate is DANGER,
     > WarningRate (up to and including LimitRate) is WARNING.
  2. Same organization: for each organization whose sum > WarningRate
     - sensitive org + verifiable system + sum > LimitRate  -> DANGER
     - verifiable system + sum <= LimitRate + national family present -> WARNING
     - anything else (private-only backing, non-sensitive over the limit) -> nothing
  3. Cross-system overlap: national > 0 and accountant > 0 and their sum >
     LimitRate -> WARNING only. The two systems are not cross-checked
     automatically, so this is a potential conflict, never DANGER on its own.
  4. Fallback: when nothing above fired and TotalRate > 100 -> WARNING note
     about capacity planning.

  Level = highest severity fired. Details are ordered DANGER first, then
  WARNING, keeping rule order inside a severity.

BOUNDARIES:
  Every comparison is strict (>), except the rule 2 WARNING branch, which
  is inclusive at LimitRate (<=). A national sum of exactly 80 is SAFE,
  exactly 100 is WARNING, 100.01 is DANGER.

ORDERING:
  ClassifyAll sorts DANGER, WARNING, SAFE; then TotalRate descending; ties
  keep input order.
*/
package participation

import (
	"fmt"
	"sort"
)

// finding is one fired rule.
type finding struct {
	level  RiskLevel
	detail string
}

// Classify applies the ceiling rules to one aggregated member and returns
// the summary with RiskLevel and RiskDetails set.
func Classify(s MemberSummary, rs Ruleset) MemberSummary {
	return classify(s, rs, rs.Matcher())
}

// ClassifyAll classifies every summary and sorts them for reporting.
func ClassifyAll(summaries []MemberSummary, rs Ruleset) []MemberSummary {
	matcher := rs.Matcher()
	out := make([]MemberSummary, len(summaries))
	for i, s := range summaries {
		out[i] = classify(s, rs, matcher)
	}
	SortSummaries(out)
	return out
}

// Summarize is Aggregate followed by ClassifyAll.
func Summarize(assignments []Assignment, rs Ruleset) []MemberSummary {
	return ClassifyAll(Aggregate(assignments, rs), rs)
}

// SortSummaries orders DANGER, WARNING, SAFE, then TotalRate descending.
// The sort is stable so equal members keep input order.
func SortSummaries(summaries []MemberSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		si, sj := summaries[i].RiskLevel.Severity(), summaries[j].RiskLevel.Severity()
		if si != sj {
			return si > sj
		}
		return summaries[i].TotalRate.GreaterThan(summaries[j].TotalRate)
	})
}

func classify(s MemberSummary, rs Ruleset, matcher OrgMatcher) MemberSummary {
	var findings []finding
	findings = append(findings, systemCeiling(s, rs)...)
	findings = append(findings, sameOrgCeiling(s, rs, matcher)...)
	findings = append(findings, crossSystemOverlap(s, rs)...)
	if len(findings) == 0 {
		findings = append(findings, totalCapacity(s)...)
	}

	// DANGER before WARNING, rule order preserved inside a level
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].level.Severity() > findings[j].level.Severity()
	})

	s.RiskLevel = RiskSafe
	s.RiskDetails = make([]string, 0, len(findings))
	for _, f := range findings {
		if f.level.Severity() > s.RiskLevel.Severity() {
			s.RiskLevel = f.level
		}
		s.RiskDetails = append(s.RiskDetails, f.detail)
	}
	return s
}

// =============================================================================
// RULE 1 - System ceiling
// =============================================================================

func systemCeiling(s MemberSummary, rs Ruleset) []finding {
	national := s.SystemRate(FamilyNational)
	label := FamilyNational.Label()

	switch {
	case national.GreaterThan(rs.LimitRate):
		return []finding{{
			level:  RiskDanger,
			detail: fmt.Sprintf("%s 합계 %s%% (%s%% 초과)", label, national, rs.LimitRate),
		}}
	case national.GreaterThan(rs.WarningRate):
		return []finding{{
			level:  RiskWarning,
			detail: fmt.Sprintf("%s 합계 %s%% (경고 기준 %s%% 초과)", label, national, rs.WarningRate),
		}}
	}
	return nil
}

// =============================================================================
// RULE 2 - Same organization ceiling
// =============================================================================

type orgBacking struct {
	verifiable bool
	national   bool
}

func sameOrgCeiling(s MemberSummary, rs Ruleset, matcher OrgMatcher) []finding {
	backing := make(map[string]orgBacking)
	for _, a := range s.Entries {
		org := matcher.Canonical(a.FundingOrg)
		if org == "" {
			continue
		}
		b := backing[org]
		f := a.SettlementSystem.Family()
		b.verifiable = b.verifiable || f.IsVerifiable()
		b.national = b.national || f == FamilyNational
		backing[org] = b
	}

	orgs := make([]string, 0, len(s.OrgRates))
	for org := range s.OrgRates {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)

	var findings []finding
	for _, org := range orgs {
		sum := s.OrgRates[org]
		if !sum.GreaterThan(rs.WarningRate) {
			continue
		}
		b := backing[org]

		switch {
		case matcher.IsSensitive(org) && b.verifiable && sum.GreaterThan(rs.LimitRate):
			findings = append(findings, finding{
				level:  RiskDanger,
				detail: fmt.Sprintf("동일 기관 %s%% 초과: %s 합계 %s%%", rs.LimitRate, org, sum),
			})
		case b.verifiable && sum.LessThanOrEqual(rs.LimitRate) && b.national:
			findings = append(findings, finding{
				level:  RiskWarning,
				detail: fmt.Sprintf("동일 기관 경고: %s 합계 %s%% (경고 기준 %s%% 초과)", org, sum, rs.WarningRate),
			})
		}
	}
	return findings
}

// =============================================================================
// RULE 3 - Cross-system potential overlap
// =============================================================================

func crossSystemOverlap(s MemberSummary, rs Ruleset) []finding {
	national := s.SystemRate(FamilyNational)
	accountant := s.SystemRate(FamilyAccountant)
	if !national.IsPositive() || !accountant.IsPositive() {
		return nil
	}

	combined := national.Add(accountant)
	if !combined.GreaterThan(rs.LimitRate) {
		return nil
	}
	return []finding{{
		level: RiskWarning,
		detail: fmt.Sprintf("시스템 간 중복 가능: %s %s%% + %s %s%% = %s%% (자동 교차검증 대상 아님)",
			FamilyNational.Label(), national, FamilyAccountant.Label(), accountant, combined),
	}}
}

// =============================================================================
// RULE 4 - Total capacity fallback
// =============================================================================

func totalCapacity(s MemberSummary) []finding {
	if !s.TotalRate.GreaterThan(FullCapacity) {
		return nil
	}
	return []finding{{
		level:  RiskWarning,
		detail: fmt.Sprintf("총 참여율 %s%% (100%% 초과): 검증 그룹별로는 한도 이내, 인력 운영 점검 필요", s.TotalRate),
	}}
}
