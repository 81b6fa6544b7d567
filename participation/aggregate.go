/*
aggregate.go - Per-member participation sums

PURPOSE:
  Turns a flat snapshot of assignments into one MemberSummary per member.
  This is the participation analogue of summing ledger transactions into a
  balance: the records are immutable, the summary is derived and thrown
  away on the next pass.

ALGORITHM:
  1. Group assignments by member (first appearance order)
  2. Sum rates per distinct project, then add project sums into TotalRate
  3. Sum rates per settlement-system family (national, accountant, private)
  4. Sum rates per canonical funding organization
  5. MaxVerifiableRate = largest value seen in steps 3 and 4
  6. Split the display name into real name and nickname

PERIOD-SLICED RECORDS:
  A project whose rate changes mid-year is stored as two records. Their
  rates are added into one project-level rate, which assumes the periods do
  not overlap. Nothing here checks that; FindPeriodOverlaps reports the
  cases where the assumption fails without changing any sum.

DETERMINISM:
  Decimal addition is exact, so any input order yields the same numbers.
  Output order follows first appearance; ClassifyAll owns the final order.
*/
package participation

import "strings"

// Aggregate builds one summary per member present in the input. Members
// absent from the input never appear in the output. Risk fields are left
// at SAFE with no details; Classify fills them in.
func Aggregate(assignments []Assignment, rs Ruleset) []MemberSummary {
	matcher := rs.Matcher()

	var order []MemberID
	byMember := make(map[MemberID][]Assignment)
	for _, a := range assignments {
		if _, ok := byMember[a.MemberID]; !ok {
			order = append(order, a.MemberID)
		}
		byMember[a.MemberID] = append(byMember[a.MemberID], a)
	}

	summaries := make([]MemberSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, aggregateMember(id, byMember[id], matcher))
	}
	return summaries
}

func aggregateMember(id MemberID, entries []Assignment, matcher OrgMatcher) MemberSummary {
	s := MemberSummary{
		MemberID:     id,
		Entries:      entries,
		TotalRate:    ZeroRate(),
		ProjectRates: make(map[ProjectID]Rate),
		BySystemRate: make(map[SystemFamily]Rate),
		OrgRates:     make(map[string]Rate),
		RiskLevel:    RiskSafe,
		RiskDetails:  []string{},
	}

	for _, a := range entries {
		if s.MemberDisplayName == "" {
			s.MemberDisplayName = a.MemberDisplayName
		}

		// same project in two periods adds up into one project rate
		s.ProjectRates[a.ProjectID] = s.ProjectRates[a.ProjectID].Add(a.Rate)

		switch f := a.SettlementSystem.Family(); f {
		case FamilyNational, FamilyAccountant, FamilyPrivate:
			s.BySystemRate[f] = s.BySystemRate[f].Add(a.Rate)
		}

		if org := matcher.Canonical(a.FundingOrg); org != "" {
			s.OrgRates[org] = s.OrgRates[org].Add(a.Rate)
		}
	}

	for _, r := range s.ProjectRates {
		s.TotalRate = s.TotalRate.Add(r)
	}
	s.ProjectCount = len(s.ProjectRates)

	s.MaxVerifiableRate = ZeroRate()
	for _, r := range s.BySystemRate {
		s.MaxVerifiableRate = s.MaxVerifiableRate.Max(r)
	}
	for _, r := range s.OrgRates {
		s.MaxVerifiableRate = s.MaxVerifiableRate.Max(r)
	}

	s.RealName, s.Nickname = ParseDisplayName(s.MemberDisplayName)
	return s
}

// ParseDisplayName splits "RealName(Nickname)". Without a trailing
// parenthetical the whole string is the real name.
func ParseDisplayName(display string) (realName, nickname string) {
	display = strings.TrimSpace(display)
	normalized := strings.NewReplacer("（", "(", "）", ")").Replace(display)

	if !strings.HasSuffix(normalized, ")") {
		return display, ""
	}
	open := strings.LastIndex(normalized, "(")
	if open <= 0 {
		return display, ""
	}
	return strings.TrimSpace(normalized[:open]), strings.TrimSpace(normalized[open+1 : len(normalized)-1])
}
