package participation

// =============================================================================
// CROSS-VERIFICATION GROUPS - Matrix reporting rows
// =============================================================================

// CrossVerifyGroups regroups each member's assignments into the sets that a
// single settlement system or a single funding organization could check
// against each other. It does not depend on member classification.
//
// Per member, in first-appearance order:
//   - one "sys:<code>" group per settlement system used, skipping none,
//     private and unrecognized codes (nothing verifies those)
//   - one "org:<name>" group per canonical organization with two or more
//     records (a single record has nothing to be cross-checked against)
func CrossVerifyGroups(assignments []Assignment, rs Ruleset) []CrossVerifyGroup {
	matcher := rs.Matcher()

	var members []MemberID
	byMember := make(map[MemberID][]Assignment)
	for _, a := range assignments {
		if _, ok := byMember[a.MemberID]; !ok {
			members = append(members, a.MemberID)
		}
		byMember[a.MemberID] = append(byMember[a.MemberID], a)
	}

	var groups []CrossVerifyGroup
	for _, id := range members {
		entries := byMember[id]
		display := ""
		for _, a := range entries {
			if a.MemberDisplayName != "" {
				display = a.MemberDisplayName
				break
			}
		}

		var systems []SettlementSystem
		bySystem := make(map[SettlementSystem][]Assignment)
		var orgs []string
		byOrg := make(map[string][]Assignment)

		for _, a := range entries {
			if a.SettlementSystem.Family().IsVerifiable() {
				if _, ok := bySystem[a.SettlementSystem]; !ok {
					systems = append(systems, a.SettlementSystem)
				}
				bySystem[a.SettlementSystem] = append(bySystem[a.SettlementSystem], a)
			}
			if org := matcher.Canonical(a.FundingOrg); org != "" {
				if _, ok := byOrg[org]; !ok {
					orgs = append(orgs, org)
				}
				byOrg[org] = append(byOrg[org], a)
			}
		}

		for _, sys := range systems {
			groups = append(groups, newGroup(id, display, "sys:"+string(sys), sys.Label(), bySystem[sys], rs))
		}
		for _, org := range orgs {
			if len(byOrg[org]) < 2 {
				continue
			}
			groups = append(groups, newGroup(id, display, "org:"+org, org, byOrg[org], rs))
		}
	}
	return groups
}

func newGroup(id MemberID, display, key, label string, entries []Assignment, rs Ruleset) CrossVerifyGroup {
	total := ZeroRate()
	for _, a := range entries {
		total = total.Add(a.Rate)
	}
	return CrossVerifyGroup{
		MemberID:          id,
		MemberDisplayName: display,
		GroupKey:          key,
		GroupLabel:        label,
		Entries:           entries,
		TotalRate:         total,
		Risk:              GroupRiskFor(total, rs),
		IsOverLimit:       total.GreaterThan(rs.LimitRate),
	}
}

// GroupRiskFor is HIGH above LimitRate, MEDIUM above WarningRate, else LOW.
func GroupRiskFor(total Rate, rs Ruleset) GroupRisk {
	switch {
	case total.GreaterThan(rs.LimitRate):
		return GroupHigh
	case total.GreaterThan(rs.WarningRate):
		return GroupMedium
	default:
		return GroupLow
	}
}

// =============================================================================
// STATIC RISK MATRIX - A-priori risk between settlement systems
// =============================================================================

// MatrixCell is the a-priori cross-verification risk between two systems.
type MatrixCell struct {
	A      SettlementSystem `json:"a"`
	B      SettlementSystem `json:"b"`
	Risk   GroupRisk        `json:"risk"`
	Reason string           `json:"reason"`
}

// MatrixRow is one row of the reference table.
type MatrixRow struct {
	System SettlementSystem `json:"system"`
	Label  string           `json:"label"`
	Cells  []MatrixCell     `json:"cells"`
}

type systemPair struct{ a, b SettlementSystem }

const sameSystemReason = "동일 시스템: 내부 합산 100% 초과 불가"

// pairRisks lists each unordered pair once. Lookups try both orders.
var pairRisks = map[systemPair]MatrixCell{
	{SystemENARA, SystemRCMS}:        {Risk: GroupMedium, Reason: "국가 연구비 시스템 간 참여율 연계 조회 가능"},
	{SystemENARA, SystemEzbaro}:      {Risk: GroupMedium, Reason: "국가 연구비 시스템 간 참여율 연계 조회 가능"},
	{SystemENARA, SystemIRIS}:        {Risk: GroupMedium, Reason: "국가 연구비 시스템 간 참여율 연계 조회 가능"},
	{SystemRCMS, SystemEzbaro}:       {Risk: GroupMedium, Reason: "연구관리 시스템 간 참여인력 정보 공유"},
	{SystemRCMS, SystemIRIS}:         {Risk: GroupHigh, Reason: "IRIS가 RCMS 참여율을 통합 관리"},
	{SystemEzbaro, SystemIRIS}:       {Risk: GroupHigh, Reason: "IRIS가 이지바로 참여율을 통합 관리"},
	{SystemENARA, SystemAccountant}:  {Risk: GroupLow, Reason: "자동 연계 없음, 감사 시 수동 대조 가능"},
	{SystemRCMS, SystemAccountant}:   {Risk: GroupLow, Reason: "자동 연계 없음, 감사 시 수동 대조 가능"},
	{SystemEzbaro, SystemAccountant}: {Risk: GroupLow, Reason: "자동 연계 없음, 감사 시 수동 대조 가능"},
	{SystemIRIS, SystemAccountant}:   {Risk: GroupLow, Reason: "자동 연계 없음, 감사 시 수동 대조 가능"},
}

// MatrixRisk returns the a-priori risk between two systems. A system
// against itself is always HIGH; pairs involving private, none or unknown
// systems are NONE.
func MatrixRisk(a, b SettlementSystem) MatrixCell {
	if a == b {
		return MatrixCell{A: a, B: b, Risk: GroupHigh, Reason: sameSystemReason}
	}
	cell, ok := pairRisks[systemPair{a, b}]
	if !ok {
		cell, ok = pairRisks[systemPair{b, a}]
	}
	if !ok {
		cell = MatrixCell{Risk: GroupNone, Reason: "교차검증 경로 없음"}
	}
	cell.A, cell.B = a, b
	return cell
}

// RiskMatrix renders the full reference table over every known system
// except NONE.
func RiskMatrix() []MatrixRow {
	var systems []SettlementSystem
	for _, s := range KnownSystems {
		if s != SystemNone {
			systems = append(systems, s)
		}
	}

	rows := make([]MatrixRow, 0, len(systems))
	for _, a := range systems {
		row := MatrixRow{System: a, Label: a.Label(), Cells: make([]MatrixCell, 0, len(systems))}
		for _, b := range systems {
			row.Cells = append(row.Cells, MatrixRisk(a, b))
		}
		rows = append(rows, row)
	}
	return rows
}
