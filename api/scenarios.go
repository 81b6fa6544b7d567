/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built assignment snapshots that show each risk rule firing.
	Loading a scenario replaces the whole snapshot in the store.

AVAILABLE SCENARIOS:

	koica-danger:        Sensitive organization settled over the limit (DANGER)
	national-over-limit: Sub-agency systems summing over 100% (DANGER)
	cross-system:        National + accountant over the limit (WARNING)
	period-slices:       One project split across the year (WARNING at 100%)
	capacity-only:       Every group inside its limit, total over 100% (WARNING)
	mixed-team:          All of the above plus safe members, for the report view

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mixed-team"}

ADDING NEW SCENARIOS:
 1. Add an entry to 'scenarios' with ID, name, description and builder
 2. The builder returns the snapshot; LoadScenario does the rest

NOTE:

	Scenarios replace all assignments. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and helpers
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/warp/participation-engine/participation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	build func() []participation.Assignment
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "koica-danger",
			Name:        "KOICA Over Limit",
			Description: "Two accountant-settled KOICA projects under different names summing to 120%",
			Expected:    string(participation.RiskDanger),
		},
		build: koicaDangerScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "national-over-limit",
			Name:        "National Systems Over Limit",
			Description: "RCMS and IRIS projects summing to 110% inside the national family",
			Expected:    string(participation.RiskDanger),
		},
		build: nationalOverLimitScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "cross-system",
			Name:        "Cross-System Overlap",
			Description: "e나라도움 60% plus accountant-settled 50%, not machine cross-checked",
			Expected:    string(participation.RiskWarning),
		},
		build: crossSystemScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "period-slices",
			Name:        "Period Slices",
			Description: "One RCMS project split into two half-year slices, summed additively",
			Expected:    string(participation.RiskWarning),
		},
		build: periodSlicesScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "capacity-only",
			Name:        "Capacity Only",
			Description: "Every verification group within limits but 130% total commitment",
			Expected:    string(participation.RiskWarning),
		},
		build: capacityOnlyScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "mixed-team",
			Name:        "Mixed Team",
			Description: "A team combining every scenario with safe members",
		},
		build: mixedTeamScenario,
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the snapshot with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var found *scenario
	for i := range scenarios {
		if scenarios[i].ID == req.ScenarioID {
			found = &scenarios[i]
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "Scenario not found", fmt.Errorf("unknown scenario %q", req.ScenarioID))
		return
	}

	now := h.Now()
	as := found.build()
	for i := range as {
		as[i].UpdatedAt = now
	}
	if err := h.Store.ReplaceAll(r.Context(), as); err != nil {
		h.internalError(w, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = found.ID
	h.mu.Unlock()

	h.Log.Info().Str("scenario", found.ID).Int("assignments", len(as)).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario":    found.ScenarioDTO,
		"assignments": len(as),
	})
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

// entry is a compact assignment constructor for the builders below.
func entry(id, member, name, project string, rate int64, sys participation.SettlementSystem, org string) participation.Assignment {
	return participation.Assignment{
		ID:                 participation.AssignmentID(id),
		MemberID:           participation.MemberID(member),
		MemberDisplayName:  name,
		ProjectID:          participation.ProjectID(project),
		ProjectDisplayName: projectNames[project],
		Rate:               participation.NewRateFromInt(rate),
		SettlementSystem:   sys,
		FundingOrg:         org,
		PeriodStart:        "2025-01",
		PeriodEnd:          "2025-12",
	}
}

var projectNames = map[string]string{
	"oda-edu":    "ODA 교육 역량강화",
	"oda-health": "ODA 보건의료 협력",
	"ai-core":    "AI 핵심기술 개발",
	"ai-infra":   "AI 인프라 고도화",
	"bio-data":   "바이오 데이터 플랫폼",
	"smart-farm": "스마트팜 실증",
	"csr":        "민간 CSR 컨설팅",
	"ops":        "사내 운영",
}

func koicaDangerScenario() []participation.Assignment {
	return []participation.Assignment{
		entry("kd-1", "kim", "김민수(민수)", "oda-edu", 90, participation.SystemAccountant, "KOICA"),
		entry("kd-2", "kim", "김민수(민수)", "oda-health", 30, participation.SystemAccountant, "한국국제협력단/보건사업부"),
	}
}

func nationalOverLimitScenario() []participation.Assignment {
	return []participation.Assignment{
		entry("no-1", "lee", "이서연", "ai-core", 70, participation.SystemRCMS, "IITP"),
		entry("no-2", "lee", "이서연", "bio-data", 40, participation.SystemIRIS, "한국연구재단"),
	}
}

func crossSystemScenario() []participation.Assignment {
	return []participation.Assignment{
		entry("cs-1", "park", "박지훈(지훈)", "smart-farm", 60, participation.SystemENARA, "농림식품기술기획평가원"),
		entry("cs-2", "park", "박지훈(지훈)", "oda-edu", 50, participation.SystemAccountant, "Gates Foundation"),
	}
}

func periodSlicesScenario() []participation.Assignment {
	first := entry("ps-1", "choi", "최유진", "ai-infra", 50, participation.SystemRCMS, "NIPA")
	first.PeriodEnd = "2025-06"
	second := entry("ps-2", "choi", "최유진", "ai-infra", 50, participation.SystemRCMS, "정보통신산업진흥원")
	second.PeriodStart = "2025-07"
	return []participation.Assignment{first, second}
}

func capacityOnlyScenario() []participation.Assignment {
	return []participation.Assignment{
		entry("co-1", "jung", "정하늘", "ai-core", 60, participation.SystemEzbaro, ""),
		entry("co-2", "jung", "정하늘", "csr", 50, participation.SystemPrivate, "Acme"),
		entry("co-3", "jung", "정하늘", "ops", 20, participation.SystemNone, ""),
	}
}

func mixedTeamScenario() []participation.Assignment {
	var as []participation.Assignment
	as = append(as, koicaDangerScenario()...)
	as = append(as, nationalOverLimitScenario()...)
	as = append(as, crossSystemScenario()...)
	as = append(as, periodSlicesScenario()...)
	as = append(as, capacityOnlyScenario()...)
	as = append(as,
		entry("mt-1", "han", "한지민(지민)", "csr", 40, participation.SystemPrivate, "Acme"),
		entry("mt-2", "han", "한지민(지민)", "bio-data", 30, participation.SystemIRIS, "NRF"),
		entry("mt-3", "yoon", "윤도현", "ops", 100, participation.SystemNone, ""),
	)
	return as
}
