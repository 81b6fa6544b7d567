package participation

import (
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// RULESET - Versioned thresholds and organization-matching rules
// =============================================================================

// DefaultRulesetVersion identifies the built-in thresholds.
const DefaultRulesetVersion = "2025.1"

// Ruleset parameterizes classification. Every report embeds Version so two
// reports built under different rules are never compared as equivalent.
type Ruleset struct {
	Version     string `json:"version"`
	WarningRate Rate   `json:"warningRate"`
	LimitRate   Rate   `json:"limitRate"`

	// SensitiveOrgKeywords are case-insensitive substrings of canonical
	// organization names whose over-limit settlement is always DANGER.
	SensitiveOrgKeywords []string `json:"sensitiveOrgKeywords"`

	// OrgAliases maps a canonical organization name to the other names the
	// same organization appears under in funding records.
	OrgAliases map[string][]string `json:"orgAliases"`
}

// DefaultRuleset returns the fixed default thresholds.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Version:              DefaultRulesetVersion,
		WarningRate:          NewRateFromInt(80),
		LimitRate:            NewRateFromInt(100),
		SensitiveOrgKeywords: []string{"koica"},
		OrgAliases: map[string][]string{
			"KOICA": {"한국국제협력단", "코이카", "Korea International Cooperation Agency"},
			"NRF":   {"한국연구재단", "National Research Foundation of Korea"},
			"IITP":  {"정보통신기획평가원"},
			"KEIT":  {"한국산업기술평가관리원"},
			"NIPA":  {"정보통신산업진흥원"},
		},
	}
}

// Validate checks threshold consistency and alias uniqueness.
func (rs Ruleset) Validate() error {
	if strings.TrimSpace(rs.Version) == "" {
		return &RulesetError{Field: "version", Reason: "is required"}
	}
	if !rs.WarningRate.IsPositive() {
		return &RulesetError{Field: "warningRate", Reason: "must be positive"}
	}
	if !rs.LimitRate.IsPositive() {
		return &RulesetError{Field: "limitRate", Reason: "must be positive"}
	}
	if rs.WarningRate.GreaterThan(rs.LimitRate) {
		return &RulesetError{Field: "warningRate", Reason: "must not exceed limitRate"}
	}
	for _, kw := range rs.SensitiveOrgKeywords {
		if strings.TrimSpace(kw) == "" {
			return &RulesetError{Field: "sensitiveOrgKeywords", Reason: "contains an empty keyword"}
		}
	}

	owner := make(map[string]string)
	for _, canonical := range rs.canonicalNames() {
		names := append([]string{canonical}, rs.OrgAliases[canonical]...)
		for _, name := range names {
			key := orgKey(name)
			if key == "" {
				return &RulesetError{Field: "orgAliases", Reason: "contains an empty name for " + canonical}
			}
			if prev, ok := owner[key]; ok && prev != canonical {
				return &RulesetError{Field: "orgAliases", Reason: name + " is claimed by both " + prev + " and " + canonical}
			}
			owner[key] = canonical
		}
	}
	return nil
}

// =============================================================================
// ORGANIZATION MATCHING
// =============================================================================

// OrgMatcher resolves funding-organization text to a canonical name.
// Build one per aggregation pass with Ruleset.Matcher.
type OrgMatcher struct {
	index    map[string]string
	keywords []string
}

// Matcher builds the alias index and keyword list.
func (rs Ruleset) Matcher() OrgMatcher {
	m := OrgMatcher{index: make(map[string]string)}
	for _, canonical := range rs.canonicalNames() {
		if _, taken := m.index[orgKey(canonical)]; !taken {
			m.index[orgKey(canonical)] = canonical
		}
		for _, alias := range rs.OrgAliases[canonical] {
			if _, taken := m.index[orgKey(alias)]; !taken {
				m.index[orgKey(alias)] = canonical
			}
		}
	}
	for _, kw := range rs.SensitiveOrgKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			m.keywords = append(m.keywords, kw)
		}
	}
	return m
}

// Canonical takes the text before the first "/" and collapses known aliases.
// Unmatched names are returned trimmed and otherwise unchanged.
func (m OrgMatcher) Canonical(fundingOrg string) string {
	name := fundingOrg
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if canonical, ok := m.index[orgKey(name)]; ok {
		return canonical
	}
	return name
}

// IsSensitive reports whether a canonical name contains a sensitive keyword.
func (m OrgMatcher) IsSensitive(canonical string) bool {
	lower := strings.ToLower(canonical)
	for _, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CanonicalOrg is a convenience for one-off lookups.
func (rs Ruleset) CanonicalOrg(fundingOrg string) string {
	return rs.Matcher().Canonical(fundingOrg)
}

// canonicalNames returns alias-table keys in sorted order so that conflicting
// aliases always resolve the same way.
func (rs Ruleset) canonicalNames() []string {
	names := make([]string, 0, len(rs.OrgAliases))
	for name := range rs.OrgAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// orgKey lowercases and drops whitespace: "Korea  International" == "koreainternational".
func orgKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
