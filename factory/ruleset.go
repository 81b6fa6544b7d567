/*
Package factory provides document to Go ruleset conversion.

PURPOSE:
  Converts JSON or YAML ruleset documents into participation.Ruleset values.
  Compliance staff can tune thresholds and organization aliases without a
  code change; every report then carries the document's version.

DOCUMENT SCHEMA (YAML shown, JSON uses the same keys):
  version: "2025.2"
  warning_rate: 80
  limit_rate: 100
  sensitive_org_keywords: [koica]
  org_aliases:
    KOICA: [한국국제협력단, 코이카]
    NRF: [한국연구재단]

DEFAULTS:
  Any key left out takes the value from participation.DefaultRuleset().
  An explicitly empty keyword list or alias map is kept as empty.

USAGE:
  rs, err := factory.LoadRulesetFile("ruleset.yaml")
  rs, err := factory.ParseRuleset(body, factory.FormatJSON)

SEE ALSO:
  - participation/ruleset.go: Ruleset type and validation
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warp/participation-engine/participation"
)

// Supported document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// RulesetJSON is the document representation of a ruleset. Pointer and nil
// fields mean "not set" and fall back to defaults.
type RulesetJSON struct {
	Version              string              `json:"version,omitempty" yaml:"version,omitempty"`
	WarningRate          *float64            `json:"warning_rate,omitempty" yaml:"warning_rate,omitempty"`
	LimitRate            *float64            `json:"limit_rate,omitempty" yaml:"limit_rate,omitempty"`
	SensitiveOrgKeywords []string            `json:"sensitive_org_keywords,omitempty" yaml:"sensitive_org_keywords,omitempty"`
	OrgAliases           map[string][]string `json:"org_aliases,omitempty" yaml:"org_aliases,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRuleset decodes a document in the given format, applies defaults and
// validates the result.
func ParseRuleset(data []byte, format string) (participation.Ruleset, error) {
	var rj RulesetJSON
	switch strings.ToLower(format) {
	case FormatJSON:
		if err := json.Unmarshal(data, &rj); err != nil {
			return participation.Ruleset{}, fmt.Errorf("failed to parse ruleset JSON: %w", err)
		}
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, &rj); err != nil {
			return participation.Ruleset{}, fmt.Errorf("failed to parse ruleset YAML: %w", err)
		}
	default:
		return participation.Ruleset{}, fmt.Errorf("unsupported ruleset format %q", format)
	}
	return FromJSON(rj)
}

// LoadRulesetFile reads a ruleset document, choosing the format by extension.
func LoadRulesetFile(path string) (participation.Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return participation.Ruleset{}, fmt.Errorf("failed to read ruleset: %w", err)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	rs, err := ParseRuleset(data, format)
	if err != nil {
		return participation.Ruleset{}, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// FromJSON converts a decoded document into a validated Ruleset.
func FromJSON(rj RulesetJSON) (participation.Ruleset, error) {
	rs := participation.DefaultRuleset()

	if v := strings.TrimSpace(rj.Version); v != "" {
		rs.Version = v
	}
	if rj.WarningRate != nil {
		r, err := participation.RateFromFloat(*rj.WarningRate)
		if err != nil {
			return participation.Ruleset{}, &participation.RulesetError{Field: "warningRate", Reason: "must be a finite number"}
		}
		rs.WarningRate = r
	}
	if rj.LimitRate != nil {
		r, err := participation.RateFromFloat(*rj.LimitRate)
		if err != nil {
			return participation.Ruleset{}, &participation.RulesetError{Field: "limitRate", Reason: "must be a finite number"}
		}
		rs.LimitRate = r
	}
	if rj.SensitiveOrgKeywords != nil {
		rs.SensitiveOrgKeywords = append([]string{}, rj.SensitiveOrgKeywords...)
	}
	if rj.OrgAliases != nil {
		rs.OrgAliases = make(map[string][]string, len(rj.OrgAliases))
		for canonical, aliases := range rj.OrgAliases {
			rs.OrgAliases[canonical] = append([]string{}, aliases...)
		}
	}

	if err := rs.Validate(); err != nil {
		return participation.Ruleset{}, err
	}
	return rs, nil
}

// ToJSON converts a Ruleset back into its document form.
func ToJSON(rs participation.Ruleset) RulesetJSON {
	warning := rs.WarningRate.Float64()
	limit := rs.LimitRate.Float64()
	return RulesetJSON{
		Version:              rs.Version,
		WarningRate:          &warning,
		LimitRate:            &limit,
		SensitiveOrgKeywords: append([]string{}, rs.SensitiveOrgKeywords...),
		OrgAliases:           rs.OrgAliases,
	}
}
