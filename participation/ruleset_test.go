package participation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/participation-engine/participation"
)

func TestDefaultRuleset_IsValid(t *testing.T) {
	rs := participation.DefaultRuleset()

	require.NoError(t, rs.Validate())
	assert.Equal(t, "80", rs.WarningRate.String())
	assert.Equal(t, "100", rs.LimitRate.String())
}

func TestRuleset_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*participation.Ruleset)
	}{
		{"empty version", func(rs *participation.Ruleset) { rs.Version = "" }},
		{"zero warning", func(rs *participation.Ruleset) { rs.WarningRate = participation.ZeroRate() }},
		{"warning above limit", func(rs *participation.Ruleset) { rs.WarningRate = rate(120) }},
		{"blank keyword", func(rs *participation.Ruleset) { rs.SensitiveOrgKeywords = []string{" "} }},
		{"alias claimed twice", func(rs *participation.Ruleset) {
			rs.OrgAliases["NRF"] = append(rs.OrgAliases["NRF"], "코이카")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := participation.DefaultRuleset()
			tc.mutate(&rs)

			err := rs.Validate()

			assert.ErrorIs(t, err, participation.ErrInvalidRuleset)
		})
	}
}

func TestCanonicalOrg(t *testing.T) {
	rs := participation.DefaultRuleset()

	cases := []struct{ in, want string }{
		{"KOICA", "KOICA"},
		{"koica/ODA 사업", "KOICA"},
		{"한국국제협력단", "KOICA"},
		{"Korea  International Cooperation Agency", "KOICA"},
		{"한국연구재단/기초연구", "NRF"},
		{"Unknown Fund / Branch", "Unknown Fund"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rs.CanonicalOrg(tc.in), tc.in)
	}
}

func TestMatcher_IsSensitive(t *testing.T) {
	rs := participation.DefaultRuleset()
	rs.SensitiveOrgKeywords = append(rs.SensitiveOrgKeywords, "Defense")
	m := rs.Matcher()

	assert.True(t, m.IsSensitive("KOICA"))
	assert.True(t, m.IsSensitive("Agency for DEFENSE Development"))
	assert.False(t, m.IsSensitive("NRF"))
}

func TestRuleset_JSONRoundTrip(t *testing.T) {
	rs := participation.DefaultRuleset()
	rs.WarningRate = rate(75.5)

	data, err := json.Marshal(rs)
	require.NoError(t, err)

	var back participation.Ruleset
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.WarningRate.Equal(rate(75.5)))
	assert.Equal(t, rs.OrgAliases, back.OrgAliases)
}
