package ratemod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRules_NonDestructiveIsIdempotent(t *testing.T) {
	m := testBaseModel(t)

	first := ExtractRules(m, IsObservableParameter, false)
	second := ExtractRules(m, IsObservableParameter, false)

	assert.Equal(t, first, second)
	require.Contains(t, first, "observable_obsA")
	assert.Equal(t, "S2 * k2", first["observable_obsA"].Formula)

	// the model is unchanged
	_, ok := m.Parameter("observable_obsA")
	assert.True(t, ok)
	_, ruled := m.RuleByTarget("observable_obsA")
	assert.True(t, ruled)
}

func TestExtractRules_RemoveDeletesRuleAndParameter(t *testing.T) {
	m := testBaseModel(t)

	extracted := ExtractRules(m, IsSigmaParameter, true)
	require.Contains(t, extracted, "sigma_obsA")

	_, ok := m.Parameter("sigma_obsA")
	assert.False(t, ok)
	_, ruled := m.RuleByTarget("sigma_obsA")
	assert.False(t, ruled)
	assert.False(t, m.HasEntity("sigma_obsA"))

	// unrelated rules survived
	_, ruled = m.RuleByTarget("observable_obsA")
	assert.True(t, ruled)
}

func TestExtractRules_SkipsNonParameterTargets(t *testing.T) {
	m := testBaseModel(t)
	// a rule on a species must not show up in parameter-rule extraction
	require.NoError(t, m.AddRule(AssignmentRule{Target: "S1", Formula: "k1 * 2"}))

	extracted := ExtractRules(m, nil, false)
	assert.NotContains(t, extracted, "S1")
	assert.Contains(t, extracted, "observable_obsA")
	assert.Contains(t, extracted, "sigma_obsA")
}

func TestSigmas_RenormalizesKeys(t *testing.T) {
	m := testBaseModel(t)

	sigmas := Sigmas(m, false)
	require.Contains(t, sigmas, "observable_obsA")
	assert.NotContains(t, sigmas, "sigma_obsA")
	assert.Equal(t, "0.1 * observable_obsA", sigmas["observable_obsA"])
}

func TestObservables(t *testing.T) {
	m := testBaseModel(t)

	obs := Observables(m, false)
	require.Len(t, obs, 1)
	assert.Equal(t, "S2 * k2", obs["observable_obsA"].Formula)
}

func TestAddModelOutputWithSigma(t *testing.T) {
	m := testBaseModel(t)

	var warnings []WarningEvent
	sink := func(e WarningEvent) { warnings = append(warnings, e) }

	require.NoError(t, AddModelOutputWithSigma(m, "obsB", "S1 * k1", "output B", sink))

	rule, ok := m.RuleByTarget("observable_obsB")
	require.True(t, ok)
	assert.Equal(t, "S1 * k1", rule.Formula)
	p, ok := m.Parameter("observable_obsB")
	require.True(t, ok)
	assert.Equal(t, "output B", p.Name)

	rule, ok = m.RuleByTarget("sigma_obsB")
	require.True(t, ok)
	assert.Equal(t, "noiseParameter1_obsB", rule.Formula)
	_, ok = m.Parameter("noiseParameter1_obsB")
	assert.True(t, ok)

	// one deprecation per top-level helper call
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningDeprecated, warnings[0].Kind)
}

func TestCreateAssignmentRule_RejectsDuplicateTarget(t *testing.T) {
	m := testBaseModel(t)

	err := CreateAssignmentRule(m, "observable_obsA", "S1", nil)
	require.Error(t, err)
}

func TestGlobalizeParameters(t *testing.T) {
	doc := NetworkDocument{
		Name:         "local-params",
		Compartments: []CompartmentConfig{{ID: "c", Size: 1}},
		Species: []SpeciesConfig{
			{ID: "A", Compartment: "c", InitialAmount: fptr(1)},
		},
		Reactions: []ReactionConfig{
			{
				ID:        "deg",
				Reactants: []SpeciesRefConfig{{Species: "A"}},
				Law: &KineticLawConfig{
					Formula:         "kdeg * A",
					LocalParameters: []LocalParameterConfig{{ID: "kdeg", Value: 0.3}},
				},
			},
		},
	}
	m, err := BuildNetworkModel(doc)
	require.NoError(t, err)

	require.NoError(t, GlobalizeParameters(m, true, nil))

	p, ok := m.Parameter("deg_kdeg")
	require.True(t, ok)
	assert.Equal(t, 0.3, p.Value)
	assert.True(t, p.Constant)

	reactions := m.Reactions()
	require.Len(t, reactions, 1)
	assert.Empty(t, reactions[0].Law.LocalParameters)
}
