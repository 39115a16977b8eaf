package ratemod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRuleNetModel(t *testing.T) *RuleNetModel {
	t.Helper()
	doc := RuleNetDocument{
		Name: "binding",
		Monomers: []MonomerConfig{
			{Name: "L", Sites: []string{"b"}},
			{Name: "R", Sites: []string{"b"}},
		},
		Parameters: []ParameterConfig{
			{ID: "kon", Value: 0.01},
			{ID: "koff", Value: 0.1},
		},
		Rules: []ReactionRuleConfig{
			{Name: "bind", Rule: "L(b) + R(b) <-> L(b=1) % R(b=1)", Rate: "kon"},
		},
		Observables: []ObservableConfig{
			{Name: "LR", Pattern: "L(b=1) % R(b=1)"},
		},
		Expressions: []ExpressionConfig{
			{Name: "total_L", Formula: "L_free + LR"},
		},
	}
	data, err := (&RuleNetModel{doc: doc}).Serialize()
	require.NoError(t, err)
	m, err := LoadRuleNetModel(data)
	require.NoError(t, err)
	return m
}

func TestRuleNetModel_Parameters(t *testing.T) {
	m := testRuleNetModel(t)

	assert.Equal(t, []string{"kon", "koff"}, m.ParameterIDs())

	v, err := m.ParameterValue("kon")
	require.NoError(t, err)
	assert.Equal(t, 0.01, v)

	_, err = m.ParameterValue("LR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEntity))
}

func TestRuleNetModel_NoSpeciesConcepts(t *testing.T) {
	m := testRuleNetModel(t)

	// species are implicit in a rule network: queries degrade to false
	assert.False(t, m.HasSpecies("L"))
	assert.False(t, m.HasCompartment("L"))

	// but the component itself is a known entity
	assert.True(t, m.HasEntity("L"))
	assert.True(t, m.HasEntity("bind"))
	assert.True(t, m.HasEntity("LR"))
	assert.False(t, m.HasEntity("ghost"))
}

func TestRuleNetModel_TableIDs(t *testing.T) {
	m := testRuleNetModel(t)

	// every parameter is allowed in both tables for this variant
	assert.Equal(t, []string{"kon", "koff"}, m.ValidParameterTableIDs())
	assert.Equal(t, []string{"kon", "koff"}, m.ValidConditionTableIDs())
}

func TestRuleNetModel_SymbolAllowedInFormula(t *testing.T) {
	m := testRuleNetModel(t)

	assert.True(t, m.SymbolAllowedInFormula("kon"))
	assert.True(t, m.SymbolAllowedInFormula("LR"))
	assert.True(t, m.SymbolAllowedInFormula("total_L"))
	// monomers and rules are not formula symbols
	assert.False(t, m.SymbolAllowedInFormula("L"))
	assert.False(t, m.SymbolAllowedInFormula("bind"))
}

func TestRuleNetModel_AlwaysValid(t *testing.T) {
	m := testRuleNetModel(t)
	assert.True(t, m.IsValid())
}

func TestRuleNetModel_CloneAndRoundTrip(t *testing.T) {
	m := testRuleNetModel(t)

	clone, ok := m.Clone().(*RuleNetModel)
	require.True(t, ok)
	clone.doc.Parameters[0].Value = 99

	v, err := m.ParameterValue("kon")
	require.NoError(t, err)
	assert.Equal(t, 0.01, v)

	data, err := m.Serialize()
	require.NoError(t, err)
	loaded, err := LoadRuleNetModel(data)
	require.NoError(t, err)
	assert.Equal(t, m.doc, loaded.doc)
}

func TestLoadRuleNetModel_Errors(t *testing.T) {
	_, err := LoadRuleNetModel([]byte("garbage"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))

	_, err = LoadRuleNetModel([]byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))

	// duplicate component names share one namespace
	_, err = LoadRuleNetModel([]byte(`{"name":"m","monomers":[{"name":"A"}],"parameters":[{"id":"A","value":1}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoad))
}
