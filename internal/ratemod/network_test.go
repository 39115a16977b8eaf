package ratemod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkModel_ParameterIDsExcludeRuleTargets(t *testing.T) {
	m := testBaseModel(t)

	ids := m.ParameterIDs()
	assert.ElementsMatch(t, []string{"k1", "k2"}, ids)
}

func TestNetworkModel_ParameterValue(t *testing.T) {
	m := testBaseModel(t)

	v, err := m.ParameterValue("k1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = m.ParameterValue("S1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEntity))
}

func TestNetworkModel_ExistenceQueries(t *testing.T) {
	m := testBaseModel(t)

	assert.True(t, m.HasSpecies("S1"))
	assert.False(t, m.HasSpecies("k1"))
	assert.True(t, m.HasCompartment("C1"))
	assert.False(t, m.HasCompartment("S1"))

	assert.True(t, m.HasEntity("k1"))
	assert.True(t, m.HasEntity("S2"))
	assert.True(t, m.HasEntity("C1"))
	assert.True(t, m.HasEntity("r1"))
	assert.False(t, m.HasEntity("ghost"))
}

func TestNetworkModel_ValidParameterTableIDs(t *testing.T) {
	m := testBaseModel(t)
	require.NoError(t, m.AddParameter(Parameter{ID: "observable_raw", Value: 1}))

	ids := m.ValidParameterTableIDs()
	assert.ElementsMatch(t, []string{"k1", "k2"}, ids)
}

func TestNetworkModel_ValidConditionTableIDs(t *testing.T) {
	m := testBaseModel(t)

	ids := m.ValidConditionTableIDs()
	assert.ElementsMatch(t, []string{"S1", "S2", "C1", "k1", "k2"}, ids)
}

func TestNetworkModel_SymbolAllowedInFormula(t *testing.T) {
	m := testBaseModel(t)

	assert.True(t, m.SymbolAllowedInFormula("k1"))
	assert.True(t, m.SymbolAllowedInFormula("observable_obsA"))
	assert.True(t, m.SymbolAllowedInFormula("S1"))
	assert.True(t, m.SymbolAllowedInFormula("C1"))
	assert.False(t, m.SymbolAllowedInFormula("r1"))
	assert.False(t, m.SymbolAllowedInFormula("ghost"))
}

func TestNetworkModel_RuleUniquenessPerTarget(t *testing.T) {
	m := testBaseModel(t)

	err := m.AddRule(AssignmentRule{Target: "observable_obsA", Formula: "S1"})
	require.Error(t, err)

	require.NoError(t, m.AddInitialAssignment(InitialAssignment{Target: "S2", Formula: "k1"}))
	err = m.AddInitialAssignment(InitialAssignment{Target: "S2", Formula: "k2"})
	require.Error(t, err)
}

func TestNetworkModel_CheckReportsUnknownSymbols(t *testing.T) {
	m := testBaseModel(t)
	assert.True(t, m.IsValid())

	require.NoError(t, m.AddParameter(Parameter{ID: "broken", Value: 0}))
	require.NoError(t, m.AddRule(AssignmentRule{Target: "broken", Formula: "ghost + 1"}))

	assert.False(t, m.IsValid())
	issues := m.Check()
	require.NotNil(t, issues)
	assert.Contains(t, issues.Error(), "ghost")
}

func TestNetworkModel_KineticLawUsesLocalParameters(t *testing.T) {
	doc := NetworkDocument{
		Name:         "loc",
		Compartments: []CompartmentConfig{{ID: "c", Size: 1}},
		Species:      []SpeciesConfig{{ID: "A", Compartment: "c", InitialAmount: fptr(1)}},
		Reactions: []ReactionConfig{
			{
				ID:        "deg",
				Reactants: []SpeciesRefConfig{{Species: "A"}},
				Law: &KineticLawConfig{
					Formula:         "kdeg * A",
					LocalParameters: []LocalParameterConfig{{ID: "kdeg", Value: 0.5}},
				},
			},
		},
	}
	m, err := BuildNetworkModel(doc)
	require.NoError(t, err)

	// kdeg resolves against the kinetic law's local parameters
	assert.True(t, m.IsValid())
}
