package ratemod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

// testBaseModel builds a small conversion network: S1 -> S2 in
// compartment C1, rate parameter k1, observable and sigma outputs
// defined by assignment rules.
func testBaseModel(t *testing.T) *NetworkModel {
	t.Helper()
	doc := NetworkDocument{
		Name: "conversion",
		Parameters: []ParameterConfig{
			{ID: "k1", Value: 2.0},
			{ID: "k2", Value: 0.1, Constant: true},
			{ID: "observable_obsA"},
			{ID: "sigma_obsA"},
		},
		Compartments: []CompartmentConfig{
			{ID: "C1", Size: 1.0},
		},
		Species: []SpeciesConfig{
			{ID: "S1", Compartment: "C1", InitialConcentration: fptr(5.0)},
			{ID: "S2", Compartment: "C1", InitialAmount: fptr(0), SubstanceUnitsOnly: true},
		},
		Reactions: []ReactionConfig{
			{
				ID:        "r1",
				Reactants: []SpeciesRefConfig{{Species: "S1"}},
				Products:  []SpeciesRefConfig{{Species: "S2"}},
				Law:       &KineticLawConfig{Formula: "k1 * S1 * C1"},
			},
		},
		Rules: []RuleConfig{
			{Target: "observable_obsA", Formula: "S2 * k2"},
			{Target: "sigma_obsA", Formula: "0.1 * observable_obsA"},
		},
		InitialAssignments: []RuleConfig{
			{Target: "S1", Formula: "k2 * 50"},
		},
	}
	m, err := BuildNetworkModel(doc)
	require.NoError(t, err)
	return m
}

func TestBuildConditionModel_Scenario(t *testing.T) {
	base := testBaseModel(t)

	conditions := NewConditionTable().AddRow("cond_A", map[string]Cell{
		"S1": NumberCell(10.0),
		"k1": RefCell("k1_est"),
	})
	parameters := NewParameterTable(
		ParameterRow{ID: "k1_est", NominalValue: 7.5, Estimate: true},
	)
	pm := ParameterMap{"k1": RefCell("k1_est")}

	var warnings []WarningEvent
	got, err := BuildConditionModel(base, "cond_A", pm, conditions, parameters, BuildOptions{
		Warn: func(e WarningEvent) { warnings = append(warnings, e) },
	})
	require.NoError(t, err)

	// overridden parameter resolves through the nominal value
	v, err := got.ParameterValue("k1")
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)

	// species keeps its value kind: concentration in, concentration out
	sp, ok := got.SpeciesByID("S1")
	require.True(t, ok)
	require.NotNil(t, sp.InitialConcentration)
	assert.Equal(t, 10.0, *sp.InitialConcentration)
	assert.Nil(t, sp.InitialAmount)

	// no rule or initial assignment survives on overridden targets
	_, ruled := got.RuleByTarget("k1")
	assert.False(t, ruled)
	_, ruled = got.RuleByTarget("S1")
	assert.False(t, ruled)
	_, assigned := got.InitialAssignmentByTarget("S1")
	assert.False(t, assigned)

	// the removed initial assignment on S1 was reported
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningInitialAssignmentRemoved, warnings[0].Kind)
	assert.Equal(t, "S1", warnings[0].Target)
	assert.Equal(t, "cond_A", warnings[0].ConditionID)

	// the base model is untouched
	v, err = base.ParameterValue("k1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	baseSp, _ := base.SpeciesByID("S1")
	assert.Equal(t, 5.0, *baseSp.InitialConcentration)
	_, assigned = base.InitialAssignmentByTarget("S1")
	assert.True(t, assigned)
}

func TestBuildConditionModel_RuleRemovalWins(t *testing.T) {
	base := testBaseModel(t)
	require.NoError(t, base.AddParameter(Parameter{ID: "derived", Value: 0}))
	require.NoError(t, base.AddRule(AssignmentRule{Target: "derived", Formula: "2 * k1"}))

	pm := ParameterMap{"derived": NumberCell(4.0)}

	var warnings []WarningEvent
	got, err := BuildConditionModel(base, "c1",
		pm, NewConditionTable().AddRow("c1", nil), nil, BuildOptions{
			Warn: func(e WarningEvent) { warnings = append(warnings, e) },
		})
	require.NoError(t, err)

	v, err := got.ParameterValue("derived")
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
	_, ruled := got.RuleByTarget("derived")
	assert.False(t, ruled)

	// an override and a rule must never coexist; removal is reported
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningRuleRemoved, warnings[0].Kind)
	assert.Equal(t, "derived", warnings[0].Target)

	// the rule is still in place on the base model
	_, ruled = base.RuleByTarget("derived")
	assert.True(t, ruled)
}

func TestBuildConditionModel_AmountOnlySpecies(t *testing.T) {
	base := testBaseModel(t)

	conditions := NewConditionTable().AddRow("c1", map[string]Cell{
		"S2": NumberCell(42.0),
	})

	got, err := BuildConditionModel(base, "c1", nil, conditions, nil, BuildOptions{})
	require.NoError(t, err)

	sp, ok := got.SpeciesByID("S2")
	require.True(t, ok)
	require.NotNil(t, sp.InitialAmount)
	assert.Equal(t, 42.0, *sp.InitialAmount)
	assert.Nil(t, sp.InitialConcentration)
}

func TestBuildConditionModel_CompartmentSize(t *testing.T) {
	base := testBaseModel(t)

	conditions := NewConditionTable().AddRow("c1", map[string]Cell{
		"C1": RefCell("vol_est"),
	})
	parameters := NewParameterTable(
		ParameterRow{ID: "vol_est", NominalValue: 3.0, Estimate: true},
	)

	got, err := BuildConditionModel(base, "c1", nil, conditions, parameters, BuildOptions{})
	require.NoError(t, err)

	c, ok := got.CompartmentByID("C1")
	require.True(t, ok)
	assert.Equal(t, 3.0, c.Size)

	baseC, _ := base.CompartmentByID("C1")
	assert.Equal(t, 1.0, baseC.Size)
}

func TestBuildConditionModel_UnresolvedReference(t *testing.T) {
	base := testBaseModel(t)

	pm := ParameterMap{"k1": RefCell("missing_est")}
	got, err := BuildConditionModel(base, "c1", pm,
		NewConditionTable().AddRow("c1", nil), NewParameterTable(), BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedReference))
	assert.Nil(t, got)
}

func TestBuildConditionModel_UnknownCondition(t *testing.T) {
	base := testBaseModel(t)

	_, err := BuildConditionModel(base, "nope", nil,
		NewConditionTable().AddRow("c1", nil), nil, BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEntity))
}

func TestBuildConditionModel_UnknownColumnsSkipped(t *testing.T) {
	base := testBaseModel(t)

	conditions := NewConditionTable().AddRow("c1", map[string]Cell{
		"not_in_model": NumberCell(1.0),
		"S1":           NumberCell(2.5),
	})

	got, err := BuildConditionModel(base, "c1", nil, conditions, nil, BuildOptions{})
	require.NoError(t, err)
	sp, _ := got.SpeciesByID("S1")
	assert.Equal(t, 2.5, *sp.InitialConcentration)
}

func TestModelForCondition_FillsNoisePlaceholders(t *testing.T) {
	base := testBaseModel(t)
	require.NoError(t, base.AddParameter(Parameter{ID: "noiseParameter1_obsA", Value: 1.0}))

	conditions := NewConditionTable().AddRow("cond_A", map[string]Cell{
		"S1": NumberCell(10.0),
	})
	parameters := NewParameterTable(
		ParameterRow{ID: "k1", NominalValue: 7.5, Estimate: false},
	)
	measurements := []MeasurementRow{
		{
			ObservableID:          "obsA",
			SimulationConditionID: "cond_A",
			NoiseParameters:       []Cell{NumberCell(0.2)},
		},
	}

	got, err := ModelForCondition(base, "cond_A", "", measurements, conditions, parameters, BuildOptions{})
	require.NoError(t, err)

	v, err := got.ParameterValue("noiseParameter1_obsA")
	require.NoError(t, err)
	assert.Equal(t, 0.2, v)

	// fixed parameter-table row filled k1 with its nominal value
	v, err = got.ParameterValue("k1")
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)
}

func TestModelForCondition_PreequilibrationSelectsRows(t *testing.T) {
	base := testBaseModel(t)
	require.NoError(t, base.AddParameter(Parameter{ID: "observableParameter1_obsA", Value: 0}))

	conditions := NewConditionTable().AddRow("cond_A", nil)
	measurements := []MeasurementRow{
		{
			ObservableID:                "obsA",
			SimulationConditionID:       "cond_A",
			PreequilibrationConditionID: "preeq_lo",
			ObservableParameters:        []Cell{NumberCell(1.5)},
		},
		{
			ObservableID:                "obsA",
			SimulationConditionID:       "cond_A",
			PreequilibrationConditionID: "preeq_hi",
			ObservableParameters:        []Cell{NumberCell(9.9)},
		},
	}

	// only the row recorded under the requested preequilibration
	// condition may supply the placeholder override
	got, err := ModelForCondition(base, "cond_A", "preeq_lo", measurements, conditions, nil, BuildOptions{})
	require.NoError(t, err)
	v, err := got.ParameterValue("observableParameter1_obsA")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	got, err = ModelForCondition(base, "cond_A", "preeq_hi", measurements, conditions, nil, BuildOptions{})
	require.NoError(t, err)
	v, err = got.ParameterValue("observableParameter1_obsA")
	require.NoError(t, err)
	assert.Equal(t, 9.9, v)
}

func TestBuildConditionModel_SparseRowKeepsRules(t *testing.T) {
	base := testBaseModel(t)
	require.NoError(t, base.AddRule(AssignmentRule{Target: "S1", Formula: "k2 * 30"}))

	// the column is declared but cond_A has no cell for it
	conditions := NewConditionTable("S1").
		AddRow("cond_A", nil).
		AddRow("cond_B", map[string]Cell{"S1": NumberCell(2.5)})

	var warnings []WarningEvent
	got, err := BuildConditionModel(base, "cond_A", nil, conditions, nil, BuildOptions{
		Warn: func(e WarningEvent) { warnings = append(warnings, e) },
	})
	require.NoError(t, err)

	// the entity stays on its document defaults, rules included
	_, ruled := got.RuleByTarget("S1")
	assert.True(t, ruled)
	_, assigned := got.InitialAssignmentByTarget("S1")
	assert.True(t, assigned)
	sp, _ := got.SpeciesByID("S1")
	assert.Equal(t, 5.0, *sp.InitialConcentration)
	assert.Empty(t, warnings)
}

func TestCloneIndependence(t *testing.T) {
	base := testBaseModel(t)
	clone := base.CloneNetwork()

	require.NoError(t, clone.SetParameterValue("k1", 99.0))
	require.NoError(t, clone.SetSpeciesInitialConcentration("S1", 99.0))
	require.NoError(t, clone.SetCompartmentSize("C1", 99.0))
	clone.RemoveRuleByTarget("observable_obsA")
	clone.RemoveParameter("k2")

	v, err := base.ParameterValue("k1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	sp, _ := base.SpeciesByID("S1")
	assert.Equal(t, 5.0, *sp.InitialConcentration)
	c, _ := base.CompartmentByID("C1")
	assert.Equal(t, 1.0, c.Size)
	_, ruled := base.RuleByTarget("observable_obsA")
	assert.True(t, ruled)
	_, ok := base.Parameter("k2")
	assert.True(t, ok)
}
