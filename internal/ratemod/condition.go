package ratemod

import "fmt"

// BuildOptions tunes BuildConditionModel.
type BuildOptions struct {
	// Warn receives a non-fatal event for every rule or initial
	// assignment removed to make room for an override. Nil discards.
	Warn WarningSink
}

// BuildConditionModel derives a condition-specific model instance from
// a base model plus resolved overrides. The base model is cloned first
// and never mutated; all overrides are applied to the clone:
//
//  1. every parameter present in parameterMap gets its resolved value
//     (a literal, or the nominal value of the referenced estimated
//     parameter) and loses any assignment rule or initial assignment
//     targeting it;
//  2. every condition-table column naming a species of the model gets
//     the resolved override as its initial amount or concentration,
//     preserving the kind the species already uses;
//  3. every column naming a compartment gets the resolved override as
//     its size.
//
// Columns naming no species and no compartment of the model are
// skipped. Every rule removal is reported through opts.Warn, since an
// override silently shadowed by a rule could mask a modeling error.
//
// A reference with no row in the parameter table fails with
// ErrUnresolvedReference; on any failure no model is returned and the
// partially overridden clone is discarded.
func BuildConditionModel(
	base *NetworkModel,
	conditionID string,
	parameterMap ParameterMap,
	conditions *ConditionTable,
	parameters *ParameterTable,
	opts BuildOptions,
) (*NetworkModel, error) {
	if conditions != nil && !conditions.HasRow(conditionID) {
		return nil, fmt.Errorf("condition %q: %w", conditionID, ErrUnknownEntity)
	}

	resolve := func(cell Cell) (float64, error) {
		if !cell.IsRef() {
			return cell.Number, nil
		}
		if parameters != nil {
			if v, ok := parameters.NominalValue(cell.Ref); ok {
				return v, nil
			}
		}
		return 0, fmt.Errorf("parameter %q has no nominal value: %w", cell.Ref, ErrUnresolvedReference)
	}

	clone := base.CloneNetwork()

	warnRemoval := func(target string) {
		if clone.RemoveRuleByTarget(target) {
			event := NewWarningEvent(WarningRuleRemoved, target,
				fmt.Sprintf("an assignment rule was removed to set the component %s to a constant value", target))
			event.ModelName = clone.Name()
			event.ConditionID = conditionID
			emitWarning(opts.Warn, event)
		}
		if clone.RemoveInitialAssignment(target) {
			event := NewWarningEvent(WarningInitialAssignmentRemoved, target,
				fmt.Sprintf("an initial assignment was removed to set the component %s to a constant value", target))
			event.ModelName = clone.Name()
			event.ConditionID = conditionID
			emitWarning(opts.Warn, event)
		}
	}

	// step 2: parameter values from the mapping
	for _, p := range clone.Parameters() {
		cell, ok := parameterMap[p.ID]
		if !ok {
			continue
		}
		value, err := resolve(cell)
		if err != nil {
			return nil, err
		}
		if err := clone.SetParameterValue(p.ID, value); err != nil {
			return nil, err
		}
		warnRemoval(p.ID)
	}

	if conditions == nil {
		return clone, nil
	}

	// step 3: species initial values from the condition table
	for _, column := range conditions.Columns() {
		sp, ok := clone.SpeciesByID(column)
		if !ok {
			continue
		}

		// a sparse row keeps the entity on its document default,
		// rules included
		cell, ok := conditions.Cell(conditionID, column)
		if !ok {
			continue
		}

		warnRemoval(column)

		value, err := resolve(cell)
		if err != nil {
			return nil, err
		}

		if sp.InitialAmount != nil ||
			(sp.SubstanceUnitsOnly && sp.InitialConcentration == nil) {
			err = clone.SetSpeciesInitialAmount(column, value)
		} else {
			err = clone.SetSpeciesInitialConcentration(column, value)
		}
		if err != nil {
			return nil, err
		}
	}

	// step 4: compartment sizes from the condition table
	for _, column := range conditions.Columns() {
		if _, ok := clone.CompartmentByID(column); !ok {
			continue
		}

		cell, ok := conditions.Cell(conditionID, column)
		if !ok {
			continue
		}

		warnRemoval(column)

		value, err := resolve(cell)
		if err != nil {
			return nil, err
		}
		if err := clone.SetCompartmentSize(column, value); err != nil {
			return nil, err
		}
	}

	return clone, nil
}

// ModelForCondition runs the parameter mapper and the condition model
// builder for one condition of a full problem: the serialized result
// reflects the condition's overrides with estimated parameters set to
// their nominal values. The preequilibrationConditionID, when set,
// narrows the measurement rows considered for output-parameter
// mapping to those recorded under that preequilibration setting;
// preequilibration itself is not encoded in the result.
func ModelForCondition(
	base *NetworkModel,
	conditionID string,
	preequilibrationConditionID string,
	measurements []MeasurementRow,
	conditions *ConditionTable,
	parameters *ParameterTable,
	opts BuildOptions,
) (*NetworkModel, error) {
	relevant := make([]MeasurementRow, 0, len(measurements))
	for _, row := range measurements {
		if row.SimulationConditionID != conditionID {
			continue
		}
		if preequilibrationConditionID != "" && row.PreequilibrationConditionID != preequilibrationConditionID {
			continue
		}
		relevant = append(relevant, row)
	}

	pm, _, err := MapCondition(conditionID, false, relevant, base, conditions, parameters, DefaultMapOptions())
	if err != nil {
		return nil, err
	}
	return BuildConditionModel(base, conditionID, pm, conditions, parameters, opts)
}
