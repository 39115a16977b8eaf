package ratemod

import "fmt"

// ParameterMap resolves every model parameter id to either a literal
// value or a reference to an estimated parameter id (Cell.Ref).
type ParameterMap map[string]Cell

// ScaleMap carries the declared scale for every mapped parameter.
type ScaleMap map[string]string

// MapOptions tunes MapCondition.
type MapOptions struct {
	// FillFixedParameters resolves references to non-estimated
	// parameter-table rows into their nominal values.
	FillFixedParameters bool
}

// DefaultMapOptions returns the options used by the server surface.
func DefaultMapOptions() MapOptions {
	return MapOptions{FillFixedParameters: true}
}

// MapCondition resolves the parameter mapping for one experimental
// condition: every free model parameter maps to a literal value or to
// an estimated-parameter reference. Precedence per parameter:
// condition-table override, then parameter-table row, then the model's
// own value. Measurement rows matching the condition fill the
// observable/noise placeholder parameters, when the model declares
// them.
//
// Only the resulting ParameterMap shape is relied upon by the
// condition model builder; the ScaleMap is carried for callers that
// transform estimated values.
func MapCondition(
	conditionID string,
	preequilibration bool,
	measurements []MeasurementRow,
	model Model,
	conditions *ConditionTable,
	parameters *ParameterTable,
	opts MapOptions,
) (ParameterMap, ScaleMap, error) {
	if conditions != nil && !conditions.HasRow(conditionID) {
		return nil, nil, fmt.Errorf("condition %q: %w", conditionID, ErrUnknownEntity)
	}

	pm := make(ParameterMap)
	sm := make(ScaleMap)

	assign := func(id string, cell Cell) {
		cell = fillFixed(cell, parameters, opts)
		pm[id] = cell
		if cell.IsRef() && parameters != nil {
			sm[id] = parameters.Scale(cell.Ref)
		} else {
			sm[id] = ScaleLinear
		}
	}

	for _, id := range model.ParameterIDs() {
		if conditions != nil {
			if cell, ok := conditions.Cell(conditionID, id); ok {
				assign(id, cell)
				continue
			}
		}
		if parameters != nil {
			if row, ok := parameters.Row(id); ok {
				if row.Estimate {
					assign(id, RefCell(id))
				} else {
					assign(id, NumberCell(row.NominalValue))
				}
				continue
			}
		}
		value, err := model.ParameterValue(id)
		if err != nil {
			return nil, nil, err
		}
		assign(id, NumberCell(value))
	}

	// measurement-specific output/noise parameter overrides fill the
	// placeholder parameters, e.g. observableParameter1_obsA
	for _, row := range measurements {
		if !measurementMatches(row, conditionID, preequilibration) {
			continue
		}
		fillPlaceholders(pm, sm, model, parameters, "observableParameter", row.ObservableID, row.ObservableParameters, opts)
		fillPlaceholders(pm, sm, model, parameters, "noiseParameter", row.ObservableID, row.NoiseParameters, opts)
	}

	return pm, sm, nil
}

func measurementMatches(row MeasurementRow, conditionID string, preequilibration bool) bool {
	if preequilibration {
		return row.PreequilibrationConditionID == conditionID
	}
	return row.SimulationConditionID == conditionID
}

func fillFixed(cell Cell, parameters *ParameterTable, opts MapOptions) Cell {
	if !cell.IsRef() || !opts.FillFixedParameters || parameters == nil {
		return cell
	}
	row, ok := parameters.Row(cell.Ref)
	if !ok || row.Estimate {
		return cell
	}
	return NumberCell(row.NominalValue)
}

func fillPlaceholders(pm ParameterMap, sm ScaleMap, model Model, parameters *ParameterTable, prefix, observableID string, cells []Cell, opts MapOptions) {
	for i, cell := range cells {
		id := fmt.Sprintf("%s%d_%s", prefix, i+1, observableID)
		if !model.HasEntity(id) {
			continue
		}
		cell = fillFixed(cell, parameters, opts)
		pm[id] = cell
		if cell.IsRef() && parameters != nil {
			sm[id] = parameters.Scale(cell.Ref)
		} else {
			sm[id] = ScaleLinear
		}
	}
}
