package ratemod

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Cell is an override value: either a literal float or a reference to
// an estimated parameter id whose value must be looked up in a
// parameter table. The JSON form is a bare number or a bare string.
type Cell struct {
	Number float64
	Ref    string
}

// NumberCell returns a literal cell.
func NumberCell(v float64) Cell { return Cell{Number: v} }

// RefCell returns a parameter-reference cell.
func RefCell(id string) Cell { return Cell{Ref: id} }

// IsRef reports whether the cell holds a parameter reference.
func (c Cell) IsRef() bool { return c.Ref != "" }

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.IsRef() {
		return json.Marshal(c.Ref)
	}
	return json.Marshal(c.Number)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*c = NumberCell(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cell must be a number or a parameter id: %w", err)
	}
	*c = ParseCell(s)
	return nil
}

// ParseCell interprets a raw cell string: strings parsing as floats
// are literals, anything else is a parameter reference.
func ParseCell(raw string) Cell {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumberCell(v)
	}
	return RefCell(raw)
}

// ConditionTable holds per-condition override values. Columns are
// entity ids in declaration order; rows are keyed by condition id.
// Empty cells are simply absent.
type ConditionTable struct {
	columns []string
	rows    map[string]map[string]Cell
}

// NewConditionTable creates a condition table with the given override
// columns.
func NewConditionTable(columns ...string) *ConditionTable {
	return &ConditionTable{
		columns: append([]string(nil), columns...),
		rows:    make(map[string]map[string]Cell),
	}
}

// AddRow sets the override cells of a condition. Cells for columns not
// declared on the table are added as new columns in key-insertion
// order. Returns the table for chaining.
func (t *ConditionTable) AddRow(conditionID string, cells map[string]Cell) *ConditionTable {
	row := make(map[string]Cell, len(cells))
	for col, cell := range cells {
		if !t.hasColumn(col) {
			t.columns = append(t.columns, col)
		}
		row[col] = cell
	}
	t.rows[conditionID] = row
	return t
}

func (t *ConditionTable) hasColumn(col string) bool {
	for _, c := range t.columns {
		if c == col {
			return true
		}
	}
	return false
}

// Columns returns the override column ids in declaration order.
func (t *ConditionTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// ConditionIDs returns the condition ids present in the table.
func (t *ConditionTable) ConditionIDs() []string {
	out := make([]string, 0, len(t.rows))
	for id := range t.rows {
		out = append(out, id)
	}
	return out
}

// HasRow reports whether the table holds a row for conditionID.
func (t *ConditionTable) HasRow(conditionID string) bool {
	_, ok := t.rows[conditionID]
	return ok
}

// Cell returns the override cell for (conditionID, column).
func (t *ConditionTable) Cell(conditionID, column string) (Cell, bool) {
	row, ok := t.rows[conditionID]
	if !ok {
		return Cell{}, false
	}
	c, ok := row[column]
	return c, ok
}

// ParameterRow is one row of the parameter table: the bookkeeping of an
// externally estimated or fixed parameter.
type ParameterRow struct {
	ID           string  `json:"id"`
	NominalValue float64 `json:"nominal_value"`
	Scale        string  `json:"scale,omitempty"`
	Estimate     bool    `json:"estimate"`
}

// ScaleLinear is the default parameter scale.
const ScaleLinear = "lin"

// ParameterTable holds estimated-vs-fixed parameter bookkeeping and
// the nominal values that resolve estimated-parameter references.
type ParameterTable struct {
	rows []ParameterRow
}

// NewParameterTable creates a parameter table from its rows.
func NewParameterTable(rows ...ParameterRow) *ParameterTable {
	return &ParameterTable{rows: append([]ParameterRow(nil), rows...)}
}

// Rows returns the table rows in declaration order.
func (t *ParameterTable) Rows() []ParameterRow {
	return append([]ParameterRow(nil), t.rows...)
}

// Row retrieves a row by parameter id.
func (t *ParameterTable) Row(id string) (ParameterRow, bool) {
	for _, r := range t.rows {
		if r.ID == id {
			return r, true
		}
	}
	return ParameterRow{}, false
}

// NominalValue returns the nominal value of a parameter id.
func (t *ParameterTable) NominalValue(id string) (float64, bool) {
	r, ok := t.Row(id)
	if !ok {
		return 0, false
	}
	return r.NominalValue, true
}

// Scale returns the declared scale of a parameter id, defaulting to
// linear.
func (t *ParameterTable) Scale(id string) string {
	r, ok := t.Row(id)
	if !ok || r.Scale == "" {
		return ScaleLinear
	}
	return r.Scale
}

// MeasurementRow is the slice of a measurement table the parameter
// mapper consumes: which observable was measured under which
// condition, and any per-measurement output/noise parameter overrides.
type MeasurementRow struct {
	ObservableID                string `json:"observable_id"`
	SimulationConditionID       string `json:"simulation_condition_id"`
	PreequilibrationConditionID string `json:"preequilibration_condition_id,omitempty"`
	ObservableParameters        []Cell `json:"observable_parameters,omitempty"`
	NoiseParameters             []Cell `json:"noise_parameters,omitempty"`
}
