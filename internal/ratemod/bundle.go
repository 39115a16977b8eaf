package ratemod

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// bundleConfig is the YAML shape of a problem bundle: one model
// reference plus the condition and parameter tables that drive
// condition builds against it.
type bundleConfig struct {
	Model struct {
		ID       string `yaml:"id"`
		Language string `yaml:"language"`
		File     string `yaml:"file"`
	} `yaml:"model"`
	Conditions struct {
		Columns []string                  `yaml:"columns"`
		Rows    map[string]map[string]any `yaml:"rows"`
	} `yaml:"conditions"`
	Parameters []struct {
		ID           string  `yaml:"id"`
		NominalValue float64 `yaml:"nominal_value"`
		Scale        string  `yaml:"scale"`
		Estimate     bool    `yaml:"estimate"`
	} `yaml:"parameters"`
}

// ProblemBundle ties a loaded model to the tables of a full problem.
type ProblemBundle struct {
	ModelID    string
	Model      Model
	Conditions *ConditionTable
	Parameters *ParameterTable
}

// cellFromYAML converts a YAML scalar into a table cell. Numbers become
// literal values, strings follow the usual cell parsing rules.
func cellFromYAML(v any) (Cell, error) {
	switch val := v.(type) {
	case float64:
		return NumberCell(val), nil
	case int:
		return NumberCell(float64(val)), nil
	case string:
		return ParseCell(val), nil
	default:
		return Cell{}, fmt.Errorf("unsupported cell value %v (%T)", v, v)
	}
}

// LoadProblemBundle reads a YAML problem bundle and the model document
// it references. The model file path is resolved relative to the
// bundle file.
func LoadProblemBundle(path string) (*ProblemBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg bundleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing problem bundle: %w", err)
	}
	if cfg.Model.ID == "" || cfg.Model.File == "" {
		return nil, fmt.Errorf("problem bundle must set model.id and model.file")
	}

	modelPath := cfg.Model.File
	if !filepath.IsAbs(modelPath) {
		modelPath = filepath.Join(filepath.Dir(path), modelPath)
	}
	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, err
	}

	model, err := FromSource(modelData, cfg.Model.Language)
	if err != nil {
		return nil, err
	}

	conditions := NewConditionTable(cfg.Conditions.Columns...)
	for conditionID, row := range cfg.Conditions.Rows {
		cells := make(map[string]Cell, len(row))
		for column, raw := range row {
			cell, err := cellFromYAML(raw)
			if err != nil {
				return nil, fmt.Errorf("condition %q column %q: %w", conditionID, column, err)
			}
			cells[column] = cell
		}
		conditions.AddRow(conditionID, cells)
	}

	rows := make([]ParameterRow, 0, len(cfg.Parameters))
	for _, p := range cfg.Parameters {
		scale := p.Scale
		if scale == "" {
			scale = ScaleLinear
		}
		rows = append(rows, ParameterRow{
			ID:           p.ID,
			NominalValue: p.NominalValue,
			Scale:        scale,
			Estimate:     p.Estimate,
		})
	}

	return &ProblemBundle{
		ModelID:    cfg.Model.ID,
		Model:      model,
		Conditions: conditions,
		Parameters: NewParameterTable(rows...),
	}, nil
}
