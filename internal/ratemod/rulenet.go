package ratemod

import (
	"encoding/json"
	"fmt"
)

// The rule-network document is the textual native format of the lean
// model variant: a declarative reaction-rule network in which species
// are implicit and carry no species/compartment concepts.

type MonomerConfig struct {
	Name  string   `json:"name"`
	Sites []string `json:"sites,omitempty"`
}

type ReactionRuleConfig struct {
	Name string `json:"name"`
	// Rule is the reaction-rule pattern, e.g. "A() + B() -> AB()".
	Rule string `json:"rule"`
	Rate string `json:"rate,omitempty"`
}

type ObservableConfig struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

type ExpressionConfig struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

type RuleNetDocument struct {
	Name        string               `json:"name"`
	Monomers    []MonomerConfig      `json:"monomers,omitempty"`
	Parameters  []ParameterConfig    `json:"parameters,omitempty"`
	Rules       []ReactionRuleConfig `json:"rules,omitempty"`
	Observables []ObservableConfig   `json:"observables,omitempty"`
	Expressions []ExpressionConfig   `json:"expressions,omitempty"`
}

// RuleNetModel is the lean model variant. Parameters are plain named
// constants; observables and expressions are the only derived
// quantities. There are no species or compartments to query.
type RuleNetModel struct {
	doc RuleNetDocument
}

// LoadRuleNetModel decodes and builds a lean model from its JSON
// document form. All failures wrap ErrLoad.
func LoadRuleNetModel(data []byte) (*RuleNetModel, error) {
	var doc RuleNetDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to decode rule-network document: %v", ErrLoad, err)
	}
	if doc.Name == "" && len(doc.Monomers) == 0 && len(doc.Parameters) == 0 && len(doc.Rules) == 0 {
		return nil, fmt.Errorf("%w: document contains no model", ErrLoad)
	}
	if err := validateRuleNetDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return &RuleNetModel{doc: doc}, nil
}

func validateRuleNetDocument(doc RuleNetDocument) error {
	err := &ValidationError{}
	names := make(map[string]bool)
	declare := func(kind, name string) {
		if name == "" {
			err.Add(kind + " name is required")
			return
		}
		if names[name] {
			err.Add("duplicate component name: " + name)
			return
		}
		names[name] = true
	}
	for _, m := range doc.Monomers {
		declare("monomer", m.Name)
	}
	for _, p := range doc.Parameters {
		declare("parameter", p.ID)
	}
	for _, r := range doc.Rules {
		declare("rule", r.Name)
	}
	for _, o := range doc.Observables {
		declare("observable", o.Name)
	}
	for _, e := range doc.Expressions {
		declare("expression", e.Name)
	}
	if err.HasIssues() {
		return err
	}
	return nil
}

// Name returns the model name.
func (m *RuleNetModel) Name() string { return m.doc.Name }

// Language returns LanguageRuleNet.
func (m *RuleNetModel) Language() string { return LanguageRuleNet }

// ParameterIDs returns all parameter ids: the lean variant has no
// assignment rules that could shadow a parameter.
func (m *RuleNetModel) ParameterIDs() []string {
	out := make([]string, 0, len(m.doc.Parameters))
	for _, p := range m.doc.Parameters {
		out = append(out, p.ID)
	}
	return out
}

// ParameterValue returns the value of a parameter.
func (m *RuleNetModel) ParameterValue(id string) (float64, error) {
	for _, p := range m.doc.Parameters {
		if p.ID == id {
			return p.Value, nil
		}
	}
	return 0, fmt.Errorf("parameter %q: %w", id, ErrUnknownEntity)
}

// HasSpecies reports false: species are implicit in a rule network.
func (m *RuleNetModel) HasSpecies(id string) bool { return false }

// HasCompartment reports false: the lean variant has no compartments.
func (m *RuleNetModel) HasCompartment(id string) bool { return false }

// HasEntity reports whether id names any component: monomer,
// parameter, rule, observable or expression.
func (m *RuleNetModel) HasEntity(id string) bool {
	for _, c := range m.doc.Monomers {
		if c.Name == id {
			return true
		}
	}
	for _, p := range m.doc.Parameters {
		if p.ID == id {
			return true
		}
	}
	for _, r := range m.doc.Rules {
		if r.Name == id {
			return true
		}
	}
	for _, o := range m.doc.Observables {
		if o.Name == id {
			return true
		}
	}
	for _, e := range m.doc.Expressions {
		if e.Name == id {
			return true
		}
	}
	return false
}

// ValidParameterTableIDs returns all parameters: every parameter of a
// rule network may appear in the parameter table.
func (m *RuleNetModel) ValidParameterTableIDs() []string {
	return m.ParameterIDs()
}

// ValidConditionTableIDs returns all parameters, the only overridable
// quantities of this variant.
func (m *RuleNetModel) ValidConditionTableIDs() []string {
	return m.ParameterIDs()
}

// SymbolAllowedInFormula reports whether id names a parameter,
// observable or expression.
func (m *RuleNetModel) SymbolAllowedInFormula(id string) bool {
	for _, p := range m.doc.Parameters {
		if p.ID == id {
			return true
		}
	}
	for _, o := range m.doc.Observables {
		if o.Name == id {
			return true
		}
	}
	for _, e := range m.doc.Expressions {
		if e.Name == id {
			return true
		}
	}
	return false
}

// IsValid reports true: rule networks have no native notion of
// structural validity beyond what loading already enforced.
func (m *RuleNetModel) IsValid() bool { return true }

// Clone returns a deep copy of the model.
func (m *RuleNetModel) Clone() Model {
	out := RuleNetDocument{Name: m.doc.Name}
	out.Monomers = make([]MonomerConfig, len(m.doc.Monomers))
	for i, mono := range m.doc.Monomers {
		out.Monomers[i] = MonomerConfig{Name: mono.Name, Sites: append([]string(nil), mono.Sites...)}
	}
	out.Parameters = append([]ParameterConfig(nil), m.doc.Parameters...)
	out.Rules = append([]ReactionRuleConfig(nil), m.doc.Rules...)
	out.Observables = append([]ObservableConfig(nil), m.doc.Observables...)
	out.Expressions = append([]ExpressionConfig(nil), m.doc.Expressions...)
	return &RuleNetModel{doc: out}
}

// Serialize encodes the model into its JSON document form.
func (m *RuleNetModel) Serialize() ([]byte, error) {
	data, err := json.Marshal(m.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule-network document: %w", err)
	}
	return data, nil
}
