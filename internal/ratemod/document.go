package ratemod

import (
	"encoding/json"
	"fmt"
)

// The network document is the textual native format of the rich model
// variant. Encoding a model and loading the result reproduces an
// equivalent model.

type ParameterConfig struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Value    float64 `json:"value"`
	Constant bool    `json:"constant,omitempty"`
}

type CompartmentConfig struct {
	ID   string  `json:"id"`
	Name string  `json:"name,omitempty"`
	Size float64 `json:"size"`
}

type SpeciesConfig struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name,omitempty"`
	Compartment          string   `json:"compartment"`
	InitialAmount        *float64 `json:"initial_amount,omitempty"`
	InitialConcentration *float64 `json:"initial_concentration,omitempty"`
	SubstanceUnitsOnly   bool     `json:"substance_units_only,omitempty"`
}

// RuleConfig serves both assignment rules and initial assignments.
type RuleConfig struct {
	Target  string `json:"target"`
	Formula string `json:"formula"`
}

type LocalParameterConfig struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value"`
}

type KineticLawConfig struct {
	Formula         string                 `json:"formula"`
	LocalParameters []LocalParameterConfig `json:"local_parameters,omitempty"`
}

type SpeciesRefConfig struct {
	Species       string  `json:"species"`
	Stoichiometry float64 `json:"stoichiometry,omitempty"`
}

type ReactionConfig struct {
	ID        string             `json:"id"`
	Name      string             `json:"name,omitempty"`
	Reactants []SpeciesRefConfig `json:"reactants,omitempty"`
	Products  []SpeciesRefConfig `json:"products,omitempty"`
	Law       *KineticLawConfig  `json:"kinetic_law,omitempty"`
}

type NetworkDocument struct {
	Name               string              `json:"name"`
	Parameters         []ParameterConfig   `json:"parameters,omitempty"`
	Compartments       []CompartmentConfig `json:"compartments,omitempty"`
	Species            []SpeciesConfig     `json:"species,omitempty"`
	Reactions          []ReactionConfig    `json:"reactions,omitempty"`
	Rules              []RuleConfig        `json:"rules,omitempty"`
	InitialAssignments []RuleConfig        `json:"initial_assignments,omitempty"`
}

// DecodeNetworkDocument decodes a network document from JSON.
func DecodeNetworkDocument(data []byte) (NetworkDocument, error) {
	var doc NetworkDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return NetworkDocument{}, fmt.Errorf("failed to decode network document: %w", err)
	}
	return doc, nil
}

// EncodeNetworkDocument encodes a network document to JSON.
func EncodeNetworkDocument(doc NetworkDocument) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode network document: %w", err)
	}
	return data, nil
}

// BuildNetworkModel validates a network document and builds the model.
func BuildNetworkModel(doc NetworkDocument) (*NetworkModel, error) {
	if err := ValidateNetworkDocument(doc); err != nil {
		return nil, err
	}

	m := &NetworkModel{name: doc.Name}
	for _, pc := range doc.Parameters {
		m.parameters = append(m.parameters, Parameter{
			ID:       pc.ID,
			Name:     pc.Name,
			Value:    pc.Value,
			Constant: pc.Constant,
		})
	}
	for _, cc := range doc.Compartments {
		m.compartments = append(m.compartments, Compartment{
			ID:   cc.ID,
			Name: cc.Name,
			Size: cc.Size,
		})
	}
	for _, sc := range doc.Species {
		sp := Species{
			ID:                 sc.ID,
			Name:               sc.Name,
			Compartment:        sc.Compartment,
			SubstanceUnitsOnly: sc.SubstanceUnitsOnly,
		}
		if sc.InitialAmount != nil {
			v := *sc.InitialAmount
			sp.InitialAmount = &v
		}
		if sc.InitialConcentration != nil {
			v := *sc.InitialConcentration
			sp.InitialConcentration = &v
		}
		m.species = append(m.species, sp)
	}
	for _, rc := range doc.Reactions {
		r := Reaction{ID: rc.ID, Name: rc.Name}
		for _, ref := range rc.Reactants {
			r.Reactants = append(r.Reactants, speciesRefFromConfig(ref))
		}
		for _, ref := range rc.Products {
			r.Products = append(r.Products, speciesRefFromConfig(ref))
		}
		if rc.Law != nil {
			law := KineticLaw{Formula: rc.Law.Formula}
			for _, lp := range rc.Law.LocalParameters {
				law.LocalParameters = append(law.LocalParameters, LocalParameter{
					ID:    lp.ID,
					Name:  lp.Name,
					Value: lp.Value,
				})
			}
			r.Law = &law
		}
		m.reactions = append(m.reactions, r)
	}
	for _, rc := range doc.Rules {
		m.rules = append(m.rules, AssignmentRule{Target: rc.Target, Formula: rc.Formula})
	}
	for _, rc := range doc.InitialAssignments {
		m.inits = append(m.inits, InitialAssignment{Target: rc.Target, Formula: rc.Formula})
	}
	return m, nil
}

func speciesRefFromConfig(ref SpeciesRefConfig) SpeciesRef {
	s := SpeciesRef{Species: ref.Species, Stoichiometry: ref.Stoichiometry}
	if s.Stoichiometry == 0 {
		s.Stoichiometry = 1
	}
	return s
}

// Document converts the model back to its document form, preserving
// declaration order.
func (m *NetworkModel) Document() NetworkDocument {
	doc := NetworkDocument{Name: m.name}
	for _, p := range m.parameters {
		doc.Parameters = append(doc.Parameters, ParameterConfig{
			ID:       p.ID,
			Name:     p.Name,
			Value:    p.Value,
			Constant: p.Constant,
		})
	}
	for _, c := range m.compartments {
		doc.Compartments = append(doc.Compartments, CompartmentConfig{
			ID:   c.ID,
			Name: c.Name,
			Size: c.Size,
		})
	}
	for _, sp := range m.species {
		sc := SpeciesConfig{
			ID:                 sp.ID,
			Name:               sp.Name,
			Compartment:        sp.Compartment,
			SubstanceUnitsOnly: sp.SubstanceUnitsOnly,
		}
		if sp.InitialAmount != nil {
			v := *sp.InitialAmount
			sc.InitialAmount = &v
		}
		if sp.InitialConcentration != nil {
			v := *sp.InitialConcentration
			sc.InitialConcentration = &v
		}
		doc.Species = append(doc.Species, sc)
	}
	for _, r := range m.reactions {
		rc := ReactionConfig{ID: r.ID, Name: r.Name}
		for _, ref := range r.Reactants {
			rc.Reactants = append(rc.Reactants, SpeciesRefConfig(ref))
		}
		for _, ref := range r.Products {
			rc.Products = append(rc.Products, SpeciesRefConfig(ref))
		}
		if r.Law != nil {
			law := KineticLawConfig{Formula: r.Law.Formula}
			for _, lp := range r.Law.LocalParameters {
				law.LocalParameters = append(law.LocalParameters, LocalParameterConfig(lp))
			}
			rc.Law = &law
		}
		doc.Reactions = append(doc.Reactions, rc)
	}
	for _, r := range m.rules {
		doc.Rules = append(doc.Rules, RuleConfig{Target: r.Target, Formula: r.Formula})
	}
	for _, ia := range m.inits {
		doc.InitialAssignments = append(doc.InitialAssignments, RuleConfig{Target: ia.Target, Formula: ia.Formula})
	}
	return doc
}

// Serialize encodes the model into its JSON document form.
func (m *NetworkModel) Serialize() ([]byte, error) {
	return EncodeNetworkDocument(m.Document())
}

// LoadNetworkModel decodes, validates and builds a rich model from its
// JSON document form. All failures wrap ErrLoad.
func LoadNetworkModel(data []byte) (*NetworkModel, error) {
	doc, err := DecodeNetworkDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if isEmptyNetworkDocument(doc) {
		return nil, fmt.Errorf("%w: document contains no model", ErrLoad)
	}
	m, err := BuildNetworkModel(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return m, nil
}

func isEmptyNetworkDocument(doc NetworkDocument) bool {
	return doc.Name == "" &&
		len(doc.Parameters) == 0 &&
		len(doc.Compartments) == 0 &&
		len(doc.Species) == 0 &&
		len(doc.Reactions) == 0
}
