package ratemod

import (
	"fmt"
	"strings"
)

// Parameter is a top-level model parameter. When a parameter is the
// target of an assignment rule its Value is derived, not stored.
type Parameter struct {
	ID       string
	Name     string
	Value    float64
	Constant bool
}

// Compartment is a named volume holding species.
type Compartment struct {
	ID   string
	Name string
	Size float64
}

// Species lives in a compartment and carries either an initial amount
// or an initial concentration, never both meaningfully: which one is
// authoritative depends on the per-species unit flag.
type Species struct {
	ID                   string
	Name                 string
	Compartment          string
	InitialAmount        *float64
	InitialConcentration *float64
	// SubstanceUnitsOnly marks species whose quantity is always an
	// amount, regardless of compartment size.
	SubstanceUnitsOnly bool
}

// AssignmentRule declares that the target entity's value is always
// equal to the formula. At most one rule targets a given id.
type AssignmentRule struct {
	Target  string
	Formula string
}

// InitialAssignment sets the target entity's value once, at simulation
// start.
type InitialAssignment struct {
	Target  string
	Formula string
}

// LocalParameter is a parameter scoped to a single kinetic law.
type LocalParameter struct {
	ID    string
	Name  string
	Value float64
}

// KineticLaw is the rate expression of a reaction.
type KineticLaw struct {
	Formula         string
	LocalParameters []LocalParameter
}

// SpeciesRef references a species taking part in a reaction.
type SpeciesRef struct {
	Species       string
	Stoichiometry float64
}

// Reaction transforms reactants into products at a rate given by its
// kinetic law.
type Reaction struct {
	ID        string
	Name      string
	Reactants []SpeciesRef
	Products  []SpeciesRef
	Law       *KineticLaw
}

// NetworkModel is the rich model variant: a reaction-rate model with
// explicit species, compartments, parameters and symbolic rules.
// Slices preserve the declaration order of the source document.
type NetworkModel struct {
	name         string
	parameters   []Parameter
	compartments []Compartment
	species      []Species
	reactions    []Reaction
	rules        []AssignmentRule
	inits        []InitialAssignment
}

// Name returns the model name.
func (m *NetworkModel) Name() string { return m.name }

// Language returns LanguageNetwork.
func (m *NetworkModel) Language() string { return LanguageNetwork }

// Parameters returns the model parameters in declaration order.
// The returned slice is a copy; mutating it does not affect the model.
func (m *NetworkModel) Parameters() []Parameter {
	out := make([]Parameter, len(m.parameters))
	copy(out, m.parameters)
	return out
}

// Parameter retrieves a parameter by id.
func (m *NetworkModel) Parameter(id string) (Parameter, bool) {
	for _, p := range m.parameters {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// AddParameter appends a new parameter. Fails if the id is already
// taken by any entity.
func (m *NetworkModel) AddParameter(p Parameter) error {
	if p.ID == "" {
		return fmt.Errorf("parameter id is required")
	}
	if m.HasEntity(p.ID) {
		return fmt.Errorf("id %q already exists in model %q", p.ID, m.name)
	}
	m.parameters = append(m.parameters, p)
	return nil
}

// SetParameterValue sets the stored numeric value of a parameter.
// Returns ErrUnknownEntity if id does not name a parameter.
func (m *NetworkModel) SetParameterValue(id string, value float64) error {
	for i := range m.parameters {
		if m.parameters[i].ID == id {
			m.parameters[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("parameter %q: %w", id, ErrUnknownEntity)
}

// RemoveParameter deletes a parameter declaration. Reports whether a
// parameter was removed. Rules targeting the parameter are untouched.
func (m *NetworkModel) RemoveParameter(id string) bool {
	for i := range m.parameters {
		if m.parameters[i].ID == id {
			m.parameters = append(m.parameters[:i], m.parameters[i+1:]...)
			return true
		}
	}
	return false
}

// Compartments returns the compartments in declaration order.
func (m *NetworkModel) Compartments() []Compartment {
	out := make([]Compartment, len(m.compartments))
	copy(out, m.compartments)
	return out
}

// CompartmentByID retrieves a compartment by id.
func (m *NetworkModel) CompartmentByID(id string) (Compartment, bool) {
	for _, c := range m.compartments {
		if c.ID == id {
			return c, true
		}
	}
	return Compartment{}, false
}

// SetCompartmentSize sets a compartment's size.
// Returns ErrUnknownEntity if id does not name a compartment.
func (m *NetworkModel) SetCompartmentSize(id string, size float64) error {
	for i := range m.compartments {
		if m.compartments[i].ID == id {
			m.compartments[i].Size = size
			return nil
		}
	}
	return fmt.Errorf("compartment %q: %w", id, ErrUnknownEntity)
}

// AllSpecies returns the species in declaration order.
func (m *NetworkModel) AllSpecies() []Species {
	out := make([]Species, len(m.species))
	for i, sp := range m.species {
		out[i] = copySpecies(sp)
	}
	return out
}

// SpeciesByID retrieves a species by id. The returned value is a copy.
func (m *NetworkModel) SpeciesByID(id string) (Species, bool) {
	for _, sp := range m.species {
		if sp.ID == id {
			return copySpecies(sp), true
		}
	}
	return Species{}, false
}

// SetSpeciesInitialAmount sets a species' initial amount, leaving any
// initial concentration untouched.
func (m *NetworkModel) SetSpeciesInitialAmount(id string, value float64) error {
	for i := range m.species {
		if m.species[i].ID == id {
			v := value
			m.species[i].InitialAmount = &v
			return nil
		}
	}
	return fmt.Errorf("species %q: %w", id, ErrUnknownEntity)
}

// SetSpeciesInitialConcentration sets a species' initial concentration,
// leaving any initial amount untouched.
func (m *NetworkModel) SetSpeciesInitialConcentration(id string, value float64) error {
	for i := range m.species {
		if m.species[i].ID == id {
			v := value
			m.species[i].InitialConcentration = &v
			return nil
		}
	}
	return fmt.Errorf("species %q: %w", id, ErrUnknownEntity)
}

// Reactions returns the reactions in declaration order.
func (m *NetworkModel) Reactions() []Reaction {
	out := make([]Reaction, len(m.reactions))
	for i, r := range m.reactions {
		out[i] = copyReaction(r)
	}
	return out
}

// Rules returns the assignment rules in declaration order.
func (m *NetworkModel) Rules() []AssignmentRule {
	out := make([]AssignmentRule, len(m.rules))
	copy(out, m.rules)
	return out
}

// RuleByTarget retrieves the assignment rule targeting id, if any.
func (m *NetworkModel) RuleByTarget(id string) (AssignmentRule, bool) {
	for _, r := range m.rules {
		if r.Target == id {
			return r, true
		}
	}
	return AssignmentRule{}, false
}

// AddRule appends an assignment rule. At most one rule may target a
// given id; adding a second one fails.
func (m *NetworkModel) AddRule(r AssignmentRule) error {
	if r.Target == "" {
		return fmt.Errorf("rule target is required")
	}
	if _, exists := m.RuleByTarget(r.Target); exists {
		return fmt.Errorf("rule for target %q already exists in model %q", r.Target, m.name)
	}
	m.rules = append(m.rules, r)
	return nil
}

// RemoveRuleByTarget deletes the assignment rule targeting id.
// Reports whether a rule was removed.
func (m *NetworkModel) RemoveRuleByTarget(id string) bool {
	for i := range m.rules {
		if m.rules[i].Target == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return true
		}
	}
	return false
}

// InitialAssignments returns the initial assignments in declaration order.
func (m *NetworkModel) InitialAssignments() []InitialAssignment {
	out := make([]InitialAssignment, len(m.inits))
	copy(out, m.inits)
	return out
}

// InitialAssignmentByTarget retrieves the initial assignment targeting
// id, if any.
func (m *NetworkModel) InitialAssignmentByTarget(id string) (InitialAssignment, bool) {
	for _, ia := range m.inits {
		if ia.Target == id {
			return ia, true
		}
	}
	return InitialAssignment{}, false
}

// AddInitialAssignment appends an initial assignment. At most one may
// target a given id.
func (m *NetworkModel) AddInitialAssignment(ia InitialAssignment) error {
	if ia.Target == "" {
		return fmt.Errorf("initial assignment target is required")
	}
	if _, exists := m.InitialAssignmentByTarget(ia.Target); exists {
		return fmt.Errorf("initial assignment for target %q already exists in model %q", ia.Target, m.name)
	}
	m.inits = append(m.inits, ia)
	return nil
}

// RemoveInitialAssignment deletes the initial assignment targeting id.
// Reports whether one was removed.
func (m *NetworkModel) RemoveInitialAssignment(id string) bool {
	for i := range m.inits {
		if m.inits[i].Target == id {
			m.inits = append(m.inits[:i], m.inits[i+1:]...)
			return true
		}
	}
	return false
}

// ParameterIDs returns the ids of the free parameters: parameters that
// are not the target of an assignment rule.
func (m *NetworkModel) ParameterIDs() []string {
	out := make([]string, 0, len(m.parameters))
	for _, p := range m.parameters {
		if _, ruled := m.RuleByTarget(p.ID); ruled {
			continue
		}
		out = append(out, p.ID)
	}
	return out
}

// ParameterValue returns the stored value of a parameter.
func (m *NetworkModel) ParameterValue(id string) (float64, error) {
	p, ok := m.Parameter(id)
	if !ok {
		return 0, fmt.Errorf("parameter %q: %w", id, ErrUnknownEntity)
	}
	return p.Value, nil
}

// HasSpecies reports whether id names a species.
func (m *NetworkModel) HasSpecies(id string) bool {
	_, ok := m.SpeciesByID(id)
	return ok
}

// HasCompartment reports whether id names a compartment.
func (m *NetworkModel) HasCompartment(id string) bool {
	_, ok := m.CompartmentByID(id)
	return ok
}

// HasEntity reports whether id names any entity: parameter, species,
// compartment or reaction.
func (m *NetworkModel) HasEntity(id string) bool {
	if _, ok := m.Parameter(id); ok {
		return true
	}
	if m.HasSpecies(id) || m.HasCompartment(id) {
		return true
	}
	for _, r := range m.reactions {
		if r.ID == id {
			return true
		}
	}
	return false
}

// ValidParameterTableIDs returns the free parameters that are not
// reserved output quantities (observable_/sigma_ prefixed ids): those
// are defined by rules or by external observable tables, never
// estimated through the parameter table.
func (m *NetworkModel) ValidParameterTableIDs() []string {
	out := make([]string, 0, len(m.parameters))
	for _, id := range m.ParameterIDs() {
		if strings.HasPrefix(id, ObservablePrefix) || strings.HasPrefix(id, SigmaPrefix) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ValidConditionTableIDs returns species, compartments and free
// parameters: the ids a condition table may override for this variant.
func (m *NetworkModel) ValidConditionTableIDs() []string {
	out := make([]string, 0, len(m.species)+len(m.compartments)+len(m.parameters))
	for _, sp := range m.species {
		out = append(out, sp.ID)
	}
	for _, c := range m.compartments {
		out = append(out, c.ID)
	}
	out = append(out, m.ParameterIDs()...)
	return out
}

// SymbolAllowedInFormula reports whether id may appear in a
// user-supplied observable or noise formula: any parameter (including
// rule-defined ones), species or compartment.
func (m *NetworkModel) SymbolAllowedInFormula(id string) bool {
	if _, ok := m.Parameter(id); ok {
		return true
	}
	return m.HasSpecies(id) || m.HasCompartment(id)
}

// Clone returns a deep copy. Mutating the clone never affects the
// original.
func (m *NetworkModel) Clone() Model {
	return m.CloneNetwork()
}

// CloneNetwork is Clone with a concrete return type, for callers that
// need the mutation surface of the rich variant.
func (m *NetworkModel) CloneNetwork() *NetworkModel {
	out := &NetworkModel{
		name:         m.name,
		parameters:   make([]Parameter, len(m.parameters)),
		compartments: make([]Compartment, len(m.compartments)),
		species:      make([]Species, len(m.species)),
		reactions:    make([]Reaction, len(m.reactions)),
		rules:        make([]AssignmentRule, len(m.rules)),
		inits:        make([]InitialAssignment, len(m.inits)),
	}
	copy(out.parameters, m.parameters)
	copy(out.compartments, m.compartments)
	for i, sp := range m.species {
		out.species[i] = copySpecies(sp)
	}
	for i, r := range m.reactions {
		out.reactions[i] = copyReaction(r)
	}
	copy(out.rules, m.rules)
	copy(out.inits, m.inits)
	return out
}

func copySpecies(sp Species) Species {
	out := sp
	if sp.InitialAmount != nil {
		v := *sp.InitialAmount
		out.InitialAmount = &v
	}
	if sp.InitialConcentration != nil {
		v := *sp.InitialConcentration
		out.InitialConcentration = &v
	}
	return out
}

func copyReaction(r Reaction) Reaction {
	out := r
	out.Reactants = make([]SpeciesRef, len(r.Reactants))
	copy(out.Reactants, r.Reactants)
	out.Products = make([]SpeciesRef, len(r.Products))
	copy(out.Products, r.Products)
	if r.Law != nil {
		law := KineticLaw{
			Formula:         r.Law.Formula,
			LocalParameters: make([]LocalParameter, len(r.Law.LocalParameters)),
		}
		copy(law.LocalParameters, r.Law.LocalParameters)
		out.Law = &law
	}
	return out
}
