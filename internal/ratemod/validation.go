package ratemod

import "fmt"

// ValidateNetworkDocument performs structural validation of a network
// document before a model is built from it.
func ValidateNetworkDocument(doc NetworkDocument) error {
	err := &ValidationError{}

	if doc.Name == "" {
		err.Add("model name is required")
	}

	// ids share a single namespace within a model
	ids := make(map[string]bool)
	declare := func(kind, id string) {
		if id == "" {
			err.Add(kind + " id is required")
			return
		}
		if ids[id] {
			err.Add("duplicate id: " + id)
			return
		}
		ids[id] = true
	}

	for _, p := range doc.Parameters {
		declare("parameter", p.ID)
	}
	for _, c := range doc.Compartments {
		declare("compartment", c.ID)
	}

	compartments := make(map[string]bool)
	for _, c := range doc.Compartments {
		compartments[c.ID] = true
	}

	species := make(map[string]bool)
	for _, sp := range doc.Species {
		declare("species", sp.ID)
		species[sp.ID] = true
		if sp.Compartment == "" {
			err.Add("species '" + sp.ID + "': compartment is required")
		} else if !compartments[sp.Compartment] {
			err.Add("species '" + sp.ID + "': compartment '" + sp.Compartment + "' does not exist")
		}
	}

	for i, rc := range doc.Reactions {
		prefix := "reaction '" + rc.ID + "'"
		if rc.ID == "" {
			prefix = fmt.Sprintf("reaction at index %d", i)
		}
		declare("reaction", rc.ID)
		for _, ref := range rc.Reactants {
			if !species[ref.Species] {
				err.Add(prefix + ": reactant species '" + ref.Species + "' does not exist")
			}
		}
		for _, ref := range rc.Products {
			if !species[ref.Species] {
				err.Add(prefix + ": product species '" + ref.Species + "' does not exist")
			}
		}
	}

	ruleTargets := make(map[string]bool)
	for _, rc := range doc.Rules {
		if rc.Target == "" {
			err.Add("rule target is required")
			continue
		}
		if ruleTargets[rc.Target] {
			err.Add("duplicate rule target: " + rc.Target)
		}
		ruleTargets[rc.Target] = true
		if !ids[rc.Target] {
			err.Add("rule target '" + rc.Target + "' does not exist")
		}
	}

	initTargets := make(map[string]bool)
	for _, rc := range doc.InitialAssignments {
		if rc.Target == "" {
			err.Add("initial assignment target is required")
			continue
		}
		if initTargets[rc.Target] {
			err.Add("duplicate initial assignment target: " + rc.Target)
		}
		initTargets[rc.Target] = true
		if !ids[rc.Target] {
			err.Add("initial assignment target '" + rc.Target + "' does not exist")
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

// Check performs semantic consistency checks on a built model: every
// symbol referenced by a rule, initial assignment or kinetic law must
// name a known entity. Returns nil when the model is consistent.
func (m *NetworkModel) Check() *ValidationError {
	err := &ValidationError{}

	known := func(id string) bool {
		return m.HasEntity(id)
	}

	for _, r := range m.rules {
		for _, id := range formulaIdentifiers(r.Formula) {
			if !known(id) {
				err.Add("rule for '" + r.Target + "' references unknown symbol '" + id + "'")
			}
		}
	}
	for _, ia := range m.inits {
		for _, id := range formulaIdentifiers(ia.Formula) {
			if !known(id) {
				err.Add("initial assignment for '" + ia.Target + "' references unknown symbol '" + id + "'")
			}
		}
	}
	for _, r := range m.reactions {
		if r.Law == nil {
			continue
		}
		local := make(map[string]bool, len(r.Law.LocalParameters))
		for _, lp := range r.Law.LocalParameters {
			local[lp.ID] = true
		}
		for _, id := range formulaIdentifiers(r.Law.Formula) {
			if !known(id) && !local[id] {
				err.Add("kinetic law of '" + r.ID + "' references unknown symbol '" + id + "'")
			}
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

// IsValid reports whether the model passed the consistency check. It
// never fails; use Check for the issue list.
func (m *NetworkModel) IsValid() bool {
	return m.Check() == nil
}
