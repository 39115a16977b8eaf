package ratemod

import (
	"fmt"
	"strings"
)

// Reserved id prefixes marking output quantities defined by assignment
// rules.
const (
	ObservablePrefix = "observable_"
	SigmaPrefix      = "sigma_"
)

// RuleDefinition is an extracted assignment rule: the display name of
// its target parameter and the defining formula.
type RuleDefinition struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

// ExtractRules collects the assignment rules whose target parameter
// satisfies keep, keyed by target id. Iteration follows the model's
// declaration order; keys are unique since at most one rule targets a
// given id. Rules targeting non-parameter entities are skipped.
//
// When remove is set, every matching rule is deleted from the model
// together with the target parameter declaration itself and any
// initial assignment on it. This is destructive; only call it on a
// clone.
func ExtractRules(m *NetworkModel, keep func(Parameter) bool, remove bool) map[string]RuleDefinition {
	result := make(map[string]RuleDefinition)

	for _, rule := range m.Rules() {
		p, ok := m.Parameter(rule.Target)
		if !ok {
			continue
		}
		if keep != nil && !keep(p) {
			continue
		}
		result[rule.Target] = RuleDefinition{
			Name:    p.Name,
			Formula: rule.Formula,
		}
	}

	if remove {
		for target := range result {
			m.RemoveRuleByTarget(target)
			m.RemoveInitialAssignment(target)
			m.RemoveParameter(target)
		}
	}

	return result
}

// IsObservableParameter reports whether the parameter id matches the
// observable-output format.
func IsObservableParameter(p Parameter) bool {
	return strings.HasPrefix(p.ID, ObservablePrefix)
}

// IsSigmaParameter reports whether the parameter id matches the
// noise/sigma format.
func IsSigmaParameter(p Parameter) bool {
	return strings.HasPrefix(p.ID, SigmaPrefix)
}

// Observables returns the observable output definitions of the model:
// assignment rules on observable_-prefixed parameters.
func Observables(m *NetworkModel, remove bool) map[string]RuleDefinition {
	return ExtractRules(m, IsObservableParameter, remove)
}

// Sigmas returns the noise formulas of the model, keyed by the
// matching observable id: the sigma_ prefix of each extracted rule
// target is substituted with the observable_ prefix.
func Sigmas(m *NetworkModel, remove bool) map[string]string {
	extracted := ExtractRules(m, IsSigmaParameter, remove)
	sigmas := make(map[string]string, len(extracted))
	for target, def := range extracted {
		key := ObservablePrefix + strings.TrimPrefix(target, SigmaPrefix)
		sigmas[key] = def.Formula
	}
	return sigmas
}

func warnDeprecated(sink WarningSink, fn string) {
	emitWarning(sink, NewWarningEvent(WarningDeprecated, fn,
		fmt.Sprintf("%s will be removed in future releases", fn)))
}

// AddGlobalParameter adds a new top-level parameter to the model.
// The name defaults to the id.
func AddGlobalParameter(m *NetworkModel, id, name string, constant bool, value float64) error {
	if name == "" {
		name = id
	}
	return m.AddParameter(Parameter{
		ID:       id,
		Name:     name,
		Value:    value,
		Constant: constant,
	})
}

// CreateAssignmentRule adds an assignment rule for target.
//
// Deprecated: authoring helpers are slated for removal; the
// deprecation is reported through sink.
func CreateAssignmentRule(m *NetworkModel, target, formula string, sink WarningSink) error {
	warnDeprecated(sink, "CreateAssignmentRule")
	return m.AddRule(AssignmentRule{Target: target, Formula: formula})
}

// AddModelOutput adds an observable-output parameter and its defining
// rule. The observableID is given without the observable_ prefix.
//
// Deprecated: authoring helpers are slated for removal; the
// deprecation is reported through sink.
func AddModelOutput(m *NetworkModel, observableID, formula, name string, sink WarningSink) error {
	warnDeprecated(sink, "AddModelOutput")
	if name == "" {
		name = observableID
	}
	prefixed := ObservablePrefix + observableID
	if err := AddGlobalParameter(m, prefixed, name, false, 0); err != nil {
		return err
	}
	return m.AddRule(AssignmentRule{Target: prefixed, Formula: formula})
}

// AddModelOutputSigma adds a sigma parameter and its defining rule for
// the given observable id.
//
// Deprecated: authoring helpers are slated for removal; the
// deprecation is reported through sink.
func AddModelOutputSigma(m *NetworkModel, observableID, formula string, sink WarningSink) error {
	warnDeprecated(sink, "AddModelOutputSigma")
	prefixed := SigmaPrefix + observableID
	if err := AddGlobalParameter(m, prefixed, "", false, 0); err != nil {
		return err
	}
	return m.AddRule(AssignmentRule{Target: prefixed, Formula: formula})
}

// AddModelOutputWithSigma adds an observable output plus a sigma bound
// to a single newly created noise parameter.
//
// Deprecated: authoring helpers are slated for removal; the
// deprecation is reported through sink.
func AddModelOutputWithSigma(m *NetworkModel, observableID, formula, name string, sink WarningSink) error {
	warnDeprecated(sink, "AddModelOutputWithSigma")
	if err := AddModelOutput(m, observableID, formula, name, nil); err != nil {
		return err
	}
	noiseParameterID := "noiseParameter1_" + observableID
	if err := AddGlobalParameter(m, noiseParameterID, "", false, 0); err != nil {
		return err
	}
	return AddModelOutputSigma(m, observableID, noiseParameterID, nil)
}

// GlobalizeParameters promotes every reaction-local parameter to a
// global parameter with the same properties and removes it from its
// kinetic law. Local parameter ids are not checked for uniqueness
// across reactions; enable prependReactionID to create globals named
// {reactionID}_{localID} instead.
//
// Deprecated: authoring helpers are slated for removal; the
// deprecation is reported through sink.
func GlobalizeParameters(m *NetworkModel, prependReactionID bool, sink WarningSink) error {
	warnDeprecated(sink, "GlobalizeParameters")

	for ri := range m.reactions {
		r := &m.reactions[ri]
		if r.Law == nil {
			continue
		}
		for _, lp := range r.Law.LocalParameters {
			id := lp.ID
			if prependReactionID {
				id = r.ID + "_" + lp.ID
			}
			if err := m.AddParameter(Parameter{
				ID:       id,
				Name:     lp.Name,
				Value:    lp.Value,
				Constant: true,
			}); err != nil {
				return err
			}
		}
		r.Law.LocalParameters = nil
	}
	return nil
}
