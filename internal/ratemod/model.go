package ratemod

import "fmt"

// Model language tags accepted by FromSource.
const (
	// LanguageNetwork identifies the rich reaction-network format:
	// explicit species, compartments, parameters and symbolic rules.
	LanguageNetwork = "network"

	// LanguageRuleNet identifies the lean rule-network format:
	// reaction rules over implicit species, parameters and named
	// observables/expressions only.
	LanguageRuleNet = "rulenet"
)

// Model is the common capability set of all supported model variants.
// A Model wraps a declarative network of entities (parameters, species,
// compartments) and relations (assignment rules, initial assignments)
// behind a stable string-id namespace; ids are unique within a model.
type Model interface {
	// Name returns the model name.
	Name() string

	// Language returns the model language tag of the variant.
	Language() string

	// ParameterIDs returns the ids of the genuinely free parameters:
	// top-level parameters that are not the target of a derived-value
	// rule. Variants without rules return all parameters.
	ParameterIDs() []string

	// ParameterValue returns the stored numeric value of a parameter.
	// Returns ErrUnknownEntity if id does not name a parameter.
	ParameterValue(id string) (float64, error)

	// HasSpecies reports whether id names a species. Variants without a
	// species concept report false.
	HasSpecies(id string) bool

	// HasCompartment reports whether id names a compartment. Variants
	// without a compartment concept report false.
	HasCompartment(id string) bool

	// HasEntity reports whether id names any entity of the model.
	HasEntity(id string) bool

	// ValidParameterTableIDs returns the ids permitted to appear in an
	// external parameter-override table for this variant.
	ValidParameterTableIDs() []string

	// ValidConditionTableIDs returns the ids permitted as override
	// columns of an external condition table for this variant.
	ValidConditionTableIDs() []string

	// SymbolAllowedInFormula reports whether id may be referenced inside
	// a user-supplied observable or noise formula.
	SymbolAllowedInFormula(id string) bool

	// IsValid reports structural validity. It never fails; variants
	// without a native notion of validity report true unconditionally.
	IsValid() bool

	// Clone returns a deep, value-independent copy of the model.
	Clone() Model

	// Serialize encodes the model back into its textual native format.
	// Loading the result reproduces an equivalent model.
	Serialize() ([]byte, error)
}

// FromSource loads a model from its textual native representation.
// The languageTag selects the variant; unknown tags fail with
// ErrUnsupportedFormat before any decoding takes place.
func FromSource(data []byte, languageTag string) (Model, error) {
	switch languageTag {
	case LanguageNetwork:
		return LoadNetworkModel(data)
	case LanguageRuleNet:
		return LoadRuleNetModel(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, languageTag)
}
