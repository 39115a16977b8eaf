package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/daniacca/ratemod/internal/ratemod"
)

// ModelBuilder provides a fluent API for building network model documents.
// Use it to declare parameters, compartments, species and reactions that
// describe a reaction network, then load the result into a server.
type ModelBuilder struct {
	doc ratemod.NetworkDocument
}

// NewModel creates a new model builder with the given name.
// The name identifies the model and is carried into the document.
func NewModel(name string) *ModelBuilder {
	return &ModelBuilder{
		doc: ratemod.NetworkDocument{Name: name},
	}
}

// Parameter adds a non-constant global parameter to the model.
func (mb *ModelBuilder) Parameter(id string, value float64) *ModelBuilder {
	mb.doc.Parameters = append(mb.doc.Parameters, ratemod.ParameterConfig{
		ID:    id,
		Value: value,
	})
	return mb
}

// ConstantParameter adds a constant global parameter to the model.
func (mb *ModelBuilder) ConstantParameter(id string, value float64) *ModelBuilder {
	mb.doc.Parameters = append(mb.doc.Parameters, ratemod.ParameterConfig{
		ID:       id,
		Value:    value,
		Constant: true,
	})
	return mb
}

// Compartment adds a compartment with the given size.
func (mb *ModelBuilder) Compartment(id string, size float64) *ModelBuilder {
	mb.doc.Compartments = append(mb.doc.Compartments, ratemod.CompartmentConfig{
		ID:   id,
		Size: size,
	})
	return mb
}

// SpeciesConcentration adds a species initialized by concentration.
func (mb *ModelBuilder) SpeciesConcentration(id, compartment string, concentration float64) *ModelBuilder {
	mb.doc.Species = append(mb.doc.Species, ratemod.SpeciesConfig{
		ID:                   id,
		Compartment:          compartment,
		InitialConcentration: &concentration,
	})
	return mb
}

// SpeciesAmount adds a species initialized by substance amount.
func (mb *ModelBuilder) SpeciesAmount(id, compartment string, amount float64) *ModelBuilder {
	mb.doc.Species = append(mb.doc.Species, ratemod.SpeciesConfig{
		ID:            id,
		Compartment:   compartment,
		InitialAmount: &amount,
	})
	return mb
}

// Reaction adds a reaction definition to the model.
func (mb *ModelBuilder) Reaction(rb *ReactionBuilder) *ModelBuilder {
	mb.doc.Reactions = append(mb.doc.Reactions, rb.Build())
	return mb
}

// Rule adds an assignment rule that keeps target defined by formula.
// At most one rule may name a given target.
func (mb *ModelBuilder) Rule(target, formula string) *ModelBuilder {
	mb.doc.Rules = append(mb.doc.Rules, ratemod.RuleConfig{
		Target:  target,
		Formula: formula,
	})
	return mb
}

// InitialAssignment adds an initial assignment for target.
func (mb *ModelBuilder) InitialAssignment(target, formula string) *ModelBuilder {
	mb.doc.InitialAssignments = append(mb.doc.InitialAssignments, ratemod.RuleConfig{
		Target:  target,
		Formula: formula,
	})
	return mb
}

// Observable declares a model output: a prefixed parameter defined by
// an assignment rule. The id is given without the observable_ prefix.
func (mb *ModelBuilder) Observable(id, formula string) *ModelBuilder {
	prefixed := ratemod.ObservablePrefix + id
	return mb.Parameter(prefixed, 0).Rule(prefixed, formula)
}

// Sigma declares the noise formula of an observable. The id is given
// without any prefix and must match an Observable declaration.
func (mb *ModelBuilder) Sigma(id, formula string) *ModelBuilder {
	prefixed := ratemod.SigmaPrefix + id
	return mb.Parameter(prefixed, 0).Rule(prefixed, formula)
}

// Build returns the assembled network document.
func (mb *ModelBuilder) Build() ratemod.NetworkDocument {
	return mb.doc
}

// ReactionBuilder provides a fluent API for building reaction
// configurations: reactants, products and the kinetic law.
type ReactionBuilder struct {
	id        string
	name      string
	reactants []ratemod.SpeciesRefConfig
	products  []ratemod.SpeciesRefConfig
	law       *ratemod.KineticLawConfig
}

// NewReaction creates a new reaction builder with the given ID.
// The ID must be unique within a model.
func NewReaction(id string) *ReactionBuilder {
	return &ReactionBuilder{id: id}
}

// Name sets the human-readable name for the reaction.
func (rb *ReactionBuilder) Name(name string) *ReactionBuilder {
	rb.name = name
	return rb
}

// Reactant adds a reactant species. An optional stoichiometry may be
// given; it defaults to 1.
func (rb *ReactionBuilder) Reactant(species string, stoichiometry ...float64) *ReactionBuilder {
	rb.reactants = append(rb.reactants, speciesRef(species, stoichiometry))
	return rb
}

// Product adds a product species. An optional stoichiometry may be
// given; it defaults to 1.
func (rb *ReactionBuilder) Product(species string, stoichiometry ...float64) *ReactionBuilder {
	rb.products = append(rb.products, speciesRef(species, stoichiometry))
	return rb
}

// Law sets the kinetic law formula of the reaction.
func (rb *ReactionBuilder) Law(formula string) *ReactionBuilder {
	if rb.law == nil {
		rb.law = &ratemod.KineticLawConfig{}
	}
	rb.law.Formula = formula
	return rb
}

// LocalParameter adds a parameter scoped to the kinetic law.
func (rb *ReactionBuilder) LocalParameter(id string, value float64) *ReactionBuilder {
	if rb.law == nil {
		rb.law = &ratemod.KineticLawConfig{}
	}
	rb.law.LocalParameters = append(rb.law.LocalParameters, ratemod.LocalParameterConfig{
		ID:    id,
		Value: value,
	})
	return rb
}

// Build converts the builder to a ReactionConfig.
func (rb *ReactionBuilder) Build() ratemod.ReactionConfig {
	return ratemod.ReactionConfig{
		ID:        rb.id,
		Name:      rb.name,
		Reactants: rb.reactants,
		Products:  rb.products,
		Law:       rb.law,
	}
}

func speciesRef(species string, stoichiometry []float64) ratemod.SpeciesRefConfig {
	ref := ratemod.SpeciesRefConfig{Species: species}
	if len(stoichiometry) > 0 {
		ref.Stoichiometry = stoichiometry[0]
	}
	return ref
}

// ConditionTable is the wire form of a condition table: declared
// columns plus per-condition override cells.
type ConditionTable struct {
	Columns []string                           `json:"columns,omitempty"`
	Rows    map[string]map[string]ratemod.Cell `json:"rows"`
}

// ConditionRequest carries the tables of a condition build. All fields
// are optional; omitted tables fall back to the server's problem
// bundle defaults.
type ConditionRequest struct {
	PreequilibrationConditionID string                   `json:"preequilibration_condition_id,omitempty"`
	Measurements                []ratemod.MeasurementRow `json:"measurements,omitempty"`
	Conditions                  *ConditionTable          `json:"conditions,omitempty"`
	Parameters                  []ratemod.ParameterRow   `json:"parameters,omitempty"`
}

// Client talks to a model server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL
// (e.g., "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// LoadModel loads a model document under the given id. The language
// tag selects the document format ("network" or "rulenet").
func (c *Client) LoadModel(ctx context.Context, id, language string, document []byte) error {
	body, err := json.Marshal(map[string]any{
		"id":       id,
		"language": language,
		"document": json.RawMessage(document),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, body, "models")
	return err
}

// LoadNetworkModel builds the document and loads it under the given id.
func (c *Client) LoadNetworkModel(ctx context.Context, id string, mb *ModelBuilder) error {
	document, err := ratemod.EncodeNetworkDocument(mb.Build())
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return c.LoadModel(ctx, id, ratemod.LanguageNetwork, document)
}

// ListModels returns the ids of all models on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, nil, "models")
	if err != nil {
		return nil, err
	}

	var resp map[string][]string
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp["models"], nil
}

// GetModel returns the serialized document of a model.
func (c *Client) GetModel(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, nil, "models", id)
}

// DeleteModel removes a model from the server.
func (c *Client) DeleteModel(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, nil, "models", id)
	return err
}

// Parameters returns the free parameters of a model with their
// current values.
func (c *Client) Parameters(ctx context.Context, id string) (map[string]float64, error) {
	data, err := c.do(ctx, http.MethodGet, nil, "models", id, "parameters")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Parameters []struct {
			ID    string  `json:"id"`
			Value float64 `json:"value"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	values := make(map[string]float64, len(resp.Parameters))
	for _, p := range resp.Parameters {
		values[p.ID] = p.Value
	}
	return values, nil
}

// Observables returns the output formulas of a model keyed by the
// prefixed observable id.
func (c *Client) Observables(ctx context.Context, id string) (map[string]ratemod.RuleDefinition, error) {
	data, err := c.do(ctx, http.MethodGet, nil, "models", id, "observables")
	if err != nil {
		return nil, err
	}

	var resp map[string]map[string]ratemod.RuleDefinition
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp["observables"], nil
}

// Sigmas returns the noise formulas of a model keyed by the prefixed
// observable id they belong to.
func (c *Client) Sigmas(ctx context.Context, id string) (map[string]string, error) {
	data, err := c.do(ctx, http.MethodGet, nil, "models", id, "sigmas")
	if err != nil {
		return nil, err
	}

	var resp map[string]map[string]string
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp["sigmas"], nil
}

// BuildCondition derives a condition-specific model on the server and
// returns its serialized document.
func (c *Client) BuildCondition(ctx context.Context, id, conditionID string, req ConditionRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, body, "models", id, "conditions", conditionID)
}

// do sends a request to the server and returns the response body.
func (c *Client) do(ctx context.Context, method string, body []byte, pathSegments ...string) ([]byte, error) {
	u, err := url.JoinPath(c.baseURL, pathSegments...)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}
