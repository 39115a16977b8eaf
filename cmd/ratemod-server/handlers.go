package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/daniacca/ratemod/internal/ratemod"
)

// extractModelID extracts the model ID from a path like "/models/{id}/..."
// Returns the model ID and the remaining path, or empty strings if not found
func extractModelID(path string) (ratemod.ModelID, string) {
	if !strings.HasPrefix(path, "/models/") {
		return "", ""
	}

	rest := path[len("/models/"):]

	idx := strings.Index(rest, "/")
	if idx == -1 {
		return ratemod.ModelID(rest), ""
	}

	return ratemod.ModelID(rest[:idx]), rest[idx:]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /models
// Body: { "id": "...", "language": "network", "document": { ... } }
// Loads a model from its serialized document, or replaces an existing one.
type loadModelRequest struct {
	ID       string          `json:"id"`
	Language string          `json:"language"`
	Document json.RawMessage `json:"document"`
}

type loadModelResponse struct {
	Status   string   `json:"status"`
	ID       string   `json:"id"`
	Language string   `json:"language"`
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues,omitempty"`
}

func (s *Server) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req loadModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "model ID is required", http.StatusBadRequest)
		return
	}

	model, err := ratemod.FromSource(req.Document, req.Language)
	if err != nil {
		if errors.Is(err, ratemod.ErrUnsupportedFormat) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "cannot load model: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := ratemod.ModelID(req.ID)
	if err := s.manager.CreateModel(id, model); err != nil {
		// Model already exists, replace it
		if err := s.manager.UpdateModel(id, model); err != nil {
			s.logger.Errorf("Failed to update model: model_id=%s error=%v", id, err)
			http.Error(w, "cannot update model: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.logger.Infof("Model replaced: model_id=%s language=%s", id, model.Language())
	} else {
		s.logger.Infof("Model loaded: model_id=%s language=%s", id, model.Language())
	}
	s.metrics.setModelsLoaded(len(s.manager.ListModels()))

	resp := loadModelResponse{
		Status:   "ok",
		ID:       req.ID,
		Language: model.Language(),
		Valid:    model.IsValid(),
	}
	if nm, ok := model.(*ratemod.NetworkModel); ok && !resp.Valid {
		if verr := nm.Check(); verr != nil {
			resp.Issues = verr.Issues
			for _, issue := range verr.Issues {
				event := ratemod.NewWarningEvent(ratemod.WarningInconsistency, "", issue)
				event.ModelName = nm.Name()
				s.warningSink()(event)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /models
// List all model IDs
func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	modelIDs := s.manager.ListModels()

	ids := make([]string, len(modelIDs))
	for i, id := range modelIDs {
		ids[i] = string(id)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"models": ids}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /models/{id}
// Returns the serialized model document
func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	modelID, _ := extractModelID(r.URL.Path)

	model, exists := s.manager.GetModel(modelID)
	if !exists {
		http.Error(w, "model not found", http.StatusNotFound)
		return
	}

	data, err := model.Serialize()
	if err != nil {
		http.Error(w, "cannot serialize model: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DELETE /models/{id}
func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	modelID, _ := extractModelID(r.URL.Path)

	if err := s.manager.DeleteModel(modelID); err != nil {
		s.logger.Warnf("Failed to delete model: model_id=%s error=%v", modelID, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.metrics.setModelsLoaded(len(s.manager.ListModels()))

	s.logger.Infof("Model deleted: model_id=%s", modelID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("model deleted"))
}

// GET /models/{id}/parameters
// Returns the free parameter ids with their current values
type parameterEntry struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

func (s *Server) handleModelParameters(w http.ResponseWriter, r *http.Request) {
	modelID, _ := extractModelID(r.URL.Path)

	model, exists := s.manager.GetModel(modelID)
	if !exists {
		http.Error(w, "model not found", http.StatusNotFound)
		return
	}

	ids := model.ParameterIDs()
	entries := make([]parameterEntry, 0, len(ids))
	for _, id := range ids {
		value, err := model.ParameterValue(id)
		if err != nil {
			http.Error(w, "cannot read parameter "+id+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		entries = append(entries, parameterEntry{ID: id, Value: value})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]parameterEntry{"parameters": entries}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// networkModelOr422 fetches a model and requires the rich network
// variant; rule extraction and condition builds are not defined for
// the lean variants.
func (s *Server) networkModelOr422(w http.ResponseWriter, modelID ratemod.ModelID) (*ratemod.NetworkModel, bool) {
	model, exists := s.manager.GetModel(modelID)
	if !exists {
		http.Error(w, "model not found", http.StatusNotFound)
		return nil, false
	}

	nm, ok := model.(*ratemod.NetworkModel)
	if !ok {
		http.Error(w, ratemod.ErrNotSupported.Error()+" for language "+model.Language(), http.StatusUnprocessableEntity)
		return nil, false
	}
	return nm, true
}

// GET /models/{id}/observables
func (s *Server) handleModelObservables(w http.ResponseWriter, r *http.Request) {
	modelID, _ := extractModelID(r.URL.Path)

	nm, ok := s.networkModelOr422(w, modelID)
	if !ok {
		return
	}

	observables := ratemod.Observables(nm, false)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]map[string]ratemod.RuleDefinition{"observables": observables}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /models/{id}/sigmas
func (s *Server) handleModelSigmas(w http.ResponseWriter, r *http.Request) {
	modelID, _ := extractModelID(r.URL.Path)

	nm, ok := s.networkModelOr422(w, modelID)
	if !ok {
		return
	}

	sigmas := ratemod.Sigmas(nm, false)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]map[string]string{"sigmas": sigmas}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// POST /models/{id}/conditions/{conditionID}
// Body: condition and parameter tables plus optional measurements.
// Falls back to the startup problem bundle tables when omitted.
// Returns the serialized condition-specific model.
type conditionTableConfig struct {
	Columns []string                           `json:"columns,omitempty"`
	Rows    map[string]map[string]ratemod.Cell `json:"rows"`
}

type buildConditionRequest struct {
	PreequilibrationConditionID string                   `json:"preequilibration_condition_id,omitempty"`
	Measurements                []ratemod.MeasurementRow `json:"measurements,omitempty"`
	Conditions                  *conditionTableConfig    `json:"conditions,omitempty"`
	Parameters                  []ratemod.ParameterRow   `json:"parameters,omitempty"`
}

func (s *Server) handleBuildCondition(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	modelID, rest := extractModelID(r.URL.Path)
	conditionID := strings.TrimPrefix(rest, "/conditions/")
	if conditionID == "" {
		http.Error(w, "condition ID is required in path: /models/{id}/conditions/{conditionID}", http.StatusBadRequest)
		return
	}

	nm, ok := s.networkModelOr422(w, modelID)
	if !ok {
		return
	}

	var req buildConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	defaultConditions, defaultParameters := s.defaultTables()

	conditions := defaultConditions
	if req.Conditions != nil {
		conditions = ratemod.NewConditionTable(req.Conditions.Columns...)
		for id, cells := range req.Conditions.Rows {
			conditions.AddRow(id, cells)
		}
	}
	if conditions == nil {
		http.Error(w, "no condition table given and no problem bundle loaded", http.StatusBadRequest)
		return
	}

	parameters := defaultParameters
	if req.Parameters != nil {
		parameters = ratemod.NewParameterTable(req.Parameters...)
	}

	start := time.Now()
	built, err := ratemod.ModelForCondition(
		nm,
		conditionID,
		req.PreequilibrationConditionID,
		req.Measurements,
		conditions,
		parameters,
		ratemod.BuildOptions{Warn: s.warningSink()},
	)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.metrics.observeBuild("error", elapsed)
		s.logger.Warnf("Condition build failed: model_id=%s condition=%s error=%v", modelID, conditionID, err)
		switch {
		case errors.Is(err, ratemod.ErrUnknownEntity):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ratemod.ErrUnresolvedReference):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	s.metrics.observeBuild("ok", elapsed)

	data, err := built.Serialize()
	if err != nil {
		http.Error(w, "cannot serialize model: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debugf("Condition model built: model_id=%s condition=%s", modelID, conditionID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /warnings/ws
// Upgrades the connection and streams warning events to the client
func (s *Server) handleWarningsWS(w http.ResponseWriter, r *http.Request) {
	upgrader := s.wsNotifier.Upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	s.wsNotifier.RegisterClient(conn)
	s.logger.Debugf("Warning stream client connected: remote=%s", conn.RemoteAddr())
}

// handleModelRoutes routes requests to model-specific handlers
// Handles paths like /models/{id}, /models/{id}/parameters, etc.
func (s *Server) handleModelRoutes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/models" {
		switch r.Method {
		case http.MethodPost:
			s.handleLoadModel(w, r)
		case http.MethodGet:
			s.handleListModels(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	modelID, remainingPath := extractModelID(r.URL.Path)
	if modelID == "" {
		http.Error(w, "model ID is required in path: /models/{id}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "" && r.Method == http.MethodGet:
		s.handleGetModel(w, r)
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteModel(w, r)
	case remainingPath == "/parameters" && r.Method == http.MethodGet:
		s.handleModelParameters(w, r)
	case remainingPath == "/observables" && r.Method == http.MethodGet:
		s.handleModelObservables(w, r)
	case remainingPath == "/sigmas" && r.Method == http.MethodGet:
		s.handleModelSigmas(w, r)
	case strings.HasPrefix(remainingPath, "/conditions/") && r.Method == http.MethodPost:
		s.handleBuildCondition(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}
