package ratemod

import (
	"fmt"
	"sort"
	"sync"
)

// ModelID is a unique identifier for a registered base model
type ModelID string

// ModelManager manages named base models. Registered models are
// treated as shared-read: condition builds clone before mutating, so
// concurrent builds from the same base model are safe.
type ModelManager struct {
	mu     sync.RWMutex
	models map[ModelID]Model
	logger Logger
}

// NewModelManager creates a model manager with a no-op logger.
func NewModelManager() *ModelManager {
	return NewModelManagerWithLogger(NewNoOpLogger())
}

// NewModelManagerWithLogger creates a model manager using the given logger.
func NewModelManagerWithLogger(logger Logger) *ModelManager {
	return &ModelManager{
		models: make(map[ModelID]Model),
		logger: logger,
	}
}

// CreateModel registers a new base model under the given ID.
// Returns an error if a model with that ID already exists.
func (mm *ModelManager) CreateModel(id ModelID, m Model) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, exists := mm.models[id]; exists {
		return fmt.Errorf("model with id %s already exists", id)
	}

	mm.models[id] = m
	mm.logger.Debugf("model registered: model_id=%s language=%s", id, m.Language())
	return nil
}

// UpdateModel replaces the base model registered under the given ID.
// Returns an error if no model with that ID exists.
func (mm *ModelManager) UpdateModel(id ModelID, m Model) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, exists := mm.models[id]; !exists {
		return fmt.Errorf("model with id %s does not exist", id)
	}

	mm.models[id] = m
	mm.logger.Debugf("model replaced: model_id=%s language=%s", id, m.Language())
	return nil
}

// GetModel retrieves a registered model by ID.
// Returns the model and a boolean indicating if it was found.
func (mm *ModelManager) GetModel(id ModelID) (Model, bool) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	m, exists := mm.models[id]
	return m, exists
}

// DeleteModel removes a registered model by ID.
// Returns an error if the model doesn't exist.
func (mm *ModelManager) DeleteModel(id ModelID) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, exists := mm.models[id]; !exists {
		return fmt.Errorf("model with id %s does not exist", id)
	}

	delete(mm.models, id)
	return nil
}

// ListModels returns all registered model IDs, sorted.
func (mm *ModelManager) ListModels() []ModelID {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	ids := make([]ModelID, 0, len(mm.models))
	for id := range mm.models {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
