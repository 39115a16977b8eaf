package ratemod

import "testing"

func TestModelManager_CreateAndGet(t *testing.T) {
	mm := NewModelManager()
	m := &RuleNetModel{doc: RuleNetDocument{Name: "m"}}

	if err := mm.CreateModel("base", m); err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	if err := mm.CreateModel("base", m); err == nil {
		t.Error("Expected error creating duplicate model ID")
	}

	got, exists := mm.GetModel("base")
	if !exists {
		t.Fatal("Model not found")
	}
	if got.Name() != "m" {
		t.Errorf("Expected name 'm', got '%s'", got.Name())
	}

	if _, exists := mm.GetModel("ghost"); exists {
		t.Error("Expected ghost model to be absent")
	}
}

func TestModelManager_UpdateModel(t *testing.T) {
	mm := NewModelManager()

	if err := mm.UpdateModel("base", &RuleNetModel{}); err == nil {
		t.Error("Expected error updating unknown model")
	}

	if err := mm.CreateModel("base", &RuleNetModel{doc: RuleNetDocument{Name: "v1"}}); err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	if err := mm.UpdateModel("base", &RuleNetModel{doc: RuleNetDocument{Name: "v2"}}); err != nil {
		t.Fatalf("Failed to update model: %v", err)
	}

	got, _ := mm.GetModel("base")
	if got.Name() != "v2" {
		t.Errorf("Expected updated model 'v2', got '%s'", got.Name())
	}
}

func TestModelManager_DeleteAndList(t *testing.T) {
	mm := NewModelManager()

	if err := mm.DeleteModel("ghost"); err == nil {
		t.Error("Expected error deleting unknown model")
	}

	_ = mm.CreateModel("b", &RuleNetModel{})
	_ = mm.CreateModel("a", &RuleNetModel{})

	ids := mm.ListModels()
	if len(ids) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(ids))
	}
	if ids[0] != "a" || ids[1] != "b" {
		t.Errorf("Expected sorted ids [a b], got %v", ids)
	}

	if err := mm.DeleteModel("a"); err != nil {
		t.Fatalf("Failed to delete model: %v", err)
	}
	if len(mm.ListModels()) != 1 {
		t.Error("Expected 1 model after delete")
	}
}
