package ratemod

import (
	"os"
	"path/filepath"
	"testing"
)

const bundleModelDocument = `{
	"name": "conversion",
	"parameters": [
		{"id": "k1", "value": 2.0, "constant": true}
	],
	"compartments": [
		{"id": "C1", "size": 1.0}
	],
	"species": [
		{"id": "S1", "compartment": "C1", "initial_concentration": 5.0}
	]
}`

func writeBundleFixture(t *testing.T, bundleYAML string) string {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "model.json"), []byte(bundleModelDocument), 0o644); err != nil {
		t.Fatalf("Failed to write model file: %v", err)
	}
	bundlePath := filepath.Join(tmpDir, "problem.yaml")
	if err := os.WriteFile(bundlePath, []byte(bundleYAML), 0o644); err != nil {
		t.Fatalf("Failed to write bundle file: %v", err)
	}
	return bundlePath
}

func TestLoadProblemBundle(t *testing.T) {
	bundlePath := writeBundleFixture(t, `model:
  id: conversion
  language: network
  file: model.json
conditions:
  columns: [k1, S1]
  rows:
    c1:
      k1: 7.5
      S1: k1_est
parameters:
  - id: k1_est
    nominal_value: 3.0
    scale: log10
    estimate: true
`)

	bundle, err := LoadProblemBundle(bundlePath)
	if err != nil {
		t.Fatalf("Failed to load problem bundle: %v", err)
	}

	if bundle.ModelID != "conversion" {
		t.Errorf("Expected model id 'conversion', got %q", bundle.ModelID)
	}
	if bundle.Model.Language() != LanguageNetwork {
		t.Errorf("Expected network model, got %q", bundle.Model.Language())
	}

	cell, ok := bundle.Conditions.Cell("c1", "k1")
	if !ok || cell.IsRef() || cell.Number != 7.5 {
		t.Errorf("Expected numeric cell 7.5 for c1/k1, got %+v (ok=%v)", cell, ok)
	}
	cell, ok = bundle.Conditions.Cell("c1", "S1")
	if !ok || !cell.IsRef() || cell.Ref != "k1_est" {
		t.Errorf("Expected reference cell k1_est for c1/S1, got %+v (ok=%v)", cell, ok)
	}

	if v, ok := bundle.Parameters.NominalValue("k1_est"); !ok || v != 3.0 {
		t.Errorf("Expected nominal value 3.0 for k1_est, got %v (ok=%v)", v, ok)
	}
	if scale := bundle.Parameters.Scale("k1_est"); scale != "log10" {
		t.Errorf("Expected scale log10, got %q", scale)
	}
}

func TestLoadProblemBundle_MissingModelFields(t *testing.T) {
	bundlePath := writeBundleFixture(t, "model:\n  language: network\n")

	if _, err := LoadProblemBundle(bundlePath); err == nil {
		t.Error("Expected error for bundle without model id and file")
	}
}

func TestLoadProblemBundle_MissingModelFile(t *testing.T) {
	bundlePath := writeBundleFixture(t, "model:\n  id: x\n  language: network\n  file: nope.json\n")

	if _, err := LoadProblemBundle(bundlePath); err == nil {
		t.Error("Expected error for missing model file")
	}
}

func TestLoadProblemBundle_BadLanguage(t *testing.T) {
	bundlePath := writeBundleFixture(t, "model:\n  id: x\n  language: matrix\n  file: model.json\n")

	if _, err := LoadProblemBundle(bundlePath); err == nil {
		t.Error("Expected error for unsupported language tag")
	}
}
