package main

import (
	"github.com/daniacca/ratemod/internal/ratemod"
)

// applyProblemBundle loads a problem bundle and registers its model with
// the server, installing the bundle tables as build defaults.
func applyProblemBundle(s *Server, path string) error {
	bundle, err := ratemod.LoadProblemBundle(path)
	if err != nil {
		return err
	}

	id := ratemod.ModelID(bundle.ModelID)
	if err := s.manager.CreateModel(id, bundle.Model); err != nil {
		// Model already exists, replace it
		if err := s.manager.UpdateModel(id, bundle.Model); err != nil {
			return err
		}
	}
	s.setDefaultTables(bundle.Conditions, bundle.Parameters)
	return nil
}
