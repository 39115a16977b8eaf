package main

import (
	"net/http"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	srv := NewServer(logger)
	defer srv.Close()

	if cfg.ProblemFile != "" {
		if err := applyProblemBundle(srv, cfg.ProblemFile); err != nil {
			logger.Fatalf("Failed to load problem bundle %s: %v", cfg.ProblemFile, err)
		}
		logger.Infof("Problem bundle loaded: file=%s", cfg.ProblemFile)
		srv.metrics.setModelsLoaded(len(srv.manager.ListModels()))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/models", srv.handleModelRoutes)
	mux.HandleFunc("/models/", srv.handleModelRoutes)
	mux.HandleFunc("/warnings/ws", srv.handleWarningsWS)
	mux.Handle("/metrics", srv.metrics.Handler())

	logger.Infof("ratemod-server listening on %s", cfg.Addr)
	logger.Fatalf("%v", http.ListenAndServe(cfg.Addr, mux))
}
