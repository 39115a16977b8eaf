package main

import (
	"sync"

	"github.com/daniacca/ratemod/internal/ratemod"
	ratemodnotifiers "github.com/daniacca/ratemod/internal/ratemod/notifiers"
)

// ratemodLoggerAdapter adapts the server's Logger to the ratemod.Logger interface
type ratemodLoggerAdapter struct {
	logger *Logger
}

func (a *ratemodLoggerAdapter) Debugf(format string, v ...any) {
	a.logger.Debugf(format, v...)
}

func (a *ratemodLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Infof(format, v...)
}

func (a *ratemodLoggerAdapter) Warnf(format string, v ...any) {
	a.logger.Warnf(format, v...)
}

func (a *ratemodLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Errorf(format, v...)
}

// Server represents the HTTP server for the model store
type Server struct {
	manager    *ratemod.ModelManager
	warningMgr *ratemod.WarningManager
	wsNotifier *ratemodnotifiers.WebSocketNotifier
	metrics    *Metrics
	logger     *Logger

	mu                sync.RWMutex
	defaultConditions *ratemod.ConditionTable
	defaultParameters *ratemod.ParameterTable
}

// NewServer creates a new server instance
func NewServer(logger *Logger) *Server {
	ratemodLogger := &ratemodLoggerAdapter{logger: logger}
	warningMgr := ratemod.NewWarningManagerWithLogger(ratemodLogger)
	wsNotifier := ratemodnotifiers.NewWebSocketNotifier("warnings-ws")

	// The websocket notifier streams every warning to connected clients.
	if err := warningMgr.RegisterNotifier(wsNotifier); err != nil {
		logger.Errorf("Failed to register websocket notifier: %v", err)
	}

	return &Server{
		manager:    ratemod.NewModelManagerWithLogger(ratemodLogger),
		warningMgr: warningMgr,
		wsNotifier: wsNotifier,
		metrics:    NewMetrics(),
		logger:     logger,
	}
}

// setDefaultTables installs the tables used when a condition build request
// does not carry its own.
func (s *Server) setDefaultTables(conditions *ratemod.ConditionTable, parameters *ratemod.ParameterTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultConditions = conditions
	s.defaultParameters = parameters
}

func (s *Server) defaultTables() (*ratemod.ConditionTable, *ratemod.ParameterTable) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultConditions, s.defaultParameters
}

// warningSink returns the sink wired into condition builds: it counts the
// warning, logs it, and fans it out to the registered notifiers.
func (s *Server) warningSink() ratemod.WarningSink {
	return func(event ratemod.WarningEvent) {
		s.metrics.countWarning(string(event.Kind))
		s.logger.Warnf("Model warning: kind=%s model=%s condition=%s target=%s message=%s",
			event.Kind, event.ModelName, event.ConditionID, event.Target, event.Message)
		s.warningMgr.Emit(event)
	}
}

// Close shuts down the warning pipeline.
func (s *Server) Close() {
	s.warningMgr.Close()
}
