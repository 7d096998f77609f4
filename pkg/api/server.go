// Package api wires the §6 HTTP/JSON and WebSocket external interfaces
// onto the simulation kernel's persistence, generator, and engine layers.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neg-0/overwatch/pkg/broadcast"
	"github.com/neg-0/overwatch/pkg/config"
	"github.com/neg-0/overwatch/pkg/metrics"
	"github.com/neg-0/overwatch/pkg/scenario"
	"github.com/neg-0/overwatch/pkg/simulation"
	"github.com/neg-0/overwatch/pkg/store"
)

// Server is the HTTP API server — the thin transport boundary described in
// §6. Routes translate requests directly onto the store/generator/
// simulation/broadcast layers; there is no separate service layer.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	cfg       *config.Config
	store     *store.Client
	generator *scenario.Generator
	sim       *simulation.Controller
	hub       *broadcast.Hub
	log       *slog.Logger
}

// New builds a Server and registers every route.
func New(cfg *config.Config, st *store.Client, gen *scenario.Generator, sim *simulation.Controller, hub *broadcast.Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(securityHeaders())
	e.Use(corsMiddleware(cfg.Server.CORSOrigin))

	s := &Server{engine: e, cfg: cfg, store: st, generator: gen, sim: sim, hub: hub, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.engine.Group("/api")
	api.POST("/scenarios/generate", s.generateScenarioHandler)
	api.DELETE("/scenarios/:id", s.deleteScenarioHandler)
	api.GET("/scenarios/:id", s.getScenarioHandler)

	api.GET("/scenarios/:id/events", s.listEventsHandler)
	api.GET("/scenarios/:id/decisions", s.listDecisionsHandler)
	api.GET("/scenarios/:id/ingest", s.listIngestLogsHandler)

	api.GET("/scenarios/:id/simulation", s.getSimulationStateHandler)
	api.POST("/scenarios/:id/simulation/start", s.startSimulationHandler)
	api.POST("/scenarios/:id/simulation/pause", s.pauseSimulationHandler)
	api.POST("/scenarios/:id/simulation/resume", s.resumeSimulationHandler)
	api.POST("/scenarios/:id/simulation/stop", s.stopSimulationHandler)
	api.PUT("/scenarios/:id/simulation/speed", s.setSimulationSpeedHandler)
	api.POST("/scenarios/:id/simulation/seek", s.seekSimulationHandler)

	api.GET("/scenarios/:id/ws", s.wsHandler)
}

// Start begins serving on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
