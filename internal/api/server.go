package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atenea-cash/atenea-backend/internal/api/handlers"
	"github.com/atenea-cash/atenea-backend/internal/api/middleware"
	"github.com/atenea-cash/atenea-backend/internal/application/importer"
	"github.com/atenea-cash/atenea-backend/internal/application/reconcile"
	"github.com/atenea-cash/atenea-backend/internal/application/report"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	engine     *reconcile.Engine
	importer   *importer.Importer
	reports    *report.Service
}

// NewServer creates a new API server.
func NewServer(cfg Config, repo storage.Repository, engine *reconcile.Engine, imp *importer.Importer, reports *report.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		repo:     repo,
		engine:   engine,
		importer: imp,
		reports:  reports,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Transfers
		transfersHandler := handlers.NewTransfersHandler(s.repo, s.engine)
		r.Post("/transfers", transfersHandler.Create)
		r.Get("/transfers", transfersHandler.List)
		r.Get("/transfers/{id}", transfersHandler.Get)
		r.Patch("/transfers/{id}", transfersHandler.Update)
		r.Put("/transfers/{id}", transfersHandler.Update)
		r.Delete("/transfers/{id}", transfersHandler.Delete)
		r.Post("/transfers/{id}/match", transfersHandler.Match)
		r.Get("/transfers/{id}/explain", transfersHandler.Explain)
		r.Post("/transfers/{id}/fraud", transfersHandler.FlagFraud)
		r.Post("/transfers/{id}/receipt", transfersHandler.AttachReceipt)
		r.Get("/transfers/{id}/audit", transfersHandler.Audit)

		// Users
		usersHandler := handlers.NewUsersHandler(s.repo)
		r.Post("/users", usersHandler.Create)
		r.Get("/users", usersHandler.Search)
		r.Get("/users/search", usersHandler.Search)
		r.Get("/users/{id}", usersHandler.Get)
		r.Patch("/users/{id}", usersHandler.Update)
		r.Put("/users/{id}", usersHandler.Update)

		// Wallet movements
		movementsHandler := handlers.NewMovementsHandler(s.repo, s.importer, s.reports)
		r.Post("/movements/import", movementsHandler.Import)
		r.Get("/movements/orphans", movementsHandler.Orphans)

		// Batch reconciliation
		syncHandler := handlers.NewSyncHandler(s.repo, s.engine)
		r.Post("/sync", syncHandler.Run)

		// Batch run history
		runsHandler := handlers.NewRunsHandler(s.repo)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)

		// Reports
		reportsHandler := handlers.NewReportsHandler(s.repo, s.reports)
		r.Get("/reports/daily", reportsHandler.DailyTotals)
		r.Get("/dashboard", reportsHandler.Dashboard)
		r.Get("/stats", reportsHandler.Stats)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
