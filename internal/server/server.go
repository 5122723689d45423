/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/friendsincode/skysched/internal/api"
	"github.com/friendsincode/skysched/internal/config"
	"github.com/friendsincode/skysched/internal/db"
	"github.com/friendsincode/skysched/internal/events"
	"github.com/friendsincode/skysched/internal/store"
	"github.com/friendsincode/skysched/internal/telemetry"
)

// Server bundles the HTTP API and its supporting services.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	router chi.Router

	database *gorm.DB
	store    *store.Store
	api      *api.API
	bus      *events.Bus
}

// New connects the database, runs migrations, and assembles the router.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if err := db.RegisterCallbacks(database); err != nil {
		return nil, fmt.Errorf("register db callbacks: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		database: database,
		store:    store.New(database, logger),
		bus:      events.NewBus(),
	}
	s.api = api.New(s.store, s.bus, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.MetricsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	s.api.Routes(r)

	s.router = r
	return s, nil
}

// HTTPServer returns the configured API server.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.HTTPBind, s.cfg.HTTPPort),
		Handler:           otelhttp.NewHandler(s.router, "skysched-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// MetricsServer returns the prometheus metrics listener.
func (s *Server) MetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	return &http.Server{
		Addr:              s.cfg.MetricsBind,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	return db.Close(s.database)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.database.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
