/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/skysched/internal/events"
	"github.com/friendsincode/skysched/internal/ledger"
	"github.com/friendsincode/skysched/internal/models"
	"github.com/friendsincode/skysched/internal/sim"
	"github.com/friendsincode/skysched/internal/solver"
	"github.com/friendsincode/skysched/internal/store"
	"github.com/friendsincode/skysched/internal/workload"
)

// API exposes HTTP handlers for launching and querying simulation runs.
type API struct {
	store  *store.Store
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates the API handler set.
func New(st *store.Store, bus *events.Bus, logger zerolog.Logger) *API {
	return &API{
		store:  st,
		bus:    bus,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts the API under the given router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", a.handleCreateRun)
		r.Get("/runs", a.handleListRuns)
		r.Get("/runs/{runID}", a.handleGetRun)
	})
}

// handleCreateRun accepts a workload spec, executes the simulation
// synchronously, persists the result, and returns the stored run.
func (a *API) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var spec workload.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := spec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := spec.SimConfig()
	led := ledger.New(cfg.Timeslots, a.logger)
	if err := spec.Populate(led); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runner, err := sim.NewRunner(cfg, led, solver.NewBranchBound(a.logger), a.bus, a.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	timetable, err := runner.Run(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("simulation failed")
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	run, err := a.store.SaveRun(r.Context(), cfg, models.RunSourceAPI, timetable)
	if err != nil {
		a.logger.Error().Err(err).Msg("persist run failed")
		writeError(w, http.StatusInternalServerError, "failed to persist run")
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (a *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	runs, err := a.store.ListRuns(r.Context(), limit)
	if err != nil {
		a.logger.Error().Err(err).Msg("list runs failed")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (a *API) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := a.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("get run failed")
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
