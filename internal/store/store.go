/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store persists completed simulation runs and serves queries
// over them. The simulation core never touches the database; callers
// hand a finished timetable here.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/skysched/internal/models"
	"github.com/friendsincode/skysched/internal/sim"
)

// ErrRunNotFound indicates an unknown run id.
var ErrRunNotFound = errors.New("simulation run not found")

// Store persists simulation runs.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a store.
func New(database *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     database,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// SaveRun persists a completed run with its full timetable in a single
// transaction and returns the stored record.
func (s *Store) SaveRun(ctx context.Context, cfg sim.Config, source models.RunSource, tt *sim.Timetable) (*models.SimulationRun, error) {
	completed := 0
	for _, j := range tt.Jobs {
		if j.Done {
			completed++
		}
	}

	run := &models.SimulationRun{
		ID:              uuid.NewString(),
		Source:          source,
		Timeslots:       cfg.Timeslots,
		SlotLength:      cfg.SlotLength,
		JobCount:        len(tt.Jobs),
		CompletedJobs:   completed,
		InfeasibleSlots: tt.InfeasibleSlots,
		Started:         tt.Started,
		Finished:        tt.Finished,
	}

	for _, slot := range tt.Slots {
		for _, a := range slot.Assignments {
			run.Entries = append(run.Entries, models.ScheduleEntry{
				ID:    uuid.NewString(),
				Slot:  slot.Slot,
				JobID: a.JobID,
				Site:  a.Site.String(),
			})
		}
	}

	for _, j := range tt.Jobs {
		run.Outcomes = append(run.Outcomes, models.JobOutcome{
			ID:            uuid.NewString(),
			JobID:         j.ID,
			Priority:      j.Priority,
			AllocatedTime: j.AllocatedTime,
			ObsTime:       j.ObsTime,
			UsedTime:      j.UsedTime,
			Done:          j.Done,
		})
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Int("entries", len(run.Entries)).
		Int("completed_jobs", run.CompletedJobs).
		Msg("run persisted")

	return run, nil
}

// GetRun returns a run with its timetable.
func (s *Store) GetRun(ctx context.Context, runID string) (*models.SimulationRun, error) {
	var run models.SimulationRun
	err := s.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("slot ASC, job_id ASC")
		}).
		Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("job_id ASC")
		}).
		Where("id = ?", runID).
		First(&run).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return &run, nil
}

// ListRuns returns run summaries, newest first, without timetables.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.SimulationRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var runs []models.SimulationRun
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
