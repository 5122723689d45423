/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skysched/internal/events"
	"github.com/friendsincode/skysched/internal/ledger"
	"github.com/friendsincode/skysched/internal/solver"
	"github.com/friendsincode/skysched/internal/telemetry"
)

// Timetable is the observable output of a run: every slot's schedule
// in order, the final state of every job, and run counters.
type Timetable struct {
	Slots           []SlotSchedule  `json:"slots"`
	Jobs            []ledger.Status `json:"jobs"`
	InfeasibleSlots int             `json:"infeasible_slots"`
	Started         time.Time       `json:"started"`
	Finished        time.Time       `json:"finished"`
}

// Runner drives the controller across every slot of a simulation, in
// strictly increasing order with no concurrency between ticks.
type Runner struct {
	cfg    Config
	ctrl   *Controller
	bus    *events.Bus
	logger zerolog.Logger
}

// NewRunner builds a runner over a fresh controller.
func NewRunner(cfg Config, led *ledger.Ledger, solv solver.Solver, bus *events.Bus, logger zerolog.Logger) (*Runner, error) {
	ctrl, err := NewController(cfg, led, solv, bus, logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:    cfg,
		ctrl:   ctrl,
		bus:    bus,
		logger: logger.With().Str("component", "runner").Logger(),
	}, nil
}

// Run executes slots 0..Timeslots-1. The context is checked between
// ticks only — a tick is never interrupted mid-apply. A per-tick hard
// error (contract violation) aborts the run; infeasible slots do not.
func (r *Runner) Run(ctx context.Context) (*Timetable, error) {
	telemetry.ActiveRuns.Inc()
	defer telemetry.ActiveRuns.Dec()

	tt := &Timetable{Started: time.Now()}

	for slot := 0; slot < r.cfg.Timeslots; slot++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled before slot %d: %w", slot, err)
		}

		schedule, err := r.ctrl.Tick(ctx, slot)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", slot, err)
		}
		if schedule.Infeasible {
			tt.InfeasibleSlots++
		}
		tt.Slots = append(tt.Slots, schedule)
	}

	tt.Jobs = r.ctrl.led.Snapshot()
	tt.Finished = time.Now()

	completed := 0
	for _, j := range tt.Jobs {
		if j.Done {
			completed++
		}
	}
	r.logger.Info().
		Int("timeslots", r.cfg.Timeslots).
		Int("jobs", len(tt.Jobs)).
		Int("completed", completed).
		Int("infeasible_slots", tt.InfeasibleSlots).
		Msg("simulation complete")

	if r.bus != nil {
		r.bus.Publish(events.EventRunCompleted, events.Payload{
			"timeslots": r.cfg.Timeslots,
			"jobs":      len(tt.Jobs),
			"completed": completed,
		})
	}

	return tt, nil
}
