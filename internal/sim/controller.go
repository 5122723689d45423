/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/friendsincode/skysched/internal/events"
	"github.com/friendsincode/skysched/internal/formulate"
	"github.com/friendsincode/skysched/internal/ledger"
	"github.com/friendsincode/skysched/internal/site"
	"github.com/friendsincode/skysched/internal/solver"
	"github.com/friendsincode/skysched/internal/telemetry"
)

const tracerName = "skysched/sim"

// SlotSchedule is the outcome of one tick: the assignments chosen for
// that slot, possibly none.
type SlotSchedule struct {
	Slot        int                    `json:"slot"`
	Assignments []formulate.Assignment `json:"assignments"`
	Infeasible  bool                   `json:"infeasible,omitempty"`
}

// Controller executes single simulation ticks. It is the only mutator
// of the ledger.
type Controller struct {
	cfg    Config
	led    *ledger.Ledger
	form   *formulate.Formulator
	solv   solver.Solver
	bus    *events.Bus
	logger zerolog.Logger
}

// NewController wires a tick controller. The bus may be nil when no
// observer cares about events.
func NewController(cfg Config, led *ledger.Ledger, solv solver.Solver, bus *events.Bus, logger zerolog.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Controller{
		cfg:    cfg,
		led:    led,
		form:   formulate.New(logger),
		solv:   solv,
		bus:    bus,
		logger: logger.With().Str("component", "tick_controller").Logger(),
	}, nil
}

// Tick runs one simulation step for the given slot: advance the
// ledger clock, formulate, solve, apply, and return the slot's
// schedule.
//
// An infeasible solve is absorbed: nothing is applied, the schedule is
// empty, and the run continues. A malformed variable name or a
// double-booked solution is a contract violation and returns a hard
// error with nothing applied.
func (c *Controller) Tick(ctx context.Context, slot int) (SlotSchedule, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "sim.tick")
	defer span.End()
	span.SetAttributes(attribute.Int("slot", slot))

	c.led.Advance(slot)

	problem, err := c.form.BuildProblem(c.led, slot)
	if err != nil {
		return SlotSchedule{}, fmt.Errorf("formulate slot %d: %w", slot, err)
	}

	solveStart := time.Now()
	solution, err := c.solve(ctx, problem)
	telemetry.SolverDuration.Observe(time.Since(solveStart).Seconds())

	if errors.Is(err, solver.ErrInfeasible) {
		c.logger.Warn().Int("slot", slot).Msg("infeasible slot, nothing scheduled")
		telemetry.InfeasibleSlotsTotal.Inc()
		c.publish(events.EventSlotEmpty, events.Payload{"slot": slot, "infeasible": true})
		telemetry.TicksTotal.Inc()
		return SlotSchedule{Slot: slot, Infeasible: true}, nil
	}
	if err != nil {
		return SlotSchedule{}, fmt.Errorf("solve slot %d: %w", slot, err)
	}

	schedule, err := c.apply(slot, solution)
	if err != nil {
		return SlotSchedule{}, err
	}

	telemetry.TicksTotal.Inc()
	if len(schedule.Assignments) == 0 {
		c.publish(events.EventSlotEmpty, events.Payload{"slot": slot})
	} else {
		c.publish(events.EventTickScheduled, events.Payload{
			"slot":        slot,
			"assignments": schedule.Assignments,
		})
	}

	return schedule, nil
}

func (c *Controller) solve(ctx context.Context, problem *solver.Problem) (*solver.Solution, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "sim.solve")
	defer span.End()
	span.SetAttributes(attribute.Int("vars", problem.NumVars()))

	return c.solv.Solve(ctx, problem)
}

// apply decodes the selected variables and records one slot-length of
// progress against each assigned job.
func (c *Controller) apply(slot int, solution *solver.Solution) (SlotSchedule, error) {
	schedule := SlotSchedule{Slot: slot}

	seenJobs := make(map[int]bool)
	seenSites := make(map[site.Site]bool)

	for _, name := range solution.SelectedVars() {
		assignment, err := formulate.DecodeAssignment(name)
		if err != nil {
			return SlotSchedule{}, fmt.Errorf("slot %d: %w", slot, err)
		}
		if seenJobs[assignment.JobID] || seenSites[assignment.Site] {
			return SlotSchedule{}, fmt.Errorf("slot %d: %w: job %d at %s",
				slot, ErrDoubleBooking, assignment.JobID, assignment.Site)
		}
		seenJobs[assignment.JobID] = true
		seenSites[assignment.Site] = true

		if err := c.led.Record(assignment.JobID, c.cfg.SlotLength); err != nil {
			return SlotSchedule{}, fmt.Errorf("slot %d: record job %d: %w", slot, assignment.JobID, err)
		}

		telemetry.AssignmentsTotal.WithLabelValues(assignment.Site.String()).Inc()
		c.logger.Info().
			Int("slot", slot).
			Int("job", assignment.JobID).
			Stringer("site", assignment.Site).
			Msg("assignment applied")

		if c.led.IsDone(assignment.JobID) {
			telemetry.JobsCompletedTotal.Inc()
			c.publish(events.EventJobCompleted, events.Payload{
				"slot": slot,
				"job":  assignment.JobID,
			})
		}

		schedule.Assignments = append(schedule.Assignments, assignment)
	}

	return schedule, nil
}

func (c *Controller) publish(eventType events.EventType, payload events.Payload) {
	if c.bus != nil {
		c.bus.Publish(eventType, payload)
	}
}
