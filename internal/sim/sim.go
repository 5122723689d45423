/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sim drives the per-slot simulation: advance the ledger
// clock, formulate the slot's assignment problem, solve it, apply the
// selected assignments, and collect the overall timetable. Ticks form
// a strict causal chain — slot t+1's problem depends on the progress
// applied in slot t — so a run is fully sequential.
package sim

import (
	"errors"
	"fmt"
	"time"
)

// Config parameterizes one simulation. Both values are fixed at
// construction.
type Config struct {
	Timeslots  int           // number of discrete slots, > 0
	SlotLength time.Duration // simulated length of each slot, > 0
}

// Validate rejects configurations before any tick runs.
func (c Config) Validate() error {
	if c.Timeslots <= 0 {
		return fmt.Errorf("timeslots must be positive, got %d", c.Timeslots)
	}
	if c.SlotLength <= 0 {
		return fmt.Errorf("slot length must be positive, got %v", c.SlotLength)
	}
	return nil
}

var (
	// ErrDoubleBooking indicates a solution assigned the same job or
	// site twice within one slot. The exclusivity constraints make this
	// impossible for a conforming solver; seeing it means the solver
	// violated its contract.
	ErrDoubleBooking = errors.New("double booking in solution")
)
