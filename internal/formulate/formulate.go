/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package formulate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skysched/internal/ledger"
	"github.com/friendsincode/skysched/internal/site"
	"github.com/friendsincode/skysched/internal/solver"
)

// assignmentPrefix starts every decision-variable name handed to the
// solver. The full format is "obs_<job id>_<site label>".
const assignmentPrefix = "obs_"

// ErrBadAssignment indicates a variable name that does not decode to a
// (job, site) pair. Seeing one in a solution is a contract violation
// between formulation and solver.
var ErrBadAssignment = errors.New("malformed assignment identifier")

// Assignment pairs a job with the site it was scheduled at.
type Assignment struct {
	JobID int       `json:"job_id"`
	Site  site.Site `json:"site"`
}

// EncodeAssignment renders the solver-facing variable name for a
// (job, site) pair.
func EncodeAssignment(jobID int, s site.Site) string {
	return fmt.Sprintf("%s%d_%s", assignmentPrefix, jobID, s)
}

// DecodeAssignment recovers the (job, site) pair from a variable name.
// It is the exact inverse of EncodeAssignment.
func DecodeAssignment(name string) (Assignment, error) {
	rest, ok := strings.CutPrefix(name, assignmentPrefix)
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %q", ErrBadAssignment, name)
	}

	idStr, label, ok := strings.Cut(rest, "_")
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %q", ErrBadAssignment, name)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil || id < 0 {
		return Assignment{}, fmt.Errorf("%w: %q", ErrBadAssignment, name)
	}

	s, err := site.Parse(label)
	if err != nil {
		return Assignment{}, fmt.Errorf("%w: %q", ErrBadAssignment, name)
	}

	return Assignment{JobID: id, Site: s}, nil
}

// Formulator builds the per-slot assignment problem from ledger state.
type Formulator struct {
	logger zerolog.Logger
}

// New creates a formulator.
func New(logger zerolog.Logger) *Formulator {
	return &Formulator{logger: logger.With().Str("component", "formulator").Logger()}
}

// BuildProblem constructs the binary program for one slot:
//
//   - one {0,1} variable per (active job, eligible site) pair
//   - per job eligible at both sites, x_GN + x_GS <= 1
//   - per site, the sum of that site's variables <= 1
//   - objective: maximize sum of priority-weighted variables
//
// Completed jobs and jobs with no eligible site this slot get no
// variables. A problem with zero variables is valid and solves to the
// empty assignment.
func (f *Formulator) BuildProblem(led *ledger.Ledger, slot int) (*solver.Problem, error) {
	p := solver.NewProblem()

	siteTerms := make(map[site.Site][]solver.Term)
	var objective []solver.Term

	for id := 0; id < led.NumJobs(); id++ {
		if led.IsDone(id) {
			continue
		}

		eligible := led.EligibleSites(id, slot)
		var jobTerms []solver.Term
		for _, s := range site.All() {
			if !eligible.Contains(s) {
				continue
			}
			name := EncodeAssignment(id, s)
			if err := p.AddBinaryVar(name); err != nil {
				return nil, fmt.Errorf("declare %s: %w", name, err)
			}
			term := solver.Term{Var: name, Coeff: 1}
			jobTerms = append(jobTerms, term)
			siteTerms[s] = append(siteTerms[s], term)
			objective = append(objective, solver.Term{Var: name, Coeff: led.Priority(id)})
		}

		// A job eligible at both sites may occupy at most one of them.
		if len(jobTerms) == 2 {
			label := fmt.Sprintf("c_not_both_%d", id)
			if err := p.AddConstraint(label, jobTerms, 1); err != nil {
				return nil, fmt.Errorf("add %s: %w", label, err)
			}
		}
	}

	// Each site hosts at most one job this slot.
	for _, s := range site.All() {
		label := fmt.Sprintf("c_site_%s", s)
		if err := p.AddConstraint(label, siteTerms[s], 1); err != nil {
			return nil, fmt.Errorf("add %s: %w", label, err)
		}
	}

	if err := p.SetObjective(objective, solver.Maximize); err != nil {
		return nil, fmt.Errorf("set objective: %w", err)
	}

	f.logger.Debug().
		Int("slot", slot).
		Int("vars", p.NumVars()).
		Int("constraints", len(p.Constraints())).
		Msg("problem formulated")

	return p, nil
}
