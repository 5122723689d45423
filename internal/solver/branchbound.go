/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// ctxCheckInterval bounds how many search nodes are expanded between
// context cancellation checks.
const ctxCheckInterval = 1024

// BranchBound is an exact depth-first branch-and-bound solver for
// binary programs. It is deterministic: variables are explored in
// declaration order with the "selected" branch first, and the incumbent
// is only replaced on a strictly better objective, so among equal
// optima the solution selecting the earliest-declared variables wins.
type BranchBound struct {
	logger zerolog.Logger
}

// NewBranchBound creates a branch-and-bound solver.
func NewBranchBound(logger zerolog.Logger) *BranchBound {
	return &BranchBound{logger: logger.With().Str("component", "solver").Logger()}
}

// conRef records that a variable appears in constraint ci with the
// given coefficient.
type conRef struct {
	ci    int
	coeff float64
}

type searchState struct {
	problem *Problem
	coeffs  []float64 // objective coefficient per variable (maximize form)
	suffix  []float64 // suffix[i] = max objective gain from vars i..n-1
	conLHS  []float64 // running left-hand side per constraint
	conRefs [][]conRef
	hasNeg  []bool // constraint has a negative coefficient
	assign  []bool
	best    []bool
	bestVal float64
	found   bool
	nodes   int
}

// Solve runs the search to optimality. A zero-variable problem solves
// immediately to the empty assignment with objective 0.
func (s *BranchBound) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if p == nil {
		return nil, fmt.Errorf("nil problem")
	}

	n := len(p.vars)

	st := &searchState{
		problem: p,
		coeffs:  make([]float64, n),
		suffix:  make([]float64, n+1),
		conLHS:  make([]float64, len(p.constraints)),
		conRefs: make([][]conRef, n),
		hasNeg:  make([]bool, len(p.constraints)),
		assign:  make([]bool, n),
		bestVal: math.Inf(-1),
	}

	sign := 1.0
	if p.sense == Minimize {
		sign = -1.0
	}
	for _, t := range p.objective {
		st.coeffs[p.varIndex[t.Var]] += sign * t.Coeff
	}
	for i := n - 1; i >= 0; i-- {
		st.suffix[i] = st.suffix[i+1]
		if st.coeffs[i] > 0 {
			st.suffix[i] += st.coeffs[i]
		}
	}
	for ci, c := range p.constraints {
		for _, t := range c.Terms {
			vi := p.varIndex[t.Var]
			st.conRefs[vi] = append(st.conRefs[vi], conRef{ci: ci, coeff: t.Coeff})
			if t.Coeff < 0 {
				st.hasNeg[ci] = true
			}
		}
	}

	if err := s.search(ctx, st, 0, 0); err != nil {
		return nil, err
	}

	if !st.found {
		return nil, ErrInfeasible
	}

	sol := &Solution{
		selected:  make(map[string]bool, n),
		order:     p.Vars(),
		Objective: sign * st.bestVal,
		Nodes:     st.nodes,
	}
	for i, v := range st.best {
		if v {
			sol.selected[p.vars[i]] = true
		}
	}

	s.logger.Debug().
		Int("vars", n).
		Int("constraints", len(p.constraints)).
		Int("nodes", st.nodes).
		Float64("objective", sol.Objective).
		Msg("solve complete")

	return sol, nil
}

func (s *BranchBound) search(ctx context.Context, st *searchState, depth int, current float64) error {
	st.nodes++
	if st.nodes%ctxCheckInterval == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if depth == len(st.assign) {
		if !s.feasible(st) {
			return nil
		}
		if !st.found || current > st.bestVal {
			st.found = true
			st.bestVal = current
			st.best = append(st.best[:0], st.assign...)
		}
		return nil
	}

	// Bound: even taking every remaining positive coefficient cannot
	// strictly beat the incumbent.
	if st.found && current+st.suffix[depth] <= st.bestVal {
		return nil
	}

	// Selected branch first so equal optima resolve toward
	// earlier-declared variables.
	st.assign[depth] = true
	if !s.pruneSelected(st, depth) {
		for _, ref := range st.conRefs[depth] {
			st.conLHS[ref.ci] += ref.coeff
		}
		if err := s.search(ctx, st, depth+1, current+st.coeffs[depth]); err != nil {
			return err
		}
		for _, ref := range st.conRefs[depth] {
			st.conLHS[ref.ci] -= ref.coeff
		}
	}

	st.assign[depth] = false
	return s.search(ctx, st, depth+1, current)
}

// pruneSelected rejects the selected branch when taking the variable
// already exceeds a constraint bound. Only applied to constraints with
// no negative coefficients; mixed-sign constraints are verified at the
// leaves instead.
func (s *BranchBound) pruneSelected(st *searchState, vi int) bool {
	for _, ref := range st.conRefs[vi] {
		if st.hasNeg[ref.ci] {
			continue
		}
		if st.conLHS[ref.ci]+ref.coeff > st.problem.constraints[ref.ci].Bound {
			return true
		}
	}
	return false
}

// feasible verifies every constraint against a complete assignment.
func (s *BranchBound) feasible(st *searchState) bool {
	for _, c := range st.problem.constraints {
		lhs := 0.0
		for _, t := range c.Terms {
			if st.assign[st.problem.varIndex[t.Var]] {
				lhs += t.Coeff
			}
		}
		if lhs > c.Bound {
			return false
		}
	}
	return true
}
