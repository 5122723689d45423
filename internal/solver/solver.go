/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInfeasible indicates no assignment satisfies the constraints.
	ErrInfeasible = errors.New("problem is infeasible")

	// ErrDuplicateVar indicates a variable name was declared twice.
	ErrDuplicateVar = errors.New("duplicate variable")

	// ErrUnknownVar indicates a constraint or objective references an
	// undeclared variable.
	ErrUnknownVar = errors.New("unknown variable")
)

// Sense selects the optimization direction.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// Term is a coefficient applied to a named binary variable.
type Term struct {
	Var   string
	Coeff float64
}

// Constraint is a linear inequality: sum(Coeff * Var) <= Bound.
type Constraint struct {
	Label string
	Terms []Term
	Bound float64
}

// Problem is a binary program: a set of {0,1} decision variables,
// linear <= constraints, and a linear objective. Problems are built
// fresh per use and are not safe for concurrent mutation.
type Problem struct {
	vars        []string
	varIndex    map[string]int
	constraints []Constraint
	objective   []Term
	sense       Sense
}

// NewProblem creates an empty problem.
func NewProblem() *Problem {
	return &Problem{varIndex: make(map[string]int)}
}

// AddBinaryVar declares a {0,1} decision variable. Declaration order is
// significant: solvers explore variables in this order, which fixes
// tie-breaking among equal optima.
func (p *Problem) AddBinaryVar(name string) error {
	if _, ok := p.varIndex[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVar, name)
	}
	p.varIndex[name] = len(p.vars)
	p.vars = append(p.vars, name)
	return nil
}

// AddConstraint adds a linear <= inequality over declared variables.
func (p *Problem) AddConstraint(label string, terms []Term, bound float64) error {
	for _, t := range terms {
		if _, ok := p.varIndex[t.Var]; !ok {
			return fmt.Errorf("constraint %s: %w: %s", label, ErrUnknownVar, t.Var)
		}
	}
	p.constraints = append(p.constraints, Constraint{Label: label, Terms: terms, Bound: bound})
	return nil
}

// SetObjective sets the linear objective and direction.
func (p *Problem) SetObjective(terms []Term, sense Sense) error {
	for _, t := range terms {
		if _, ok := p.varIndex[t.Var]; !ok {
			return fmt.Errorf("objective: %w: %s", ErrUnknownVar, t.Var)
		}
	}
	p.objective = terms
	p.sense = sense
	return nil
}

// NumVars returns the number of declared variables.
func (p *Problem) NumVars() int {
	return len(p.vars)
}

// Vars returns variable names in declaration order.
func (p *Problem) Vars() []string {
	out := make([]string, len(p.vars))
	copy(out, p.vars)
	return out
}

// Constraints returns the constraints added so far.
func (p *Problem) Constraints() []Constraint {
	return p.constraints
}

// Solution holds the per-variable outcome of a solve.
type Solution struct {
	selected  map[string]bool
	order     []string
	Objective float64
	Nodes     int
}

// NewSolution creates an empty solution over variables in the given
// order. Mainly useful for solver test doubles.
func NewSolution(order []string) *Solution {
	return &Solution{
		selected: make(map[string]bool, len(order)),
		order:    order,
	}
}

// Select marks the named variable as taking value 1.
func (s *Solution) Select(name string) {
	s.selected[name] = true
	for _, known := range s.order {
		if known == name {
			return
		}
	}
	s.order = append(s.order, name)
}

// Selected reports whether the named variable took value 1.
func (s *Solution) Selected(name string) bool {
	return s.selected[name]
}

// SelectedVars returns the names of all selected variables in
// declaration order.
func (s *Solution) SelectedVars() []string {
	out := make([]string, 0, len(s.selected))
	for _, name := range s.order {
		if s.selected[name] {
			out = append(out, name)
		}
	}
	return out
}

// Solver finds an optimal {0,1} assignment for a problem. Solve blocks
// until an optimum is proven, the context is cancelled, or the problem
// is shown infeasible.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
