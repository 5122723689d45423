/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func mustProblem(t *testing.T, vars []string, constraints []Constraint, objective []Term, sense Sense) *Problem {
	t.Helper()

	p := NewProblem()
	for _, v := range vars {
		if err := p.AddBinaryVar(v); err != nil {
			t.Fatalf("add var %s: %v", v, err)
		}
	}
	for _, c := range constraints {
		if err := p.AddConstraint(c.Label, c.Terms, c.Bound); err != nil {
			t.Fatalf("add constraint %s: %v", c.Label, err)
		}
	}
	if err := p.SetObjective(objective, sense); err != nil {
		t.Fatalf("set objective: %v", err)
	}
	return p
}

func TestSolvePicksHigherPriority(t *testing.T) {
	// Two jobs competing for one site; the heavier weight wins.
	p := mustProblem(t,
		[]string{"obs_0_GN", "obs_1_GN"},
		[]Constraint{{
			Label: "c_site_GN",
			Terms: []Term{{Var: "obs_0_GN", Coeff: 1}, {Var: "obs_1_GN", Coeff: 1}},
			Bound: 1,
		}},
		[]Term{{Var: "obs_0_GN", Coeff: 1}, {Var: "obs_1_GN", Coeff: 2}},
		Maximize,
	)

	sol, err := NewBranchBound(zerolog.Nop()).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Objective != 2 {
		t.Errorf("objective = %v, want 2", sol.Objective)
	}
	if got := sol.SelectedVars(); !reflect.DeepEqual(got, []string{"obs_1_GN"}) {
		t.Errorf("selected = %v, want [obs_1_GN]", got)
	}
}

func TestSolveTieBreaksByDeclarationOrder(t *testing.T) {
	// Equal weights: the earlier-declared variable must win so repeated
	// solves of identical problems give identical schedules.
	p := mustProblem(t,
		[]string{"obs_0_GN", "obs_1_GN"},
		[]Constraint{{
			Label: "c_site_GN",
			Terms: []Term{{Var: "obs_0_GN", Coeff: 1}, {Var: "obs_1_GN", Coeff: 1}},
			Bound: 1,
		}},
		[]Term{{Var: "obs_0_GN", Coeff: 5}, {Var: "obs_1_GN", Coeff: 5}},
		Maximize,
	)

	for i := 0; i < 5; i++ {
		sol, err := NewBranchBound(zerolog.Nop()).Solve(context.Background(), p)
		if err != nil {
			t.Fatalf("solve %d: %v", i, err)
		}
		if got := sol.SelectedVars(); !reflect.DeepEqual(got, []string{"obs_0_GN"}) {
			t.Fatalf("solve %d selected %v, want [obs_0_GN]", i, got)
		}
	}
}

func TestSolveAtMostOneOfPair(t *testing.T) {
	// One job eligible at both sites: both variables are profitable but
	// the pair constraint admits only one.
	p := mustProblem(t,
		[]string{"obs_0_GN", "obs_0_GS"},
		[]Constraint{{
			Label: "c_not_both_0",
			Terms: []Term{{Var: "obs_0_GN", Coeff: 1}, {Var: "obs_0_GS", Coeff: 1}},
			Bound: 1,
		}},
		[]Term{{Var: "obs_0_GN", Coeff: 3}, {Var: "obs_0_GS", Coeff: 3}},
		Maximize,
	)

	sol, err := NewBranchBound(zerolog.Nop()).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Objective != 3 {
		t.Errorf("objective = %v, want 3", sol.Objective)
	}
	if got := sol.SelectedVars(); !reflect.DeepEqual(got, []string{"obs_0_GN"}) {
		t.Errorf("selected = %v, want [obs_0_GN]", got)
	}
}

func TestSolveTwoSitesTwoJobs(t *testing.T) {
	// Two jobs, each eligible at both sites. Both should run, and the
	// lexicographically smallest optimum puts job 0 at GN.
	terms := func(vars ...string) []Term {
		out := make([]Term, len(vars))
		for i, v := range vars {
			out[i] = Term{Var: v, Coeff: 1}
		}
		return out
	}

	p := mustProblem(t,
		[]string{"obs_0_GN", "obs_0_GS", "obs_1_GN", "obs_1_GS"},
		[]Constraint{
			{Label: "c_not_both_0", Terms: terms("obs_0_GN", "obs_0_GS"), Bound: 1},
			{Label: "c_not_both_1", Terms: terms("obs_1_GN", "obs_1_GS"), Bound: 1},
			{Label: "c_site_GN", Terms: terms("obs_0_GN", "obs_1_GN"), Bound: 1},
			{Label: "c_site_GS", Terms: terms("obs_0_GS", "obs_1_GS"), Bound: 1},
		},
		[]Term{
			{Var: "obs_0_GN", Coeff: 2}, {Var: "obs_0_GS", Coeff: 2},
			{Var: "obs_1_GN", Coeff: 1}, {Var: "obs_1_GS", Coeff: 1},
		},
		Maximize,
	)

	sol, err := NewBranchBound(zerolog.Nop()).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Objective != 3 {
		t.Errorf("objective = %v, want 3", sol.Objective)
	}
	if got := sol.SelectedVars(); !reflect.DeepEqual(got, []string{"obs_0_GN", "obs_1_GS"}) {
		t.Errorf("selected = %v, want [obs_0_GN obs_1_GS]", got)
	}
}

func TestSolveInfeasible(t *testing.T) {
	p := mustProblem(t,
		[]string{"x"},
		[]Constraint{{Label: "impossible", Terms: []Term{{Var: "x", Coeff: 1}}, Bound: -1}},
		[]Term{{Var: "x", Coeff: 1}},
		Maximize,
	)

	_, err := NewBranchBound(zerolog.Nop()).Solve(context.Background(), p)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err = %v, want ErrInfeasible", err)
	}
}

func TestSolveEmptyProblem(t *testing.T) {
	p := NewProblem()
	if err := p.AddConstraint("c_site_GN", nil, 1); err != nil {
		t.Fatalf("add constraint: %v", err)
	}
	if err := p.SetObjective(nil, Maximize); err != nil {
		t.Fatalf("set objective: %v", err)
	}

	sol, err := NewBranchBound(zerolog.Nop()).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Objective != 0 {
		t.Errorf("objective = %v, want 0", sol.Objective)
	}
	if got := sol.SelectedVars(); len(got) != 0 {
		t.Errorf("selected = %v, want none", got)
	}
}

func TestSolveMinimize(t *testing.T) {
	p := mustProblem(t,
		[]string{"a", "b"},
		[]Constraint{{
			Label: "cap",
			Terms: []Term{{Var: "a", Coeff: 1}, {Var: "b", Coeff: 1}},
			Bound: 1,
		}},
		[]Term{{Var: "a", Coeff: -3}, {Var: "b", Coeff: -1}},
		Minimize,
	)

	sol, err := NewBranchBound(zerolog.Nop()).Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.Objective != -3 {
		t.Errorf("objective = %v, want -3", sol.Objective)
	}
	if !sol.Selected("a") || sol.Selected("b") {
		t.Errorf("selected = %v, want [a]", sol.SelectedVars())
	}
}

func TestProblemValidation(t *testing.T) {
	p := NewProblem()
	if err := p.AddBinaryVar("x"); err != nil {
		t.Fatalf("add var: %v", err)
	}

	if err := p.AddBinaryVar("x"); !errors.Is(err, ErrDuplicateVar) {
		t.Errorf("duplicate var err = %v, want ErrDuplicateVar", err)
	}
	if err := p.AddConstraint("c", []Term{{Var: "y", Coeff: 1}}, 1); !errors.Is(err, ErrUnknownVar) {
		t.Errorf("unknown constraint var err = %v, want ErrUnknownVar", err)
	}
	if err := p.SetObjective([]Term{{Var: "y", Coeff: 1}}, Maximize); !errors.Is(err, ErrUnknownVar) {
		t.Errorf("unknown objective var err = %v, want ErrUnknownVar", err)
	}
}
