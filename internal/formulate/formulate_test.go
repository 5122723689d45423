/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package formulate

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skysched/internal/ledger"
	"github.com/friendsincode/skysched/internal/site"
)

func TestAssignmentCodec(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    Assignment
		wantErr bool
	}{
		{name: "north", encoded: "obs_0_GN", want: Assignment{JobID: 0, Site: site.North}},
		{name: "south", encoded: "obs_12_GS", want: Assignment{JobID: 12, Site: site.South}},
		{name: "missing prefix", encoded: "job_0_GN", wantErr: true},
		{name: "missing site", encoded: "obs_0", wantErr: true},
		{name: "bad id", encoded: "obs_x_GN", wantErr: true},
		{name: "negative id", encoded: "obs_-1_GN", wantErr: true},
		{name: "bad site", encoded: "obs_0_GW", wantErr: true},
		{name: "empty", encoded: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAssignment(tt.encoded)
			if tt.wantErr {
				if !errors.Is(err, ErrBadAssignment) {
					t.Fatalf("DecodeAssignment(%q) err = %v, want ErrBadAssignment", tt.encoded, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeAssignment(%q): %v", tt.encoded, err)
			}
			if got != tt.want {
				t.Errorf("DecodeAssignment(%q) = %+v, want %+v", tt.encoded, got, tt.want)
			}
			if back := EncodeAssignment(got.JobID, got.Site); back != tt.encoded {
				t.Errorf("EncodeAssignment(%+v) = %q, want %q", got, back, tt.encoded)
			}
		})
	}
}

func TestBuildProblemVariablesAndConstraints(t *testing.T) {
	led := ledger.New(2, zerolog.Nop())

	// job 0: both sites slot 0; job 1: GS only slot 0; job 2: slot 1 only.
	mustAdd(t, led, 2, map[int][]site.Site{0: {site.North, site.South}})
	mustAdd(t, led, 1, map[int][]site.Site{0: {site.South}})
	mustAdd(t, led, 3, map[int][]site.Site{1: {site.North}})

	p, err := New(zerolog.Nop()).BuildProblem(led, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	wantVars := []string{"obs_0_GN", "obs_0_GS", "obs_1_GS"}
	if got := p.Vars(); !reflect.DeepEqual(got, wantVars) {
		t.Errorf("vars = %v, want %v", got, wantVars)
	}

	labels := make([]string, 0, len(p.Constraints()))
	for _, c := range p.Constraints() {
		labels = append(labels, c.Label)
	}
	wantLabels := []string{"c_not_both_0", "c_site_GN", "c_site_GS"}
	if !reflect.DeepEqual(labels, wantLabels) {
		t.Errorf("constraint labels = %v, want %v", labels, wantLabels)
	}
}

func TestBuildProblemSkipsDoneJobs(t *testing.T) {
	led := ledger.New(1, zerolog.Nop())
	id := mustAdd(t, led, 1, map[int][]site.Site{0: {site.North}})

	if err := led.Record(id, time.Hour); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !led.IsDone(id) {
		t.Fatal("job should be done")
	}

	p, err := New(zerolog.Nop()).BuildProblem(led, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.NumVars() != 0 {
		t.Errorf("vars = %v, want none for a completed job", p.Vars())
	}
}

func TestBuildProblemEmptySlot(t *testing.T) {
	led := ledger.New(2, zerolog.Nop())
	mustAdd(t, led, 1, map[int][]site.Site{0: {site.North}})

	// Slot 1 has no eligible jobs: zero variables, but the site
	// constraints are still present.
	p, err := New(zerolog.Nop()).BuildProblem(led, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.NumVars() != 0 {
		t.Errorf("vars = %v, want none", p.Vars())
	}
	if len(p.Constraints()) != 2 {
		t.Errorf("constraints = %d, want 2 site constraints", len(p.Constraints()))
	}
}

func mustAdd(t *testing.T, led *ledger.Ledger, priority float64, eligibility map[int][]site.Site) int {
	t.Helper()
	id, err := led.AddJob(priority, eligibility, 20*time.Minute, 10*time.Minute)
	if err != nil {
		t.Fatalf("add job: %v", err)
	}
	return id
}
