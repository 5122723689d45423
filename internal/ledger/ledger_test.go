/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skysched/internal/site"
)

func TestAddJobValidation(t *testing.T) {
	led := New(3, zerolog.Nop())

	tests := []struct {
		name        string
		priority    float64
		eligibility map[int][]site.Site
		obs         time.Duration
		wantErr     error
	}{
		{
			name:        "valid",
			priority:    1,
			eligibility: map[int][]site.Site{0: {site.North}},
			obs:         time.Minute,
		},
		{
			name:        "negative priority",
			priority:    -1,
			eligibility: map[int][]site.Site{0: {site.North}},
			obs:         time.Minute,
			wantErr:     errors.New("priority"),
		},
		{
			name:        "zero obs time",
			priority:    1,
			eligibility: map[int][]site.Site{0: {site.North}},
			obs:         0,
			wantErr:     errors.New("obs time"),
		},
		{
			name:        "slot past horizon",
			priority:    1,
			eligibility: map[int][]site.Site{3: {site.North}},
			obs:         time.Minute,
			wantErr:     ErrSlotOutOfRange,
		},
		{
			name:        "negative slot",
			priority:    1,
			eligibility: map[int][]site.Site{-1: {site.South}},
			obs:         time.Minute,
			wantErr:     ErrSlotOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := led.AddJob(tt.priority, tt.eligibility, time.Hour, tt.obs)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("AddJob: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("AddJob expected error")
			}
			if errors.Is(tt.wantErr, ErrSlotOutOfRange) && !errors.Is(err, ErrSlotOutOfRange) {
				t.Errorf("err = %v, want ErrSlotOutOfRange", err)
			}
		})
	}
}

func TestJobIDsAreSequential(t *testing.T) {
	led := New(1, zerolog.Nop())
	for want := 0; want < 3; want++ {
		id, err := led.AddJob(1, nil, 0, time.Minute)
		if err != nil {
			t.Fatalf("add job %d: %v", want, err)
		}
		if id != want {
			t.Errorf("id = %d, want %d", id, want)
		}
	}
	if led.NumJobs() != 3 {
		t.Errorf("NumJobs = %d, want 3", led.NumJobs())
	}
}

func TestRecordAccumulatesAndCompletes(t *testing.T) {
	led := New(2, zerolog.Nop())
	id, err := led.AddJob(1, map[int][]site.Site{0: {site.North}}, time.Hour, 10*time.Minute)
	if err != nil {
		t.Fatalf("add job: %v", err)
	}

	if err := led.Record(id, 6*time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}
	if led.IsDone(id) {
		t.Error("job done after 6 of 10 minutes")
	}

	if err := led.Record(id, 6*time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !led.IsDone(id) {
		t.Error("job not done after 12 of 10 minutes")
	}

	if got := led.UsedTime(id); got != 12*time.Minute {
		t.Errorf("UsedTime = %v, want 12m", got)
	}
	if got := led.ObsTime(id); got != 10*time.Minute {
		t.Errorf("ObsTime = %v, want 10m", got)
	}

	// Completion is stable: further progress is rejected and UsedTime
	// holds.
	if err := led.Record(id, time.Minute); !errors.Is(err, ErrJobDone) {
		t.Errorf("record on done job err = %v, want ErrJobDone", err)
	}
	if got := led.UsedTime(id); got != 12*time.Minute {
		t.Errorf("UsedTime moved to %v after rejected record", got)
	}
}

func TestRecordUnknownJob(t *testing.T) {
	led := New(1, zerolog.Nop())
	if err := led.Record(7, time.Minute); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
	if _, err := led.Job(-1); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestEligibleSites(t *testing.T) {
	led := New(3, zerolog.Nop())
	id, err := led.AddJob(1, map[int][]site.Site{
		0: {site.North, site.South},
		2: {site.South},
	}, 0, time.Minute)
	if err != nil {
		t.Fatalf("add job: %v", err)
	}

	if got := led.EligibleSites(id, 0); got.Len() != 2 {
		t.Errorf("slot 0 sites = %v, want both", got)
	}
	if got := led.EligibleSites(id, 1); got.Len() != 0 {
		t.Errorf("slot 1 sites = %v, want none", got)
	}
	if got := led.EligibleSites(id, 2); !got.Contains(site.South) || got.Len() != 1 {
		t.Errorf("slot 2 sites = %v, want GS only", got)
	}
	if got := led.EligibleSites(99, 0); got.Len() != 0 {
		t.Errorf("unknown job sites = %v, want none", got)
	}
}

func TestSnapshot(t *testing.T) {
	led := New(1, zerolog.Nop())
	a, _ := led.AddJob(2, nil, 0, time.Minute)
	b, _ := led.AddJob(1, nil, 0, 2*time.Minute)

	if err := led.Record(a, time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}

	snap := led.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}
	if snap[0].ID != a || !snap[0].Done {
		t.Errorf("snapshot[0] = %+v, want job %d done", snap[0], a)
	}
	if snap[1].ID != b || snap[1].Done {
		t.Errorf("snapshot[1] = %+v, want job %d pending", snap[1], b)
	}
}
