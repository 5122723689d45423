/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package workload loads observation job definitions from YAML files
// or API request bodies and feeds them into a ledger.
package workload

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/skysched/internal/ledger"
	"github.com/friendsincode/skysched/internal/sim"
	"github.com/friendsincode/skysched/internal/site"
)

// JobSpec defines one observation job. Eligibility maps slot index to
// site labels ("GN", "GS").
type JobSpec struct {
	Priority         float64          `yaml:"priority" json:"priority"`
	AllocatedSeconds float64          `yaml:"allocated_seconds" json:"allocated_seconds"`
	ObsSeconds       float64          `yaml:"obs_seconds" json:"obs_seconds"`
	Eligibility      map[int][]string `yaml:"eligibility" json:"eligibility"`
}

// Spec is a complete simulation definition: horizon, slot length, and
// the job set.
type Spec struct {
	Timeslots         int       `yaml:"timeslots" json:"timeslots"`
	SlotLengthSeconds float64   `yaml:"slot_length_seconds" json:"slot_length_seconds"`
	Jobs              []JobSpec `yaml:"jobs" json:"jobs"`
}

// Load reads and validates a YAML workload file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML workload document.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse workload: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate rejects malformed specs before any simulation state exists.
func (s *Spec) Validate() error {
	if s.Timeslots <= 0 {
		return fmt.Errorf("timeslots must be positive, got %d", s.Timeslots)
	}
	if s.SlotLengthSeconds <= 0 {
		return fmt.Errorf("slot_length_seconds must be positive, got %v", s.SlotLengthSeconds)
	}

	for i, job := range s.Jobs {
		if job.Priority < 0 {
			return fmt.Errorf("job %d: priority must be non-negative, got %v", i, job.Priority)
		}
		if job.ObsSeconds <= 0 {
			return fmt.Errorf("job %d: obs_seconds must be positive, got %v", i, job.ObsSeconds)
		}
		for slot, labels := range job.Eligibility {
			if slot < 0 || slot >= s.Timeslots {
				return fmt.Errorf("job %d: eligibility slot %d not in [0, %d)", i, slot, s.Timeslots)
			}
			for _, label := range labels {
				if _, err := site.Parse(label); err != nil {
					return fmt.Errorf("job %d slot %d: %w", i, slot, err)
				}
			}
		}
	}
	return nil
}

// SimConfig derives the simulation parameters.
func (s *Spec) SimConfig() sim.Config {
	return sim.Config{
		Timeslots:  s.Timeslots,
		SlotLength: time.Duration(s.SlotLengthSeconds * float64(time.Second)),
	}
}

// Populate registers every job with the ledger, in spec order.
func (s *Spec) Populate(led *ledger.Ledger) error {
	for i, job := range s.Jobs {
		eligibility := make(map[int][]site.Site, len(job.Eligibility))
		for slot, labels := range job.Eligibility {
			sites := make([]site.Site, 0, len(labels))
			for _, label := range labels {
				parsed, err := site.Parse(label)
				if err != nil {
					return fmt.Errorf("job %d slot %d: %w", i, slot, err)
				}
				sites = append(sites, parsed)
			}
			eligibility[slot] = sites
		}

		allocated := time.Duration(job.AllocatedSeconds * float64(time.Second))
		obs := time.Duration(job.ObsSeconds * float64(time.Second))
		if _, err := led.AddJob(job.Priority, eligibility, allocated, obs); err != nil {
			return fmt.Errorf("add job %d: %w", i, err)
		}
	}
	return nil
}
