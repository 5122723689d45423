/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skysched/internal/site"
)

var (
	// ErrJobNotFound indicates an unknown job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobDone indicates progress was recorded against a completed job.
	ErrJobDone = errors.New("job already complete")

	// ErrSlotOutOfRange indicates an eligibility entry references a slot
	// outside the simulation horizon.
	ErrSlotOutOfRange = errors.New("slot index out of range")
)

// Job is one observation tracked by the ledger.
type Job struct {
	ID            int
	Priority      float64
	AllocatedTime time.Duration // granted budget, informational
	ObsTime       time.Duration // time required for completion
	UsedTime      time.Duration // accumulated so far, monotonic

	// ValidSiteTimes maps slot index to the sites the job may run at
	// during that slot. Missing slots mean the job cannot run then.
	ValidSiteTimes map[int]site.Set
}

// Done reports whether the job has accumulated its required time.
func (j *Job) Done() bool {
	return j.UsedTime >= j.ObsTime
}

// Status is a read-only snapshot of a job's progress.
type Status struct {
	ID            int
	Priority      float64
	AllocatedTime time.Duration
	ObsTime       time.Duration
	UsedTime      time.Duration
	Done          bool
}

// Ledger owns the job set and its progress bookkeeping. It is mutated
// only by the tick controller; formulation reads it. Not safe for
// concurrent use — a simulation is strictly sequential.
type Ledger struct {
	timeslots   int
	jobs        []*Job
	currentSlot int
	logger      zerolog.Logger
}

// New creates a ledger for a simulation spanning the given number of
// slots. Eligibility entries added later are validated against it.
func New(timeslots int, logger zerolog.Logger) *Ledger {
	return &Ledger{
		timeslots:   timeslots,
		currentSlot: -1,
		logger:      logger.With().Str("component", "ledger").Logger(),
	}
}

// AddJob registers a job before simulation start and returns its id.
// Eligibility is given per slot as a list of sites; slots absent from
// the map leave the job unschedulable for that slot.
func (l *Ledger) AddJob(priority float64, eligibility map[int][]site.Site, allocated, obs time.Duration) (int, error) {
	if priority < 0 {
		return 0, fmt.Errorf("priority must be non-negative, got %v", priority)
	}
	if obs <= 0 {
		return 0, fmt.Errorf("obs time must be positive, got %v", obs)
	}

	validSites := make(map[int]site.Set, len(eligibility))
	for slot, sites := range eligibility {
		if slot < 0 || slot >= l.timeslots {
			return 0, fmt.Errorf("%w: slot %d not in [0, %d)", ErrSlotOutOfRange, slot, l.timeslots)
		}
		validSites[slot] = site.NewSet(sites...)
	}

	job := &Job{
		ID:             len(l.jobs),
		Priority:       priority,
		AllocatedTime:  allocated,
		ObsTime:        obs,
		ValidSiteTimes: validSites,
	}
	l.jobs = append(l.jobs, job)
	return job.ID, nil
}

// NumJobs returns how many jobs the ledger tracks.
func (l *Ledger) NumJobs() int {
	return len(l.jobs)
}

// Job returns a snapshot of the identified job.
func (l *Ledger) Job(id int) (Status, error) {
	j, err := l.job(id)
	if err != nil {
		return Status{}, err
	}
	return Status{
		ID:            j.ID,
		Priority:      j.Priority,
		AllocatedTime: j.AllocatedTime,
		ObsTime:       j.ObsTime,
		UsedTime:      j.UsedTime,
		Done:          j.Done(),
	}, nil
}

// Priority returns the job's objective weight. Unknown ids yield 0.
func (l *Ledger) Priority(id int) float64 {
	if j, err := l.job(id); err == nil {
		return j.Priority
	}
	return 0
}

// UsedTime returns the observation time accumulated so far. Unknown
// ids yield 0.
func (l *Ledger) UsedTime(id int) time.Duration {
	if j, err := l.job(id); err == nil {
		return j.UsedTime
	}
	return 0
}

// ObsTime returns the time the job needs to complete. Unknown ids
// yield 0.
func (l *Ledger) ObsTime(id int) time.Duration {
	if j, err := l.job(id); err == nil {
		return j.ObsTime
	}
	return 0
}

// EligibleSites returns the sites the job may run at during the slot.
// The returned set may be empty; callers must not mutate it.
func (l *Ledger) EligibleSites(id, slot int) site.Set {
	j, err := l.job(id)
	if err != nil {
		return nil
	}
	return j.ValidSiteTimes[slot]
}

// IsDone reports completion. Once true it stays true: UsedTime never
// decreases.
func (l *Ledger) IsDone(id int) bool {
	j, err := l.job(id)
	if err != nil {
		return false
	}
	return j.Done()
}

// Advance notifies the ledger that the simulation clock has moved to
// the given slot. Called exactly once per tick, before formulation.
func (l *Ledger) Advance(slot int) {
	l.currentSlot = slot

	eligible := 0
	for _, j := range l.jobs {
		if !j.Done() && j.ValidSiteTimes[slot].Len() > 0 {
			eligible++
		}
	}
	l.logger.Debug().Int("slot", slot).Int("eligible_jobs", eligible).Msg("clock advanced")
}

// Record accumulates observation time against a job. The tick
// controller calls this at most once per job per tick; the exclusivity
// constraints guarantee it.
func (l *Ledger) Record(id int, delta time.Duration) error {
	j, err := l.job(id)
	if err != nil {
		return err
	}
	if j.Done() {
		return fmt.Errorf("%w: job %d", ErrJobDone, id)
	}

	j.UsedTime += delta
	if j.Done() {
		l.logger.Info().
			Int("job", id).
			Dur("used", j.UsedTime).
			Dur("required", j.ObsTime).
			Msg("job complete")
	}
	return nil
}

// Snapshot returns the status of every job, in id order.
func (l *Ledger) Snapshot() []Status {
	out := make([]Status, 0, len(l.jobs))
	for _, j := range l.jobs {
		s, _ := l.Job(j.ID)
		out = append(out, s)
	}
	return out
}

func (l *Ledger) job(id int) (*Job, error) {
	if id < 0 || id >= len(l.jobs) {
		return nil, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	return l.jobs[id], nil
}
