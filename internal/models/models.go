/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// RunSource records where a simulation run was launched from.
type RunSource string

const (
	RunSourceCLI RunSource = "cli"
	RunSourceAPI RunSource = "api"
)

// SimulationRun is a persisted simulation: its parameters, counters,
// and (via associations) the full timetable.
type SimulationRun struct {
	ID              string        `gorm:"type:uuid;primaryKey" json:"id"`
	Source          RunSource     `gorm:"type:varchar(16)" json:"source"`
	Timeslots       int           `json:"timeslots"`
	SlotLength      time.Duration `json:"slot_length"`
	JobCount        int           `json:"job_count"`
	CompletedJobs   int           `json:"completed_jobs"`
	InfeasibleSlots int           `json:"infeasible_slots"`
	Started         time.Time     `json:"started"`
	Finished        time.Time     `json:"finished"`

	Entries  []ScheduleEntry `gorm:"constraint:OnDelete:CASCADE" json:"entries,omitempty"`
	Outcomes []JobOutcome    `gorm:"constraint:OnDelete:CASCADE" json:"outcomes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleEntry is one applied assignment: a job observed at a site
// during a slot.
type ScheduleEntry struct {
	ID              string `gorm:"type:uuid;primaryKey" json:"id"`
	SimulationRunID string `gorm:"type:uuid;index" json:"-"`
	Slot            int    `gorm:"index" json:"slot"`
	JobID           int    `json:"job_id"`
	Site            string `gorm:"type:varchar(4)" json:"site"`

	CreatedAt time.Time `json:"-"`
}

// JobOutcome is a job's final state after the last slot.
type JobOutcome struct {
	ID              string        `gorm:"type:uuid;primaryKey" json:"id"`
	SimulationRunID string        `gorm:"type:uuid;index" json:"-"`
	JobID           int           `json:"job_id"`
	Priority        float64       `json:"priority"`
	AllocatedTime   time.Duration `json:"allocated_time"`
	ObsTime         time.Duration `json:"obs_time"`
	UsedTime        time.Duration `json:"used_time"`
	Done            bool          `json:"done"`

	CreatedAt time.Time `json:"-"`
}
