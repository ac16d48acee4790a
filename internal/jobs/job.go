// Package jobs provides the durable, Redis-backed job queue and the worker
// pool that executes scraper runs with retry, backoff and recurring
// schedules.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// State is a job's position in its lifecycle.
type State string

const (
	StateScheduled State = "scheduled"
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Job is one durable unit of work wrapping a single scraper run.
type Job struct {
	ID          string        `json:"id"`
	Scraper     string        `json:"scraper"`
	State       State         `json:"state"`
	Attempt     int           `json:"attempt"`
	MaxAttempts int           `json:"max_attempts"`
	BackoffBase time.Duration `json:"backoff_base"`

	// Interval > 0 marks a recurring job that re-enters the queue after
	// each completed run.
	Interval time.Duration `json:"interval,omitempty"`

	RunAt     time.Time `json:"run_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastError string    `json:"last_error,omitempty"`
}

// Recurring reports whether the job reschedules itself after completion.
func (j *Job) Recurring() bool {
	return j.Interval > 0
}

// Backoff returns the delay before the next retry attempt. The delay doubles
// with every failed attempt.
func (j *Job) Backoff() time.Duration {
	base := j.BackoffBase
	if base <= 0 {
		base = 30 * time.Second
	}
	d := base
	for i := 1; i < j.Attempt; i++ {
		d *= 2
	}
	return d
}

// RecurringID derives a stable job identity from the scraper name so that
// re-registering a recurring schedule never creates a duplicate.
func RecurringID(scraper string) string {
	return "recurring:" + scraper
}

// NewJob creates a one-shot job for the given scraper, due immediately.
func NewJob(scraper string, maxAttempts int, backoffBase time.Duration) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.NewString(),
		Scraper:     scraper,
		State:       StateScheduled,
		MaxAttempts: maxAttempts,
		BackoffBase: backoffBase,
		RunAt:       now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewRecurringJob creates a recurring job for the given scraper. The first
// run is due immediately; later runs follow the interval.
func NewRecurringJob(scraper string, interval time.Duration, maxAttempts int, backoffBase time.Duration) *Job {
	j := NewJob(scraper, maxAttempts, backoffBase)
	j.ID = RecurringID(scraper)
	j.Interval = interval
	return j
}
