// Package store defines the RunStore interface for recording simulation
// runs and their per-generation statistics.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a run or record does not exist.
var ErrNotFound = errors.New("store: not found")

var errRunIDRequired = errors.New("store: run ID is required")

// Run describes a single simulation run.
type Run struct {
	ID        string         `json:"id"`
	Scenario  string         `json:"scenario"`
	Config    map[string]any `json:"config,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// StepRecord holds aggregate statistics for one recorded step of a run.
// Index is the tick or generation number depending on what the caller
// records.
type StepRecord struct {
	RunID      string             `json:"run_id"`
	Index      int                `json:"index"`
	Stats      map[string]float64 `json:"stats"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// RunStore records runs and their step statistics.
type RunStore interface {
	// CreateRun persists a new run. The run's ID must be set.
	CreateRun(ctx context.Context, run Run) error

	// GetRun returns the run with the given ID, or ErrNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// RecordStep appends a step record to a run.
	RecordStep(ctx context.Context, rec StepRecord) error

	// Steps returns a run's records ordered by index.
	Steps(ctx context.Context, runID string) ([]StepRecord, error)

	Close() error
}
