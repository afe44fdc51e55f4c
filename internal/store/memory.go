package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRunStore is an in-memory RunStore for tests and ephemeral runs.
type MemoryRunStore struct {
	mu    sync.RWMutex
	runs  map[string]Run
	steps map[string][]StepRecord
}

// NewMemoryRunStore creates an empty in-memory store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs:  make(map[string]Run),
		steps: make(map[string][]StepRecord),
	}
}

// CreateRun persists a new run.
func (s *MemoryRunStore) CreateRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		return errRunIDRequired
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	s.runs[run.ID] = run
	return nil
}

// GetRun returns the run with the given ID.
func (s *MemoryRunStore) GetRun(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *MemoryRunStore) ListRuns(_ context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

// RecordStep appends a step record to a run.
func (s *MemoryRunStore) RecordStep(_ context.Context, rec StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.RunID == "" {
		return errRunIDRequired
	}
	if _, ok := s.runs[rec.RunID]; !ok {
		return ErrNotFound
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	s.steps[rec.RunID] = append(s.steps[rec.RunID], rec)
	return nil
}

// Steps returns a run's records ordered by index.
func (s *MemoryRunStore) Steps(_ context.Context, runID string) ([]StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]StepRecord, len(s.steps[runID]))
	copy(recs, s.steps[runID])
	sort.Slice(recs, func(i, j int) bool { return recs[i].Index < recs[j].Index })
	return recs, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryRunStore) Close() error { return nil }
