package memory

import (
	"context"
	"sort"
	"sync"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// AnalysisRunStore is an in-memory implementation of storage.AnalysisRunStore.
type AnalysisRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnalysisRun
}

// NewAnalysisRunStore creates a new in-memory run store.
func NewAnalysisRunStore() *AnalysisRunStore {
	return &AnalysisRunStore{
		data: make(map[string]*domain.AnalysisRun),
	}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(_ context.Context, r *domain.AnalysisRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *r
	s.data[r.RunID] = &runCopy
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(_ context.Context, runID string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	runCopy := *r
	return &runCopy, nil
}

// GetAll retrieves all runs ordered by created_at, run_id.
func (s *AnalysisRunStore) GetAll(_ context.Context) ([]*domain.AnalysisRun, error) {
	s.mu.RLock()
	result := make([]*domain.AnalysisRun, 0, len(s.data))
	for _, r := range s.data {
		runCopy := *r
		result = append(result, &runCopy)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].RunID < result[j].RunID
	})
	return result, nil
}
