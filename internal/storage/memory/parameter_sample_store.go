package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// ParameterSampleStore is an in-memory implementation of storage.ParameterSampleStore.
type ParameterSampleStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ParameterSample // keyed by run_id
	keys map[string]struct{}
}

// NewParameterSampleStore creates a new in-memory parameter sample store.
func NewParameterSampleStore() *ParameterSampleStore {
	return &ParameterSampleStore{
		data: make(map[string][]domain.ParameterSample),
		keys: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.ParameterSampleStore = (*ParameterSampleStore)(nil)

// InsertBulk adds samples atomically. Fails entire batch on any duplicate.
func (s *ParameterSampleStore) InsertBulk(_ context.Context, runID string, samples []domain.ParameterSample) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(samples))
	for _, p := range samples {
		if p.Name == "" {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%d|%s", runID, p.Draw, p.Name)
		if _, exists := s.keys[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for key := range batchKeys {
		s.keys[key] = struct{}{}
	}
	s.data[runID] = append(s.data[runID], samples...)
	return nil
}

// GetByRun retrieves all samples of a run, ordered by draw, name.
func (s *ParameterSampleStore) GetByRun(_ context.Context, runID string) ([]domain.ParameterSample, error) {
	s.mu.RLock()
	result := append([]domain.ParameterSample(nil), s.data[runID]...)
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Draw != result[j].Draw {
			return result[i].Draw < result[j].Draw
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
