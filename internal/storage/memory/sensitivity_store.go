package memory

import (
	"context"
	"sort"
	"sync"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// SensitivityStore is an in-memory implementation of storage.SensitivityStore.
type SensitivityStore struct {
	mu   sync.RWMutex
	data map[string][]domain.SensitivityRow // keyed by run_id|perspective
	keys map[string]struct{}
}

// NewSensitivityStore creates a new in-memory sensitivity store.
func NewSensitivityStore() *SensitivityStore {
	return &SensitivityStore{
		data: make(map[string][]domain.SensitivityRow),
		keys: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.SensitivityStore = (*SensitivityStore)(nil)

// InsertBulk adds rows atomically. Fails entire batch on any duplicate.
func (s *SensitivityStore) InsertBulk(_ context.Context, rows []domain.SensitivityRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.RunID == "" || r.Comparator == "" || r.Parameter == "" || !r.Perspective.IsValid() {
			return storage.ErrInvalidInput
		}
		key := runPerspective(r.RunID, r.Perspective) + "|" + r.Comparator + "|" + r.Parameter
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
	for _, r := range rows {
		k := runPerspective(r.RunID, r.Perspective)
		s.data[k] = append(s.data[k], r)
	}
	return nil
}

// GetByRun retrieves rows of a run and perspective, ordered by comparator, rank.
func (s *SensitivityStore) GetByRun(_ context.Context, runID string, p domain.Perspective) ([]domain.SensitivityRow, error) {
	s.mu.RLock()
	result := append([]domain.SensitivityRow(nil), s.data[runPerspective(runID, p)]...)
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Comparator != result[j].Comparator {
			return result[i].Comparator < result[j].Comparator
		}
		return result[i].Rank < result[j].Rank
	})
	return result, nil
}
