package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// ThresholdStore is an in-memory implementation of storage.ThresholdStore.
type ThresholdStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ThresholdPoint // keyed by run_id|perspective
	keys map[string]struct{}
}

// NewThresholdStore creates a new in-memory threshold store.
func NewThresholdStore() *ThresholdStore {
	return &ThresholdStore{
		data: make(map[string][]domain.ThresholdPoint),
		keys: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.ThresholdStore = (*ThresholdStore)(nil)

// InsertBulk adds rows atomically. Fails entire batch on any duplicate.
func (s *ThresholdStore) InsertBulk(_ context.Context, points []domain.ThresholdPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if p.RunID == "" || !p.Perspective.IsValid() {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%v", runPerspective(p.RunID, p.Perspective), p.Lambda)
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
	for _, p := range points {
		k := runPerspective(p.RunID, p.Perspective)
		s.data[k] = append(s.data[k], copyThreshold(p))
	}
	return nil
}

// GetByRun retrieves rows of a run and perspective, ordered by lambda.
func (s *ThresholdStore) GetByRun(_ context.Context, runID string, p domain.Perspective) ([]domain.ThresholdPoint, error) {
	s.mu.RLock()
	stored := s.data[runPerspective(runID, p)]
	result := make([]domain.ThresholdPoint, len(stored))
	for i, t := range stored {
		result[i] = copyThreshold(t)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Lambda < result[j].Lambda
	})
	return result, nil
}

// copyThreshold detaches the optional price fields from the caller.
func copyThreshold(p domain.ThresholdPoint) domain.ThresholdPoint {
	if p.VBP != nil {
		v := *p.VBP
		p.VBP = &v
	}
	if p.CurrentPrice != nil {
		v := *p.CurrentPrice
		p.CurrentPrice = &v
	}
	return p
}
