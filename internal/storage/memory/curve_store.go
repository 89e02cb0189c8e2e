package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// runPerspective scopes result rows of one run and perspective.
func runPerspective(runID string, p domain.Perspective) string {
	return runID + "|" + string(p)
}

// CurveStore is an in-memory implementation of storage.CurveStore.
type CurveStore struct {
	mu   sync.RWMutex
	data map[string][]domain.CurvePoint // keyed by run_id|perspective
	keys map[string]struct{}
}

// NewCurveStore creates a new in-memory curve store.
func NewCurveStore() *CurveStore {
	return &CurveStore{
		data: make(map[string][]domain.CurvePoint),
		keys: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

// InsertBulk adds rows atomically. Fails entire batch on any duplicate.
func (s *CurveStore) InsertBulk(_ context.Context, points []domain.CurvePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))
	for _, p := range points {
		if p.RunID == "" || p.Strategy == "" || !p.Perspective.IsValid() {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%v|%s", runPerspective(p.RunID, p.Perspective), p.Lambda, p.Strategy)
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
		s.data[k] = append(s.data[k], p)
	}
	return nil
}

// GetByRun retrieves rows of a run and perspective, ordered by lambda, strategy.
func (s *CurveStore) GetByRun(_ context.Context, runID string, p domain.Perspective) ([]domain.CurvePoint, error) {
	s.mu.RLock()
	result := append([]domain.CurvePoint(nil), s.data[runPerspective(runID, p)]...)
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Lambda != result[j].Lambda {
			return result[i].Lambda < result[j].Lambda
		}
		return result[i].Strategy < result[j].Strategy
	})
	return result, nil
}
