package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// DrawStore is an in-memory implementation of storage.DrawStore.
type DrawStore struct {
	mu   sync.RWMutex
	data map[string][]domain.DrawRecord // keyed by run_id
	keys map[string]struct{}
}

// NewDrawStore creates a new in-memory draw store.
func NewDrawStore() *DrawStore {
	return &DrawStore{
		data: make(map[string][]domain.DrawRecord),
		keys: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.DrawStore = (*DrawStore)(nil)

func drawKey(runID string, r domain.DrawRecord) string {
	return fmt.Sprintf("%s|%s|%s|%d", runID, r.Perspective, r.Strategy, r.Draw)
}

// InsertBulk adds draws for a run atomically. Fails entire batch on any duplicate.
func (s *DrawStore) InsertBulk(_ context.Context, runID string, records []domain.DrawRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Strategy == "" || !r.Perspective.IsValid() {
			return storage.ErrInvalidInput
		}
		key := drawKey(runID, r)
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
	s.data[runID] = append(s.data[runID], records...)
	return nil
}

// GetByRun retrieves all draws of a run, ordered by perspective, strategy, draw.
func (s *DrawStore) GetByRun(_ context.Context, runID string) ([]domain.DrawRecord, error) {
	s.mu.RLock()
	result := append([]domain.DrawRecord(nil), s.data[runID]...)
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Perspective != b.Perspective {
			return a.Perspective < b.Perspective
		}
		if a.Strategy != b.Strategy {
			return a.Strategy < b.Strategy
		}
		return a.Draw < b.Draw
	})
	return result, nil
}
