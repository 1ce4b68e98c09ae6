package item

import (
	"context"
	"sync"

	"custody/internal/custody/models"
	"custody/internal/platform/memtx"
	"custody/pkg/platform/sentinel"
)

// InMemory stores items and the id counter. Item writes made inside a memtx
// transaction are staged and only become visible when it commits; the id
// counter advances immediately and is rolled back if it fails.
type InMemory struct {
	mu     sync.RWMutex
	items  map[int64]models.Item
	nextID int64
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[int64]models.Item), nextID: 1}
}

// NextID allocates the next item id. Callers must serialize allocation.
func (s *InMemory) NextID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allocated := s.nextID
	s.nextID++
	memtx.Record(ctx, func() {
		s.mu.Lock()
		s.nextID = allocated
		s.mu.Unlock()
	})
	return allocated, nil
}

func (s *InMemory) Create(ctx context.Context, item *models.Item) error {
	s.mu.RLock()
	_, exists := s.items[item.ID]
	s.mu.RUnlock()
	if exists {
		return sentinel.ErrAlreadyUsed
	}
	s.stage(ctx, *item)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, itemID int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &item, nil
}

// FindForUpdate is FindByID; the memtx shard lock already serializes writers
// of one item.
func (s *InMemory) FindForUpdate(ctx context.Context, itemID int64) (*models.Item, error) {
	return s.FindByID(ctx, itemID)
}

func (s *InMemory) Update(ctx context.Context, item *models.Item) error {
	s.mu.RLock()
	_, exists := s.items[item.ID]
	s.mu.RUnlock()
	if !exists {
		return sentinel.ErrNotFound
	}
	s.stage(ctx, *item)
	return nil
}

func (s *InMemory) stage(ctx context.Context, item models.Item) {
	memtx.OnCommit(ctx, func() {
		s.mu.Lock()
		s.items[item.ID] = item
		s.mu.Unlock()
	})
}

// Count returns the number of committed items.
func (s *InMemory) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.items)), nil
}
