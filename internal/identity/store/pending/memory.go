package pending

import (
	"context"
	"slices"
	"sync"

	"custody/internal/identity/models"
	"custody/internal/platform/memtx"
	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
)

// InMemory holds the active-pending index with swap-and-pop removal. Changes
// made inside a memtx transaction apply when it commits, in call order.
type InMemory struct {
	mu    sync.RWMutex
	index models.PendingIndex
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, identity id.Identity) error {
	memtx.OnCommit(ctx, func() {
		s.mu.Lock()
		s.index = s.index.Add(identity)
		s.mu.Unlock()
	})
	return nil
}

// Remove swaps the last entry into identity's slot and truncates. It fails
// with sentinel.ErrNotFound when identity is not in the committed index.
func (s *InMemory) Remove(ctx context.Context, identity id.Identity) error {
	s.mu.RLock()
	found := slices.Contains([]id.Identity(s.index), identity)
	s.mu.RUnlock()
	if !found {
		return sentinel.ErrNotFound
	}
	memtx.OnCommit(ctx, func() {
		s.mu.Lock()
		s.index, _ = s.index.Remove(identity)
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemory) List(_ context.Context) ([]id.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone([]id.Identity(s.index)), nil
}
