package history

import (
	"context"
	"slices"
	"sync"

	"custody/internal/custody/models"
	"custody/internal/platform/memtx"
)

// InMemory is the append-only history log keyed by item.
type InMemory struct {
	mu      sync.RWMutex
	entries map[int64][]models.HistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[int64][]models.HistoryEntry)}
}

// Append stores a copy of entry once the surrounding transaction commits.
// Seq is assigned at that point, on both the stored copy and entry.
func (s *InMemory) Append(ctx context.Context, entry *models.HistoryEntry) error {
	staged := *entry
	memtx.OnCommit(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		log := s.entries[staged.ItemID]
		staged.Seq = len(log) + 1
		entry.Seq = staged.Seq
		s.entries[staged.ItemID] = append(log, staged)
	})
	return nil
}

// ListByItem returns the item's entries in sequence order. Unknown items yield
// an empty slice.
func (s *InMemory) ListByItem(_ context.Context, itemID int64) ([]*models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := slices.Clone(s.entries[itemID])
	out := make([]*models.HistoryEntry, len(log))
	for i := range log {
		out[i] = &log[i]
	}
	return out, nil
}
