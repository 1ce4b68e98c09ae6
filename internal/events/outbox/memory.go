package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"custody/internal/events/models"
	"custody/internal/platform/memtx"
)

// Memory is an in-process outbox. Entries appended inside a memtx transaction
// become visible, and receive their sequence number, only when it commits.
type Memory struct {
	mu      sync.Mutex
	entries []*models.Envelope
	nextSeq int64
}

func NewMemory() *Memory {
	return &Memory{nextSeq: 1}
}

func (m *Memory) Append(ctx context.Context, env *models.Envelope) error {
	entry := *env
	memtx.OnCommit(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		entry.Seq = m.nextSeq
		m.nextSeq++
		m.entries = append(m.entries, &entry)
	})
	return nil
}

func (m *Memory) Pending(_ context.Context, limit int) ([]*models.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Envelope
	for _, entry := range m.entries {
		if entry.PublishedAt != nil {
			continue
		}
		copied := *entry
		out = append(out, &copied)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		if _, ok := want[entry.ID]; ok && entry.PublishedAt == nil {
			published := at
			entry.PublishedAt = &published
		}
	}
	return nil
}

// Entries returns a snapshot of every committed entry in sequence order.
func (m *Memory) Entries() []*models.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Envelope, len(m.entries))
	for i, entry := range m.entries {
		copied := *entry
		out[i] = &copied
	}
	return out
}
