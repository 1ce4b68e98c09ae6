package participant

import (
	"context"
	"sync"

	"custody/internal/identity/models"
	"custody/internal/platform/memtx"
	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
)

// InMemory stores participants keyed by identity. There is no update or
// delete path: roles are immutable once granted.
type InMemory struct {
	mu           sync.RWMutex
	participants map[id.Identity]models.Participant
}

func NewInMemory() *InMemory {
	return &InMemory{participants: make(map[id.Identity]models.Participant)}
}

// Create returns sentinel.ErrAlreadyUsed when the identity is taken. Inside a
// memtx transaction the participant appears only once it commits.
func (s *InMemory) Create(ctx context.Context, p *models.Participant) error {
	s.mu.RLock()
	_, taken := s.participants[p.Identity]
	s.mu.RUnlock()
	if taken {
		return sentinel.ErrAlreadyUsed
	}
	staged := *p
	memtx.OnCommit(ctx, func() {
		s.mu.Lock()
		s.participants[staged.Identity] = staged
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemory) FindByIdentity(_ context.Context, identity id.Identity) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[identity]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants), nil
}
