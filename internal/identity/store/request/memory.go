package request

import (
	"context"
	"sync"

	"custody/internal/identity/models"
	"custody/internal/platform/memtx"
	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
)

// InMemory keeps the latest registration request per identity, pending or
// decided.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.Identity]models.RegistrationRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.Identity]models.RegistrationRequest)}
}

// Save inserts or replaces the request for r.Identity when the surrounding
// transaction commits.
func (s *InMemory) Save(ctx context.Context, r *models.RegistrationRequest) error {
	staged := *r
	memtx.OnCommit(ctx, func() {
		s.mu.Lock()
		s.requests[staged.Identity] = staged
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemory) FindByIdentity(_ context.Context, identity id.Identity) (*models.RegistrationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[identity]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}
