// Package outbox stores notifications in the same transaction as the mutation
// that produced them and relays them to publishers at least once.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"custody/internal/events/models"
)

// Writer appends notifications inside the caller's transaction.
type Writer interface {
	Append(ctx context.Context, env *models.Envelope) error
}

// Source is the relay's view of the outbox.
type Source interface {
	// Pending returns unpublished entries in sequence order.
	Pending(ctx context.Context, limit int) ([]*models.Envelope, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher delivers a batch of notifications, preserving slice order.
type Publisher interface {
	Publish(ctx context.Context, batch []*models.Envelope) error
}
