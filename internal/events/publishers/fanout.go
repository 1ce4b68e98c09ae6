package publishers

import (
	"context"

	"custody/internal/events/models"
	"custody/internal/events/outbox"
)

// Fanout publishes each batch to every publisher in order and stops at the
// first failure. Publishers before the failing one will see the batch again on
// retry; subscribers de-duplicate on envelope id.
type Fanout struct {
	publishers []outbox.Publisher
}

func NewFanout(publishers ...outbox.Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) Publish(ctx context.Context, batch []*models.Envelope) error {
	for _, p := range f.publishers {
		if err := p.Publish(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}
