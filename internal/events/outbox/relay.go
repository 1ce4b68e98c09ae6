package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custody/internal/events/metrics"
	"custody/pkg/platform/circuit"
)

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// Relay moves committed outbox entries to a Publisher. Entries are marked
// published only after the whole batch was delivered, so a crash or publish
// failure redelivers them on the next pass.
type Relay struct {
	source    Source
	publisher Publisher
	interval  time.Duration
	batchSize int
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithPollInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) RelayOption {
	return func(r *Relay) {
		r.breaker = b
	}
}

func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) {
		r.now = now
	}
}

func NewRelay(source Source, publisher Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		interval:  defaultPollInterval,
		batchSize: defaultBatchSize,
		breaker:   circuit.New("outbox-relay"),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.WarnContext(ctx, "outbox relay pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Flush drains pending entries batch by batch and returns how many were
// published. It stops at the first failure.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		if r.breaker.IsOpen() && !r.breaker.AllowProbe() {
			return total, nil
		}
		batch, err := r.source.Pending(ctx, r.batchSize)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}
		if err := r.publisher.Publish(ctx, batch); err != nil {
			r.recordFailure(ctx, err)
			return total, err
		}
		if _, change := r.breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "outbox relay circuit closed", "breaker", r.breaker.Name())
		}

		ids := make([]uuid.UUID, len(batch))
		for i, env := range batch {
			ids[i] = env.ID
		}
		if err := r.source.MarkPublished(ctx, ids, r.now()); err != nil {
			return total, err
		}
		total += len(batch)
		if r.metrics != nil {
			r.metrics.AddPublished(len(batch))
		}
		if len(batch) < r.batchSize {
			return total, nil
		}
	}
}

func (r *Relay) recordFailure(ctx context.Context, err error) {
	if r.metrics != nil {
		r.metrics.IncrementPublishFailures()
	}
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "outbox relay circuit opened",
			"breaker", r.breaker.Name(),
			"error", err,
		)
	}
}
