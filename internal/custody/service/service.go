package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	custodymetrics "custody/internal/custody/metrics"
	"custody/internal/custody/models"
	events "custody/internal/events/models"
	"custody/internal/platform/memtx"
	id "custody/pkg/domain"
	"custody/pkg/requestcontext"
)

type ItemStore interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, itemID int64) (*models.Item, error)
	FindForUpdate(ctx context.Context, itemID int64) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	Count(ctx context.Context) (int64, error)
}

type HistoryStore interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	ListByItem(ctx context.Context, itemID int64) ([]*models.HistoryEntry, error)
}

type Outbox interface {
	Append(ctx context.Context, env *events.Envelope) error
}

// Registry answers role lookups. Unregistered identities have RoleNone.
type Registry interface {
	RoleOf(ctx context.Context, identity id.Identity) (id.Role, error)
}

// StoreTx is the transactional boundary for ledger mutations. The item, its
// history entry and its notification commit or roll back together. View runs
// reads against committed state only.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
	View(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Stores groups the persistence the service writes through.
type Stores struct {
	Items   ItemStore
	History HistoryStore
	Outbox  Outbox
}

// Service owns the custody ledger. Transfers of one item are serialized
// through a shard keyed on the item; registrations share one shard so id
// allocation is gap free.
type Service struct {
	items    ItemStore
	history  HistoryStore
	outbox   Outbox
	registry Registry
	tx       StoreTx
	logger   *slog.Logger
	metrics  *custodymetrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *custodymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(stores Stores, registry Registry, opts ...Option) *Service {
	s := &Service{
		items:    stores.Items,
		history:  stores.History,
		outbox:   stores.Outbox,
		registry: registry,
		tracer:   otel.Tracer("custody/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = memtx.NewLanes(0)
	}
	return s
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
