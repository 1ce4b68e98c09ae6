package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	events "custody/internal/events/models"
	identitymetrics "custody/internal/identity/metrics"
	"custody/internal/identity/models"
	"custody/internal/platform/memtx"
	id "custody/pkg/domain"
	"custody/pkg/requestcontext"
)

type ParticipantStore interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByIdentity(ctx context.Context, identity id.Identity) (*models.Participant, error)
}

type RequestStore interface {
	Save(ctx context.Context, r *models.RegistrationRequest) error
	FindByIdentity(ctx context.Context, identity id.Identity) (*models.RegistrationRequest, error)
}

type PendingIndexStore interface {
	Append(ctx context.Context, identity id.Identity) error
	Remove(ctx context.Context, identity id.Identity) error
	List(ctx context.Context) ([]id.Identity, error)
}

type Outbox interface {
	Append(ctx context.Context, env *events.Envelope) error
}

// StoreTx is the transactional boundary for registry and workflow mutations.
// Every mutation, its pending-index change and its notifications commit or
// roll back together. View runs reads against committed state only.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
	View(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Stores groups the persistence the service writes through.
type Stores struct {
	Participants ParticipantStore
	Requests     RequestStore
	Pending      PendingIndexStore
	Outbox       Outbox
}

// Service owns the identity registry and the registration workflow. The whole
// workflow is serialized: every mutation runs under one identity-wide lock.
type Service struct {
	participants ParticipantStore
	requests     RequestStore
	pending      PendingIndexStore
	outbox       Outbox
	admin        id.Identity
	tx           StoreTx
	logger       *slog.Logger
	metrics      *identitymetrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx replaces the default in-memory transaction runner, e.g. with a
// Postgres advisory-locked transaction.
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

// New constructs a Service. admin is the only identity allowed to enroll
// participants and decide requests.
func New(stores Stores, admin id.Identity, opts ...Option) *Service {
	s := &Service{
		participants: stores.Participants,
		requests:     stores.Requests,
		pending:      stores.Pending,
		outbox:       stores.Outbox,
		admin:        admin,
		tracer:       otel.Tracer("custody/identity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = memtx.NewLanes(0)
	}
	return s
}

// Admin returns the configured administrator identity.
func (s *Service) Admin() id.Identity {
	return s.admin
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

func (s *Service) incrementRequest(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementRequest(outcome)
	}
}

func (s *Service) incrementDecision(decision models.Decision) {
	if s.metrics != nil {
		s.metrics.IncrementDecision(string(decision))
	}
}

func (s *Service) incrementEnrolled() {
	if s.metrics != nil {
		s.metrics.IncrementEnrolled()
	}
}
