package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"custody/internal/identity/models"
	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore persists requests in registration_requests, one row per
// identity.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, r *models.RegistrationRequest) error {
	query := `
		INSERT INTO registration_requests (identity, requested_role, name, pending, decision, requested_at, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity) DO UPDATE SET
			requested_role = EXCLUDED.requested_role,
			name = EXCLUDED.name,
			pending = EXCLUDED.pending,
			decision = EXCLUDED.decision,
			requested_at = EXCLUDED.requested_at,
			decided_at = EXCLUDED.decided_at
	`
	_, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		r.Identity.Hex(),
		int16(r.RequestedRole),
		r.Name,
		r.Pending,
		string(r.Decision),
		r.RequestedAt,
		r.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("save registration request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByIdentity(ctx context.Context, identity id.Identity) (*models.RegistrationRequest, error) {
	query := `
		SELECT requested_role, name, pending, decision, requested_at, decided_at
		FROM registration_requests
		WHERE identity = $1
	`
	var (
		r         = models.RegistrationRequest{Identity: identity}
		role      int16
		decision  string
		decidedAt sql.NullTime
	)
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, identity.Hex()).
		Scan(&role, &r.Name, &r.Pending, &decision, &r.RequestedAt, &decidedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration request: %w", err)
	}
	r.RequestedRole = id.Role(role)
	r.Decision = models.Decision(decision)
	if decidedAt.Valid {
		t := decidedAt.Time
		r.DecidedAt = &t
	}
	return &r, nil
}
