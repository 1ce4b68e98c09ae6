package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"custody/internal/identity/models"
	"custody/internal/platform/postgres"
	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore persists participants in the participants table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (identity, role, name, registered_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		p.Identity.Hex(), int16(p.Role), p.Name, p.RegisteredAt)
	if err != nil {
		if postgres.HasCode(err, postgres.CodeUniqueViolation) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByIdentity(ctx context.Context, identity id.Identity) (*models.Participant, error) {
	query := `SELECT role, name, registered_at FROM participants WHERE identity = $1`
	var (
		p    = models.Participant{Identity: identity, Registered: true}
		role int16
	)
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, identity.Hex()).
		Scan(&role, &p.Name, &p.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	p.Role = id.Role(role)
	return &p, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}
