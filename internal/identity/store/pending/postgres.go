package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore keeps the pending index as contiguous positions 0..n-1 in
// pending_index. Writers must hold the registration workflow lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, identity id.Identity) error {
	query := `
		INSERT INTO pending_index (position, identity)
		SELECT COALESCE(MAX(position) + 1, 0), $1 FROM pending_index
	`
	if _, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query, identity.Hex()); err != nil {
		return fmt.Errorf("append pending index: %w", err)
	}
	return nil
}

// Remove deletes identity's slot and moves the last position into it.
func (s *PostgresStore) Remove(ctx context.Context, identity id.Identity) error {
	exec := txcontext.ExecutorFor(ctx, s.db)

	var pos int
	err := exec.QueryRowContext(ctx, `SELECT position FROM pending_index WHERE identity = $1`, identity.Hex()).Scan(&pos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("find pending position: %w", err)
	}

	var last int
	if err := exec.QueryRowContext(ctx, `SELECT MAX(position) FROM pending_index`).Scan(&last); err != nil {
		return fmt.Errorf("find last pending position: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM pending_index WHERE position = $1`, pos); err != nil {
		return fmt.Errorf("delete pending position: %w", err)
	}
	if pos != last {
		if _, err := exec.ExecContext(ctx, `UPDATE pending_index SET position = $1 WHERE position = $2`, pos, last); err != nil {
			return fmt.Errorf("move last pending position: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]id.Identity, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, `SELECT identity FROM pending_index ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list pending index: %w", err)
	}
	defer rows.Close()

	var out []id.Identity
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan pending identity: %w", err)
		}
		identity, err := id.ParseIdentity(raw)
		if err != nil {
			return nil, fmt.Errorf("parse pending identity %q: %w", raw, err)
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending index: %w", err)
	}
	return out, nil
}
