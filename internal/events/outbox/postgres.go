package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custody/internal/events/models"
	txcontext "custody/pkg/platform/tx"
)

// Postgres is the outbox table. Append must run inside the mutation's
// transaction (carried in ctx) for the write to be atomic with it.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Append(ctx context.Context, env *models.Envelope) error {
	query := `
		INSERT INTO outbox (id, type, key, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`
	err := txcontext.ExecutorFor(ctx, p.db).QueryRowContext(ctx, query,
		env.ID,
		string(env.Type),
		env.Key,
		env.OccurredAt,
		[]byte(env.Payload),
	).Scan(&env.Seq)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (p *Postgres) Pending(ctx context.Context, limit int) ([]*models.Envelope, error) {
	query := `
		SELECT seq, id, type, key, occurred_at, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`
	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var out []*models.Envelope
	for rows.Next() {
		var (
			env     models.Envelope
			typ     string
			payload []byte
		)
		if err := rows.Scan(&env.Seq, &env.ID, &typ, &env.Key, &env.OccurredAt, &payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		env.Type = models.Type(typ)
		env.Payload = payload
		out = append(out, &env)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return out, nil
}

func (p *Postgres) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[]) AND published_at IS NULL`
	if _, err := p.db.ExecContext(ctx, query, at, pq.Array(keys)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
