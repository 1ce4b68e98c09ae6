package history

import (
	"context"
	"database/sql"
	"fmt"

	"custody/internal/custody/models"
	id "custody/pkg/domain"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore persists item_history. Appends for one item are serialized by
// the item row lock held by the caller's transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO item_history (item_id, seq, from_id, to_id, status, notes, created_at)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5, $6
		FROM item_history
		WHERE item_id = $1
		RETURNING seq
	`
	var from sql.NullString
	if !entry.From.IsZero() {
		from = sql.NullString{String: entry.From.Hex(), Valid: true}
	}
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query,
		entry.ItemID,
		from,
		entry.To.Hex(),
		int16(entry.Status),
		entry.Notes,
		entry.Timestamp,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("append item history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByItem(ctx context.Context, itemID int64) ([]*models.HistoryEntry, error) {
	query := `
		SELECT seq, from_id, to_id, status, notes, created_at
		FROM item_history
		WHERE item_id = $1
		ORDER BY seq
	`
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("query item history: %w", err)
	}
	defer rows.Close()

	out := []*models.HistoryEntry{}
	for rows.Next() {
		var (
			entry  = models.HistoryEntry{ItemID: itemID}
			from   sql.NullString
			to     string
			status int16
		)
		if err := rows.Scan(&entry.Seq, &from, &to, &status, &entry.Notes, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan item history: %w", err)
		}
		if from.Valid {
			if entry.From, err = id.ParseIdentity(from.String); err != nil {
				return nil, fmt.Errorf("parse history sender: %w", err)
			}
		}
		if entry.To, err = id.ParseIdentity(to); err != nil {
			return nil, fmt.Errorf("parse history recipient: %w", err)
		}
		entry.Status = models.Status(status)
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item history: %w", err)
	}
	return out, nil
}
