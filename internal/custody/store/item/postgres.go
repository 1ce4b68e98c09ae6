package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"custody/internal/custody/models"
	"custody/internal/platform/postgres"
	id "custody/pkg/domain"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore persists items. Id allocation locks the ledger_counters row
// and transfers lock the item row, both until the surrounding transaction ends.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) NextID(ctx context.Context) (int64, error) {
	query := `
		UPDATE ledger_counters
		SET next_item_id = next_item_id + 1
		WHERE id = 1
		RETURNING next_item_id - 1
	`
	var itemID int64
	if err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query).Scan(&itemID); err != nil {
		return 0, fmt.Errorf("allocate item id: %w", err)
	}
	return itemID, nil
}

func (s *PostgresStore) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (id, name, description, current_holder, origin_manufacturer, status, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.CurrentHolder.Hex(),
		item.OriginManufacturer.Hex(),
		int16(item.Status),
		item.CreatedAt,
		item.LastUpdated,
	)
	if err != nil {
		if postgres.HasCode(err, postgres.CodeUniqueViolation) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

const selectItem = `
	SELECT id, name, description, current_holder, origin_manufacturer, status, created_at, last_updated
	FROM items
	WHERE id = $1
`

func (s *PostgresStore) FindByID(ctx context.Context, itemID int64) (*models.Item, error) {
	return s.find(ctx, selectItem, itemID)
}

// FindForUpdate reads the item and holds its row lock until the transaction
// ends, so a concurrent transfer waits and then sees the committed holder.
func (s *PostgresStore) FindForUpdate(ctx context.Context, itemID int64) (*models.Item, error) {
	return s.find(ctx, selectItem+" FOR UPDATE", itemID)
}

func (s *PostgresStore) find(ctx context.Context, query string, itemID int64) (*models.Item, error) {
	var (
		item           models.Item
		holder, origin string
		status         int16
	)
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, itemID).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&holder,
		&origin,
		&status,
		&item.CreatedAt,
		&item.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	if item.CurrentHolder, err = id.ParseIdentity(holder); err != nil {
		return nil, fmt.Errorf("parse item holder: %w", err)
	}
	if item.OriginManufacturer, err = id.ParseIdentity(origin); err != nil {
		return nil, fmt.Errorf("parse item origin: %w", err)
	}
	item.Status = models.Status(status)
	return &item, nil
}

func (s *PostgresStore) Update(ctx context.Context, item *models.Item) error {
	query := `
		UPDATE items
		SET current_holder = $2, status = $3, last_updated = $4
		WHERE id = $1
	`
	res, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		item.ID,
		item.CurrentHolder.Hex(),
		int16(item.Status),
		item.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Count is the number of allocated ids; ids are never reused.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT next_item_id - 1 FROM ledger_counters WHERE id = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}
