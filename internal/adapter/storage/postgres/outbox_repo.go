package postgres

import (
	"context"
	"fmt"

	"storefront-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OutboxRepo implements ports.OutboxRepository.
type OutboxRepo struct {
	pool Pool
}

// NewOutboxRepo creates a new OutboxRepo.
func NewOutboxRepo(pool Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// Create inserts outbox messages in the caller's transaction.
func (r *OutboxRepo) Create(ctx context.Context, tx pgx.Tx, msgs []domain.OutboxMessage) error {
	query := `INSERT INTO outbox_messages (id, order_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	for _, m := range msgs {
		if _, err := tx.Exec(ctx, query, m.ID, m.OrderID, m.EventType, m.Payload, m.CreatedAt); err != nil {
			return fmt.Errorf("insert outbox message: %w", err)
		}
	}
	return nil
}

// FetchUnprocessed locks up to limit unprocessed messages, oldest first.
// Rows locked by a concurrent relay are skipped.
func (r *OutboxRepo) FetchUnprocessed(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxMessage, error) {
	query := `SELECT id, order_id, event_type, payload, created_at
		FROM outbox_messages WHERE processed_at IS NULL
		ORDER BY created_at LIMIT $1 FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.OutboxMessage
	for rows.Next() {
		var m domain.OutboxMessage
		if err := rows.Scan(&m.ID, &m.OrderID, &m.EventType, &m.Payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox messages: %w", err)
	}
	return msgs, nil
}

// MarkProcessed stamps processed_at on the given messages.
func (r *OutboxRepo) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE outbox_messages SET processed_at = NOW() WHERE id = ANY($1)`

	if _, err := tx.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("mark outbox messages processed: %w", err)
	}
	return nil
}
