package postgres

import (
	"context"
	"errors"
	"fmt"

	"storefront-payments/internal/core/domain"
	"storefront-payments/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Money columns are read as text to keep full numeric precision.
const orderColumns = `id, order_guid, order_total::text, refunded_amount::text, currency, order_status, payment_status,
		authorization_transaction_id, authorization_transaction_result,
		capture_transaction_id, capture_transaction_result,
		applied_refund_ids, paid_at, version, created_at, updated_at`

// GetByGUID fetches an order by its public GUID (non-locking read).
// Returns nil, nil when no order matches.
func (r *OrderRepo) GetByGUID(ctx context.Context, guid uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_guid = $1`

	o := &domain.Order{}
	var total, refunded string
	err := r.pool.QueryRow(ctx, query, guid).Scan(
		&o.ID, &o.OrderGUID, &total, &refunded, &o.Currency, &o.OrderStatus, &o.PaymentStatus,
		&o.AuthorizationTransactionID, &o.AuthorizationTransactionResult,
		&o.CaptureTransactionID, &o.CaptureTransactionResult,
		&o.AppliedRefundIDs, &o.PaidAt, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by guid: %w", err)
	}

	if o.OrderTotal, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse order total %q: %w", total, err)
	}
	if o.RefundedAmount, err = decimal.NewFromString(refunded); err != nil {
		return nil, fmt.Errorf("parse refunded amount %q: %w", refunded, err)
	}
	return o, nil
}

// Update writes the order's payment state if the stored version still equals
// expectedVersion. It returns ports.ErrVersionConflict when another writer won.
// On success order.Version is advanced to the stored value.
func (r *OrderRepo) Update(ctx context.Context, tx pgx.Tx, o *domain.Order, expectedVersion int64) error {
	query := `UPDATE orders SET
		refunded_amount = $1, order_status = $2, payment_status = $3,
		authorization_transaction_id = $4, authorization_transaction_result = $5,
		capture_transaction_id = $6, capture_transaction_result = $7,
		applied_refund_ids = $8, paid_at = $9,
		version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11`

	refundIDs := o.AppliedRefundIDs
	if refundIDs == nil {
		refundIDs = []string{}
	}

	tag, err := tx.Exec(ctx, query,
		o.RefundedAmount.String(), o.OrderStatus, o.PaymentStatus,
		o.AuthorizationTransactionID, o.AuthorizationTransactionResult,
		o.CaptureTransactionID, o.CaptureTransactionResult,
		refundIDs, o.PaidAt,
		o.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrVersionConflict
	}

	o.Version = expectedVersion + 1
	return nil
}

// AppendNotes inserts order notes within a transaction, preserving their order.
func (r *OrderRepo) AppendNotes(ctx context.Context, tx pgx.Tx, notes []domain.OrderNote) error {
	query := `INSERT INTO order_notes (id, order_id, note, display_to_customer, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	for _, n := range notes {
		if _, err := tx.Exec(ctx, query, n.ID, n.OrderID, n.Note, n.DisplayToCustomer, n.CreatedAt); err != nil {
			return fmt.Errorf("insert order note: %w", err)
		}
	}
	return nil
}

// ListNotes returns an order's notes ordered by creation.
func (r *OrderRepo) ListNotes(ctx context.Context, orderID int64) ([]domain.OrderNote, error) {
	query := `SELECT id, order_id, note, display_to_customer, created_at
		FROM order_notes WHERE order_id = $1 ORDER BY created_at, seq`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.OrderNote
	for rows.Next() {
		var n domain.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Note, &n.DisplayToCustomer, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order notes: %w", err)
	}
	return notes, nil
}
