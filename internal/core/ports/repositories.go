package ports

import (
	"context"
	"errors"

	"storefront-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrVersionConflict is returned by OrderRepository.Update when the row's version
// no longer matches the version the caller read.
var ErrVersionConflict = errors.New("order version conflict")

// ErrDuplicateUsername is returned by OperatorRepository.Create for a taken username.
var ErrDuplicateUsername = errors.New("operator username already exists")

// OrderRepository is the Order Store boundary.
// Update is a compare-and-update on Order.Version: it succeeds only if the stored
// version equals expectedVersion, and bumps the version on success.
type OrderRepository interface {
	GetByGUID(ctx context.Context, guid uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, tx pgx.Tx, order *domain.Order, expectedVersion int64) error
	AppendNotes(ctx context.Context, tx pgx.Tx, notes []domain.OrderNote) error
	ListNotes(ctx context.Context, orderID int64) ([]domain.OrderNote, error)
}

// OutboxRepository persists payment events for asynchronous relay.
type OutboxRepository interface {
	Create(ctx context.Context, tx pgx.Tx, msgs []domain.OutboxMessage) error
	// FetchUnprocessed locks up to limit pending messages (FOR UPDATE SKIP LOCKED).
	FetchUnprocessed(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxMessage, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
}

// OperatorRepository defines persistence operations for back-office operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	GetByUsername(ctx context.Context, username string) (*domain.Operator, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
