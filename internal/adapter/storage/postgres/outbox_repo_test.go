package postgres

import (
	"context"
	"testing"
	"time"

	"storefront-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepo(mock)
	msg := domain.OutboxMessage{
		ID:        uuid.New(),
		OrderID:   7,
		EventType: domain.PaymentEventPaid,
		Payload:   []byte(`{"type":"order.paid"}`),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox_messages").
		WithArgs(msg.ID, msg.OrderID, msg.EventType, msg.Payload, msg.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), tx, []domain.OutboxMessage{msg}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepo_FetchUnprocessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepo(mock)
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM outbox_messages WHERE processed_at IS NULL .+ FOR UPDATE SKIP LOCKED").
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "event_type", "payload", "created_at"}).
			AddRow(id, int64(7), domain.PaymentEventRefunded, []byte(`{}`), now))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	msgs, err := repo.FetchUnprocessed(context.Background(), tx, 100)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.Equal(t, domain.PaymentEventRefunded, msgs[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepo_MarkProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepo(mock)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE outbox_messages SET processed_at").
		WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.MarkProcessed(context.Background(), tx, ids))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepo_MarkProcessed_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepo(mock)

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.MarkProcessed(context.Background(), tx, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
