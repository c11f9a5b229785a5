package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"storefront-payments/internal/core/domain"
	"storefront-payments/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory order, note and outbox store with the same
// optimistic concurrency contract as the PostgreSQL repositories: an Update
// holds the row until its transaction ends and fails when the version moved.
type memStore struct {
	mu      sync.Mutex
	rowLock sync.Mutex
	orders  map[uuid.UUID]*domain.Order
	notes   []domain.OrderNote
	outbox  []domain.OutboxMessage

	// beforeUpdate, when set, runs after a delivery read the order and before it writes.
	beforeUpdate func()
}

func newMemStore(orders ...*domain.Order) *memStore {
	s := &memStore{orders: make(map[uuid.UUID]*domain.Order)}
	for _, o := range orders {
		s.orders[o.OrderGUID] = cloneOrder(o)
	}
	return s
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := &domain.Order{
		ID:                             o.ID,
		OrderGUID:                      o.OrderGUID,
		OrderTotal:                     o.OrderTotal,
		RefundedAmount:                 o.RefundedAmount,
		Currency:                       o.Currency,
		OrderStatus:                    o.OrderStatus,
		PaymentStatus:                  o.PaymentStatus,
		AuthorizationTransactionID:     o.AuthorizationTransactionID,
		AuthorizationTransactionResult: o.AuthorizationTransactionResult,
		CaptureTransactionID:           o.CaptureTransactionID,
		CaptureTransactionResult:       o.CaptureTransactionResult,
		AppliedRefundIDs:               append([]string(nil), o.AppliedRefundIDs...),
		Version:                        o.Version,
		CreatedAt:                      o.CreatedAt,
		UpdatedAt:                      o.UpdatedAt,
	}
	if o.PaidAt != nil {
		paidAt := *o.PaidAt
		c.PaidAt = &paidAt
	}
	return c
}

func (s *memStore) order(guid uuid.UUID) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrder(s.orders[guid])
}

func (s *memStore) notesFor(orderID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, n := range s.notes {
		if n.OrderID == orderID {
			out = append(out, n.Note)
		}
	}
	return out
}

func (s *memStore) outboxTypes() []domain.PaymentEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PaymentEventType
	for _, m := range s.outbox {
		out = append(out, m.EventType)
	}
	return out
}

// ---- ports.OrderRepository ----

func (s *memStore) GetByGUID(ctx context.Context, guid uuid.UUID) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[guid]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (s *memStore) Update(ctx context.Context, tx pgx.Tx, o *domain.Order, expectedVersion int64) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}

	mt := tx.(*memTx)
	if !mt.locked {
		s.rowLock.Lock()
		mt.locked = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.OrderGUID]
	if !ok || cur.Version != expectedVersion {
		return ports.ErrVersionConflict
	}

	o.Version = expectedVersion + 1
	mt.order = cloneOrder(o)
	return nil
}

func (s *memStore) AppendNotes(ctx context.Context, tx pgx.Tx, notes []domain.OrderNote) error {
	mt := tx.(*memTx)
	mt.notes = append(mt.notes, notes...)
	return nil
}

func (s *memStore) ListNotes(ctx context.Context, orderID int64) ([]domain.OrderNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OrderNote
	for _, n := range s.notes {
		if n.OrderID == orderID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---- ports.OutboxRepository ----

func (s *memStore) Create(ctx context.Context, tx pgx.Tx, msgs []domain.OutboxMessage) error {
	mt := tx.(*memTx)
	mt.outbox = append(mt.outbox, msgs...)
	return nil
}

func (s *memStore) FetchUnprocessed(ctx context.Context, tx pgx.Tx, limit int) ([]domain.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OutboxMessage
	for _, m := range s.outbox {
		if m.ProcessedAt == nil && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	return errors.New("not supported by memStore")
}

// ---- ports.DBTransactor ----

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{store: s}, nil
}

// memTx buffers writes until Commit. It implements pgx.Tx.
type memTx struct {
	store     *memStore
	locked    bool
	done      bool
	committed bool
	order     *domain.Order
	notes     []domain.OrderNote
	outbox    []domain.OutboxMessage
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.committed = true

	s := t.store
	s.mu.Lock()
	if t.order != nil {
		s.orders[t.order.OrderGUID] = t.order
	}
	s.notes = append(s.notes, t.notes...)
	s.outbox = append(s.outbox, t.outbox...)
	s.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.release()
	return nil
}

func (t *memTx) release() {
	if t.locked {
		t.locked = false
		t.store.rowLock.Unlock()
	}
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *memTx) Conn() *pgx.Conn                                               { return nil }
