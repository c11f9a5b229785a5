package service

import (
	"context"
	"fmt"
	"time"

	"storefront-payments/internal/core/ports"
	"storefront-payments/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OutboxRelay publishes committed payment events to the broker.
// Several relays may run at once; row locks keep their batches disjoint.
type OutboxRelay struct {
	outboxRepo ports.OutboxRepository
	transactor ports.DBTransactor
	publisher  ports.EventPublisher
	metrics    *metrics.Metrics
	interval   time.Duration
	batchSize  int
	log        zerolog.Logger
}

// NewOutboxRelay creates a new OutboxRelay.
func NewOutboxRelay(
	outboxRepo ports.OutboxRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	m *metrics.Metrics,
	interval time.Duration,
	batchSize int,
	log zerolog.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		outboxRepo: outboxRepo,
		transactor: transactor,
		publisher:  publisher,
		metrics:    m,
		interval:   interval,
		batchSize:  batchSize,
		log:        log.With().Str("component", "outbox_relay").Logger(),
	}
}

// Run relays batches every interval until ctx is cancelled. A full batch is
// followed immediately by the next one.
func (r *OutboxRelay) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Int("batch_size", r.batchSize).Msg("outbox relay started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		for {
			n, err := r.ProcessBatch(ctx)
			if err != nil {
				r.metrics.OutboxFailure()
				r.log.Error().Err(err).Msg("outbox batch failed")
				break
			}
			if n < r.batchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			r.log.Info().Msg("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessBatch publishes one batch and marks it processed. Messages are marked
// only after the broker acknowledged all of them.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	dbTx, err := r.transactor.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	msgs, err := r.outboxRepo.FetchUnprocessed(ctx, dbTx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, msgs); err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	if err := r.outboxRepo.MarkProcessed(ctx, dbTx, ids); err != nil {
		return 0, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	r.metrics.OutboxPublished(len(msgs))
	r.log.Debug().Int("count", len(msgs)).Msg("outbox batch relayed")
	return len(msgs), nil
}
