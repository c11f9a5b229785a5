package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-payments/internal/core/domain"
	"storefront-payments/internal/core/ports"
	"storefront-payments/internal/metrics"
	"storefront-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const webhookNotePrefix = "Webhook: \n"

// WebhookOptions configures webhook reconciliation.
type WebhookOptions struct {
	WebhookID         string // PayPal webhook id used for signature verification
	MaxCommitAttempts int
}

// WebhookServiceImpl implements ports.WebhookService.
type WebhookServiceImpl struct {
	orderRepo  ports.OrderRepository
	outboxRepo ports.OutboxRepository
	transactor ports.DBTransactor
	verifier   ports.SignatureVerifier
	reconciler *Reconciler
	metrics    *metrics.Metrics
	opts       WebhookOptions
	log        zerolog.Logger
}

// NewWebhookService creates a new WebhookServiceImpl.
func NewWebhookService(
	orderRepo ports.OrderRepository,
	outboxRepo ports.OutboxRepository,
	transactor ports.DBTransactor,
	verifier ports.SignatureVerifier,
	reconciler *Reconciler,
	m *metrics.Metrics,
	opts WebhookOptions,
	log zerolog.Logger,
) *WebhookServiceImpl {
	if opts.MaxCommitAttempts < 1 {
		opts.MaxCommitAttempts = 1
	}
	return &WebhookServiceImpl{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		transactor: transactor,
		verifier:   verifier,
		reconciler: reconciler,
		metrics:    m,
		opts:       opts,
		log:        log.With().Str("component", "webhook_service").Logger(),
	}
}

// HandleWebhook verifies, correlates and reconciles one gateway delivery.
// Every failure is logged here together with the raw payload.
func (s *WebhookServiceImpl) HandleWebhook(ctx context.Context, rawBody []byte, headers ports.TransmissionHeaders) error {
	if len(bytes.TrimSpace(rawBody)) == 0 {
		s.metrics.WebhookDelivery(metrics.OutcomeEmpty)
		return nil
	}

	err := s.handle(ctx, rawBody, headers)
	s.metrics.WebhookDelivery(deliveryOutcome(err))
	if err != nil {
		s.logFailure(err, rawBody, headers)
	}
	return err
}

func (s *WebhookServiceImpl) handle(ctx context.Context, rawBody []byte, headers ports.TransmissionHeaders) error {
	n, err := domain.ParseWebhookNotification(rawBody)
	if err != nil {
		return apperror.ErrMalformedPayload(err)
	}

	log := s.log.With().
		Str("event_id", n.EventID).
		Str("resource_type", n.RawType).
		Str("status", n.RawStatus).
		Str("resource_id", n.ResourceID).
		Logger()

	// Verify signature with the gateway
	start := time.Now()
	err = s.verifier.Verify(ctx, headers, s.opts.WebhookID, n.RawPayload)
	s.metrics.Verification(time.Since(start), err == nil)
	if err != nil {
		return apperror.ErrVerificationFailed(err)
	}

	// Correlate to an order
	orderGUID, err := uuid.Parse(n.CorrelationID)
	if err != nil {
		return apperror.ErrOrderNotFound()
	}
	log = log.With().Str("order_guid", orderGUID.String()).Logger()

	// Reconcile and commit; a lost optimistic update re-reads the order and
	// re-evaluates every guard against the fresh state.
	for attempt := 1; attempt <= s.opts.MaxCommitAttempts; attempt++ {
		outcome, err := s.reconcileOnce(ctx, orderGUID, n)
		if errors.Is(err, ports.ErrVersionConflict) {
			s.metrics.CommitConflict()
			log.Warn().Int("attempt", attempt).Msg("order changed concurrently, retrying")
			continue
		}
		if err != nil {
			return err
		}

		s.metrics.Transition(string(n.EventType), string(n.ResourceStatus), string(outcome))
		log.Info().
			Str("outcome", string(outcome)).
			Int("attempt", attempt).
			Msg("webhook reconciled")
		return nil
	}

	return apperror.ErrCommitConflict(s.opts.MaxCommitAttempts)
}

// reconcileOnce loads the freshest order, applies the notification and commits
// the order, its notes and its outbox events in one transaction.
func (s *WebhookServiceImpl) reconcileOnce(ctx context.Context, orderGUID uuid.UUID, n *domain.WebhookNotification) (Outcome, error) {
	order, err := s.orderRepo.GetByGUID(ctx, orderGUID)
	if err != nil {
		return "", apperror.ErrDatabaseError(fmt.Errorf("load order: %w", err))
	}
	if order == nil {
		return "", apperror.ErrOrderNotFound()
	}
	expectedVersion := order.Version

	order.AddOrderNote(webhookNotePrefix+string(n.RawPayload), false)

	outcome, err := s.reconciler.Apply(order, n)
	if err != nil {
		return "", err
	}

	msgs, err := outboxMessages(order.PendingEvents())
	if err != nil {
		return "", apperror.InternalError(err)
	}

	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return "", apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.orderRepo.Update(ctx, dbTx, order, expectedVersion); err != nil {
		if errors.Is(err, ports.ErrVersionConflict) {
			return "", err
		}
		return "", apperror.ErrDatabaseError(fmt.Errorf("update order: %w", err))
	}

	if err := s.orderRepo.AppendNotes(ctx, dbTx, order.PendingNotes()); err != nil {
		return "", apperror.ErrDatabaseError(fmt.Errorf("append notes: %w", err))
	}

	if len(msgs) > 0 {
		if err := s.outboxRepo.Create(ctx, dbTx, msgs); err != nil {
			return "", apperror.ErrDatabaseError(fmt.Errorf("write outbox: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return "", apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	return outcome, nil
}

func outboxMessages(events []domain.PaymentEvent) ([]domain.OutboxMessage, error) {
	msgs := make([]domain.OutboxMessage, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("marshal payment event: %w", err)
		}
		msgs = append(msgs, domain.OutboxMessage{
			ID:        ev.ID,
			OrderID:   ev.OrderID,
			EventType: ev.Type,
			Payload:   payload,
			CreatedAt: ev.OccurredAt,
		})
	}
	return msgs, nil
}

func (s *WebhookServiceImpl) logFailure(err error, rawBody []byte, headers ports.TransmissionHeaders) {
	ev := s.log.Error()
	if apperror.HasCode(err, apperror.CodeOrderNotFound) || apperror.HasCode(err, apperror.CodeUnsupportedResourceType) {
		ev = s.log.Warn()
	}
	ev.Err(err).
		Str("transmission_id", headers.TransmissionID).
		Bytes("raw_payload", rawBody).
		Msg("webhook not applied")
}

func deliveryOutcome(err error) string {
	var appErr *apperror.AppError
	if err == nil {
		return metrics.OutcomeProcessed
	}
	if !errors.As(err, &appErr) {
		return metrics.OutcomeError
	}
	switch appErr.Code {
	case apperror.CodeMalformedPayload:
		return metrics.OutcomeMalformed
	case apperror.CodeVerificationFailed:
		return metrics.OutcomeUnverified
	case apperror.CodeOrderNotFound:
		return metrics.OutcomeNotFound
	case apperror.CodeUnsupportedResourceType:
		return metrics.OutcomeUnsupported
	case apperror.CodeCommitConflict:
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
