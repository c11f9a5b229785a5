package service

import (
	"context"
	"fmt"
	"time"

	"storefront-payments/internal/core/domain"
	"storefront-payments/internal/core/ports"
	"storefront-payments/pkg/apperror"

	"github.com/rs/zerolog"
)

const missingPayPalOrderMessage = "No order id has been returned by PayPal."

// CheckoutServiceImpl implements ports.CheckoutService.
type CheckoutServiceImpl struct {
	store ports.CheckoutStateStore
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl. State expires after ttl.
func NewCheckoutService(store ports.CheckoutStateStore, ttl time.Duration, log zerolog.Logger) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		store: store,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With().Str("component", "checkout_service").Logger(),
	}
}

// InitTransaction records the PayPal order created by the smart button for the session.
func (s *CheckoutServiceImpl) InitTransaction(ctx context.Context, sessionID, payPalOrderID string) error {
	if payPalOrderID == "" {
		return apperror.Validation(missingPayPalOrderMessage)
	}

	state := &domain.CheckoutState{
		SessionID:     sessionID,
		PayPalOrderID: payPalOrderID,
		ButtonUsed:    true,
		CreatedAt:     s.now(),
	}
	if err := s.store.Save(ctx, state, s.ttl); err != nil {
		return apperror.InternalError(fmt.Errorf("save checkout state: %w", err))
	}

	s.log.Debug().Str("session_id", sessionID).Str("paypal_order_id", payPalOrderID).Msg("checkout state created")
	return nil
}

// RedirectionSuccess flags the confirm page to submit automatically. Without an
// order id the state is discarded and CHK_001 is returned.
func (s *CheckoutServiceImpl) RedirectionSuccess(ctx context.Context, sessionID string) (*domain.CheckoutState, error) {
	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load checkout state: %w", err))
	}

	if !state.HasOrder() {
		if err := s.store.Remove(ctx, sessionID); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("remove checkout state: %w", err))
		}
		return nil, apperror.ErrMissingCheckoutState("PayPalOrderId")
	}

	state.SubmitForm = true
	if err := s.store.Save(ctx, state, s.ttl); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save checkout state: %w", err))
	}
	return state, nil
}

// RedirectionCancel discards the session's checkout state.
func (s *CheckoutServiceImpl) RedirectionCancel(ctx context.Context, sessionID string) error {
	if err := s.store.Remove(ctx, sessionID); err != nil {
		return apperror.InternalError(fmt.Errorf("remove checkout state: %w", err))
	}
	return nil
}
