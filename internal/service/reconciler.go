package service

import (
	"time"

	"storefront-payments/internal/core/domain"
	"storefront-payments/pkg/apperror"
)

// Outcome is the reconciler's decision for one notification.
type Outcome string

const (
	// OutcomeApplied means the order's payment state changed.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means a precondition rejected the transition.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeIgnored means the status has no transition for this event type.
	OutcomeIgnored Outcome = "ignored"
)

type transitionKey struct {
	event  domain.EventType
	status domain.ResourceStatus
}

// transition mutates the order and reports whether its precondition held.
type transition func(o *domain.Order, n *domain.WebhookNotification, now time.Time) bool

// transitions is the complete payment state machine driven by webhooks.
// Pairs missing from the table are acknowledged without a state change.
var transitions = map[transitionKey]transition{
	{domain.EventTypeAuthorization, domain.ResourceStatusCreated}: authorizationCreated,
	{domain.EventTypeAuthorization, domain.ResourceStatusDenied}:  authorizationNotCompleted,
	{domain.EventTypeAuthorization, domain.ResourceStatusExpired}: authorizationNotCompleted,
	{domain.EventTypeAuthorization, domain.ResourceStatusPending}: authorizationNotCompleted,
	{domain.EventTypeAuthorization, domain.ResourceStatusVoided}:  authorizationVoided,

	{domain.EventTypeCapture, domain.ResourceStatusCompleted}: captureCompleted,
	{domain.EventTypeCapture, domain.ResourceStatusPending}:   capturePending,
	{domain.EventTypeCapture, domain.ResourceStatusDeclined}:  captureDeclined,
	{domain.EventTypeCapture, domain.ResourceStatusRefunded}:  captureRefunded,

	{domain.EventTypeRefund, domain.ResourceStatusCompleted}: refundCompleted,
}

// Reconciler applies webhook notifications to orders.
type Reconciler struct {
	now func() time.Time
}

// NewReconciler creates a Reconciler using the wall clock.
func NewReconciler() *Reconciler {
	return &Reconciler{now: func() time.Time { return time.Now().UTC() }}
}

// Apply runs the transition for the notification's event type and status.
// It fails only for resource types outside the state machine.
func (r *Reconciler) Apply(o *domain.Order, n *domain.WebhookNotification) (Outcome, error) {
	if n.EventType == domain.EventTypeUnknown {
		return "", apperror.ErrUnsupportedResourceType(n.RawType)
	}

	apply, ok := transitions[transitionKey{n.EventType, n.ResourceStatus}]
	if !ok {
		return OutcomeIgnored, nil
	}
	if !apply(o, n, r.now()) {
		return OutcomeSkipped, nil
	}
	return OutcomeApplied, nil
}

// amountMatchesTotal compares a gateway amount with the order total at cent precision.
func amountMatchesTotal(o *domain.Order, n *domain.WebhookNotification) bool {
	return n.AmountValid && n.Amount.Equal(o.RoundedTotal())
}

func authorizationCreated(o *domain.Order, n *domain.WebhookNotification, _ time.Time) bool {
	if !amountMatchesTotal(o, n) || !o.CanMarkOrderAsAuthorized() {
		return false
	}
	o.AuthorizationTransactionID = n.ResourceID
	o.AuthorizationTransactionResult = string(n.ResourceStatus)
	o.MarkAsAuthorized()
	return true
}

func authorizationNotCompleted(o *domain.Order, n *domain.WebhookNotification, _ time.Time) bool {
	o.AuthorizationTransactionResult = string(n.ResourceStatus)
	o.SetPending()
	return true
}

func authorizationVoided(o *domain.Order, n *domain.WebhookNotification, _ time.Time) bool {
	if !o.CanVoidOffline() {
		return false
	}
	o.AuthorizationTransactionID = n.ResourceID
	o.AuthorizationTransactionResult = string(n.ResourceStatus)
	o.VoidOffline()
	return true
}

func captureCompleted(o *domain.Order, n *domain.WebhookNotification, now time.Time) bool {
	if !n.AmountValid || !o.CanMarkOrderAsPaid() || !amountMatchesTotal(o, n) {
		return false
	}
	o.CaptureTransactionID = n.ResourceID
	o.CaptureTransactionResult = string(n.ResourceStatus)
	o.MarkAsPaid(now)
	return true
}

func capturePending(o *domain.Order, n *domain.WebhookNotification, _ time.Time) bool {
	o.CaptureTransactionResult = string(n.ResourceStatus)
	o.SetPending()
	return true
}

func captureDeclined(o *domain.Order, n *domain.WebhookNotification, _ time.Time) bool {
	o.CaptureTransactionResult = string(n.ResourceStatus)
	o.Cancel()
	return true
}

func captureRefunded(o *domain.Order, _ *domain.WebhookNotification, _ time.Time) bool {
	if !o.CanRefundOffline() {
		return false
	}
	o.RefundOffline()
	return true
}

// refundCompleted is the only transition with explicit de-duplication:
// the refund id is recorded in the order's ledger in the same update.
// A refund without an id cannot be de-duplicated and is not applied.
func refundCompleted(o *domain.Order, n *domain.WebhookNotification, _ time.Time) bool {
	if n.ResourceID == "" || o.HasRefund(n.ResourceID) || !n.AmountValid || !o.CanPartiallyRefundOffline(n.Amount) {
		return false
	}
	o.PartiallyRefundOffline(n.ResourceID, n.Amount)
	return true
}
