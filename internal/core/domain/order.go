package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusComplete   OrderStatus = "COMPLETE"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// PaymentStatus represents how far payment for an order has progressed.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusAuthorized        PaymentStatus = "AUTHORIZED"
	PaymentStatusCaptured          PaymentStatus = "CAPTURED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusVoided            PaymentStatus = "VOIDED"
)

// OrderNote is an append-only audit entry attached to an order.
type OrderNote struct {
	ID                uuid.UUID `json:"id"`
	OrderID           int64     `json:"order_id"`
	Note              string    `json:"note"`
	DisplayToCustomer bool      `json:"display_to_customer"`
	CreatedAt         time.Time `json:"created_at"`
}

// Order is the persisted checkout order whose payment state webhooks reconcile.
// Version is the optimistic concurrency token checked on every update.
type Order struct {
	ID                             int64           `json:"id"`
	OrderGUID                      uuid.UUID       `json:"order_guid"`
	OrderTotal                     decimal.Decimal `json:"order_total"`
	RefundedAmount                 decimal.Decimal `json:"refunded_amount"`
	Currency                       string          `json:"currency"`
	OrderStatus                    OrderStatus     `json:"order_status"`
	PaymentStatus                  PaymentStatus   `json:"payment_status"`
	AuthorizationTransactionID     string          `json:"authorization_transaction_id,omitempty"`
	AuthorizationTransactionResult string          `json:"authorization_transaction_result,omitempty"`
	CaptureTransactionID           string          `json:"capture_transaction_id,omitempty"`
	CaptureTransactionResult       string          `json:"capture_transaction_result,omitempty"`
	AppliedRefundIDs               []string        `json:"applied_refund_ids"`
	PaidAt                         *time.Time      `json:"paid_at,omitempty"`
	Version                        int64           `json:"version"`
	CreatedAt                      time.Time       `json:"created_at"`
	UpdatedAt                      time.Time       `json:"updated_at"`

	// Notes holds persisted notes when loaded for display.
	Notes []OrderNote `json:"notes,omitempty"`

	pendingNotes  []OrderNote
	pendingEvents []PaymentEvent
}

// AddOrderNote queues a note to be persisted with the next order update.
func (o *Order) AddOrderNote(note string, displayToCustomer bool) {
	o.pendingNotes = append(o.pendingNotes, OrderNote{
		ID:                uuid.New(),
		OrderID:           o.ID,
		Note:              note,
		DisplayToCustomer: displayToCustomer,
		CreatedAt:         time.Now().UTC(),
	})
}

// PendingNotes returns notes queued since the order was loaded, oldest first.
func (o *Order) PendingNotes() []OrderNote {
	return o.pendingNotes
}

// PendingEvents returns payment events raised since the order was loaded.
func (o *Order) PendingEvents() []PaymentEvent {
	return o.pendingEvents
}

// HasRefund reports whether a refund with the given gateway id was already applied.
func (o *Order) HasRefund(refundID string) bool {
	for _, id := range o.AppliedRefundIDs {
		if id == refundID {
			return true
		}
	}
	return false
}

// RoundedTotal is the order total at cent precision, the form gateway amounts are compared to.
// Midpoints round half to even.
func (o *Order) RoundedTotal() decimal.Decimal {
	return o.OrderTotal.RoundBank(2)
}

// ---- Capability guards ----

// CanMarkOrderAsAuthorized reports whether the order may move to Authorized.
func (o *Order) CanMarkOrderAsAuthorized() bool {
	if o.OrderStatus == OrderStatusCancelled {
		return false
	}
	return o.PaymentStatus == PaymentStatusPending
}

// CanMarkOrderAsPaid reports whether the order may move to Captured.
func (o *Order) CanMarkOrderAsPaid() bool {
	if o.OrderStatus == OrderStatusCancelled {
		return false
	}
	switch o.PaymentStatus {
	case PaymentStatusCaptured, PaymentStatusPartiallyRefunded, PaymentStatusRefunded, PaymentStatusVoided:
		return false
	}
	return true
}

// CanVoidOffline reports whether an authorization can be voided without a gateway call.
func (o *Order) CanVoidOffline() bool {
	if o.OrderTotal.IsZero() {
		return false
	}
	return o.PaymentStatus == PaymentStatusAuthorized
}

// CanRefundOffline reports whether the full order total can be refunded.
func (o *Order) CanRefundOffline() bool {
	if o.OrderTotal.IsZero() {
		return false
	}
	return o.PaymentStatus == PaymentStatusCaptured
}

// CanPartiallyRefundOffline reports whether amount can be refunded against what remains.
func (o *Order) CanPartiallyRefundOffline(amount decimal.Decimal) bool {
	if o.OrderTotal.IsZero() || !amount.IsPositive() {
		return false
	}
	refundable := o.OrderTotal.Sub(o.RefundedAmount)
	if !refundable.IsPositive() || amount.GreaterThan(refundable) {
		return false
	}
	return o.PaymentStatus == PaymentStatusCaptured || o.PaymentStatus == PaymentStatusPartiallyRefunded
}

// ---- Offline payment operations ----
// Callers check the matching guard first; the operations themselves do not.

// MarkAsAuthorized records that the gateway authorized the order total.
func (o *Order) MarkAsAuthorized() {
	o.PaymentStatus = PaymentStatusAuthorized
	o.AddOrderNote("Order has been marked as authorized", false)
	o.checkOrderStatus()
	o.raise(PaymentEventAuthorized, decimal.Zero, o.AuthorizationTransactionID)
}

// MarkAsPaid records that the gateway captured the order total.
func (o *Order) MarkAsPaid(now time.Time) {
	o.PaymentStatus = PaymentStatusCaptured
	o.PaidAt = &now
	o.AddOrderNote("Order has been marked as paid", false)
	o.checkOrderStatus()
	o.raise(PaymentEventPaid, o.OrderTotal, o.CaptureTransactionID)
}

// VoidOffline records that the authorization was voided.
func (o *Order) VoidOffline() {
	o.PaymentStatus = PaymentStatusVoided
	o.AddOrderNote("Order has been marked as voided", false)
	o.checkOrderStatus()
	o.raise(PaymentEventVoided, decimal.Zero, o.AuthorizationTransactionID)
}

// RefundOffline refunds the whole order total.
func (o *Order) RefundOffline() {
	amount := o.OrderTotal
	o.RefundedAmount = o.RefundedAmount.Add(amount)
	o.PaymentStatus = PaymentStatusRefunded
	o.AddOrderNote(fmt.Sprintf("Order has been marked as refunded. Amount = %s", amount.StringFixed(2)), false)
	o.checkOrderStatus()
	o.raise(PaymentEventRefunded, amount, o.CaptureTransactionID)
}

// PartiallyRefundOffline refunds amount and records refundID in the refund ledger.
// The payment becomes Refunded once the refunded sum reaches the order total.
func (o *Order) PartiallyRefundOffline(refundID string, amount decimal.Decimal) {
	o.RefundedAmount = o.RefundedAmount.Add(amount)
	if o.RefundedAmount.GreaterThanOrEqual(o.OrderTotal) {
		o.PaymentStatus = PaymentStatusRefunded
	} else {
		o.PaymentStatus = PaymentStatusPartiallyRefunded
	}
	o.AppliedRefundIDs = append(o.AppliedRefundIDs, refundID)
	o.AddOrderNote(fmt.Sprintf("Order has been marked as partially refunded. Amount = %s", amount.StringFixed(2)), false)
	o.checkOrderStatus()
	o.raise(PaymentEventPartiallyRefunded, amount, refundID)
}

// SetPending moves the order back to Pending after a pending/denied/expired gateway result.
func (o *Order) SetPending() {
	if o.OrderStatus == OrderStatusPending {
		return
	}
	o.OrderStatus = OrderStatusPending
	o.raise(PaymentEventPending, decimal.Zero, "")
}

// Cancel moves the order to Cancelled after a declined capture.
func (o *Order) Cancel() {
	if o.OrderStatus == OrderStatusCancelled {
		return
	}
	o.OrderStatus = OrderStatusCancelled
	o.raise(PaymentEventCancelled, decimal.Zero, o.CaptureTransactionID)
}

// checkOrderStatus promotes a pending order once money is secured.
func (o *Order) checkOrderStatus() {
	if o.OrderStatus != OrderStatusPending {
		return
	}
	if o.PaymentStatus == PaymentStatusAuthorized || o.PaymentStatus == PaymentStatusCaptured {
		o.OrderStatus = OrderStatusProcessing
		o.AddOrderNote("Order status has been changed to Processing", false)
	}
}

func (o *Order) raise(eventType PaymentEventType, amount decimal.Decimal, transactionID string) {
	o.pendingEvents = append(o.pendingEvents, PaymentEvent{
		ID:            uuid.New(),
		Type:          eventType,
		OrderID:       o.ID,
		OrderGUID:     o.OrderGUID,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		Amount:        amount,
		Currency:      o.Currency,
		TransactionID: transactionID,
		OccurredAt:    time.Now().UTC(),
	})
}
