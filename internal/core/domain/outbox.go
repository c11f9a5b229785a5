package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEventType names an applied payment transition.
type PaymentEventType string

const (
	PaymentEventAuthorized        PaymentEventType = "order.authorized"
	PaymentEventPaid              PaymentEventType = "order.paid"
	PaymentEventVoided            PaymentEventType = "order.voided"
	PaymentEventRefunded          PaymentEventType = "order.refunded"
	PaymentEventPartiallyRefunded PaymentEventType = "order.partially_refunded"
	PaymentEventPending           PaymentEventType = "order.pending"
	PaymentEventCancelled         PaymentEventType = "order.cancelled"
)

// PaymentEvent describes a state change for downstream consumers.
type PaymentEvent struct {
	ID            uuid.UUID        `json:"id"`
	Type          PaymentEventType `json:"type"`
	OrderID       int64            `json:"order_id"`
	OrderGUID     uuid.UUID        `json:"order_guid"`
	OrderStatus   OrderStatus      `json:"order_status"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency,omitempty"`
	TransactionID string           `json:"transaction_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// OutboxMessage is a payment event waiting to be relayed to the message broker.
// It is written in the same transaction as the order change it describes.
type OutboxMessage struct {
	ID          uuid.UUID        `json:"id"`
	OrderID     int64            `json:"order_id"`
	EventType   PaymentEventType `json:"event_type"`
	Payload     []byte           `json:"payload"`
	CreatedAt   time.Time        `json:"created_at"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
}
