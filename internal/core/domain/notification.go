package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EventType is the closed set of webhook resource types the reconciler knows.
type EventType string

const (
	EventTypeAuthorization EventType = "authorization"
	EventTypeCapture       EventType = "capture"
	EventTypeRefund        EventType = "refund"
	EventTypeUnknown       EventType = "unknown"
)

// ParseEventType maps a gateway resource_type, case-insensitively.
func ParseEventType(s string) EventType {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case EventTypeAuthorization:
		return EventTypeAuthorization
	case EventTypeCapture:
		return EventTypeCapture
	case EventTypeRefund:
		return EventTypeRefund
	default:
		return EventTypeUnknown
	}
}

// ResourceStatus is the closed set of resource statuses that can drive a transition.
type ResourceStatus string

const (
	ResourceStatusCreated   ResourceStatus = "created"
	ResourceStatusDenied    ResourceStatus = "denied"
	ResourceStatusExpired   ResourceStatus = "expired"
	ResourceStatusPending   ResourceStatus = "pending"
	ResourceStatusVoided    ResourceStatus = "voided"
	ResourceStatusCompleted ResourceStatus = "completed"
	ResourceStatusDeclined  ResourceStatus = "declined"
	ResourceStatusRefunded  ResourceStatus = "refunded"
	ResourceStatusUnknown   ResourceStatus = "unknown"
)

var knownStatuses = map[ResourceStatus]struct{}{
	ResourceStatusCreated:   {},
	ResourceStatusDenied:    {},
	ResourceStatusExpired:   {},
	ResourceStatusPending:   {},
	ResourceStatusVoided:    {},
	ResourceStatusCompleted: {},
	ResourceStatusDeclined:  {},
	ResourceStatusRefunded:  {},
}

// ParseResourceStatus maps a gateway resource status, case-insensitively.
func ParseResourceStatus(s string) ResourceStatus {
	st := ResourceStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownStatuses[st]; ok {
		return st
	}
	return ResourceStatusUnknown
}

// WebhookNotification is one parsed gateway delivery. It lives for a single request.
type WebhookNotification struct {
	EventID        string
	EventName      string // e.g. PAYMENT.CAPTURE.COMPLETED, informational only
	EventType      EventType
	RawType        string
	ResourceStatus ResourceStatus
	RawStatus      string
	ResourceID     string
	Amount         decimal.Decimal
	AmountValid    bool
	Currency       string
	CorrelationID  string
	RawPayload     []byte
}

// webhookEnvelope mirrors the subset of the gateway's event JSON we consume.
type webhookEnvelope struct {
	ID           string           `json:"id"`
	EventType    string           `json:"event_type"`
	ResourceType string           `json:"resource_type"`
	Resource     *webhookResource `json:"resource"`
}

type webhookResource struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	CustomID      string                `json:"custom_id"`
	Amount        *webhookAmount        `json:"amount"`
	PurchaseUnits []webhookPurchaseUnit `json:"purchase_units"`
}

type webhookAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type webhookPurchaseUnit struct {
	CustomID string `json:"custom_id"`
}

// ErrEmptyPayload is returned for a delivery without a body.
var ErrEmptyPayload = errors.New("empty webhook payload")

// ParseWebhookNotification decodes the gateway envelope. Unknown resource types and
// statuses parse successfully and are mapped to their Unknown variants.
func ParseWebhookNotification(raw []byte) (*WebhookNotification, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrEmptyPayload
	}

	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}

	n := &WebhookNotification{
		EventID:    env.ID,
		EventName:  env.EventType,
		EventType:  ParseEventType(env.ResourceType),
		RawType:    env.ResourceType,
		RawPayload: raw,
	}

	res := env.Resource
	if res == nil {
		n.ResourceStatus = ResourceStatusUnknown
		return n, nil
	}

	n.ResourceID = res.ID
	n.RawStatus = res.Status
	n.ResourceStatus = ParseResourceStatus(res.Status)

	n.CorrelationID = res.CustomID
	if n.CorrelationID == "" && len(res.PurchaseUnits) > 0 {
		n.CorrelationID = res.PurchaseUnits[0].CustomID
	}

	if res.Amount != nil {
		n.Currency = res.Amount.CurrencyCode
		if amount, err := decimal.NewFromString(strings.TrimSpace(res.Amount.Value)); err == nil {
			n.Amount = amount
			n.AmountValid = true
		}
	}

	return n, nil
}
