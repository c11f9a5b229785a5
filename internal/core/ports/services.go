package ports

import (
	"context"
	"time"

	"storefront-payments/internal/core/domain"

	"github.com/google/uuid"
)

// TransmissionHeaders are the gateway's signature headers for one webhook delivery.
type TransmissionHeaders struct {
	AuthAlgo         string
	CertURL          string
	TransmissionID   string
	TransmissionSig  string
	TransmissionTime string
}

// SignatureVerifier validates a webhook delivery against the payment gateway.
// A nil error means the gateway positively confirmed the signature.
type SignatureVerifier interface {
	Verify(ctx context.Context, headers TransmissionHeaders, webhookID string, rawEvent []byte) error
}

// WebhookService reconciles one inbound gateway delivery.
// The returned error is for the HTTP boundary only; every error is already logged.
type WebhookService interface {
	HandleWebhook(ctx context.Context, rawBody []byte, headers TransmissionHeaders) error
}

// EventPublisher delivers relayed outbox messages to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, msgs []domain.OutboxMessage) error
}

// CheckoutStateStore keeps PayPal checkout state per storefront session.
type CheckoutStateStore interface {
	Get(ctx context.Context, sessionID string) (*domain.CheckoutState, error) // nil, nil when absent
	Save(ctx context.Context, state *domain.CheckoutState, ttl time.Duration) error
	Remove(ctx context.Context, sessionID string) error
}

// CheckoutService manages the PayPal checkout state lifecycle.
type CheckoutService interface {
	InitTransaction(ctx context.Context, sessionID, payPalOrderID string) error
	RedirectionSuccess(ctx context.Context, sessionID string) (*domain.CheckoutState, error)
	RedirectionCancel(ctx context.Context, sessionID string) error
}

// OrderQueryService serves the operator view of reconciled orders.
type OrderQueryService interface {
	GetOrder(ctx context.Context, guid uuid.UUID) (*domain.Order, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(operatorID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	OperatorID uuid.UUID
	Username   string
}

// AuthService defines operator authentication.
type AuthService interface {
	CreateOperator(ctx context.Context, username, password string) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}
