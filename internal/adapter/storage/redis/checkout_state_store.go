package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-payments/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// CheckoutStateStore implements ports.CheckoutStateStore using Redis.
// Each session's state is one JSON value that expires with the checkout.
type CheckoutStateStore struct {
	client *goredis.Client
	prefix string
}

// NewCheckoutStateStore creates a new Redis-backed checkout state store.
func NewCheckoutStateStore(client *goredis.Client) *CheckoutStateStore {
	return &CheckoutStateStore{
		client: client,
		prefix: "checkout:paypal:",
	}
}

// Get loads the checkout state for a session. Returns nil, nil if none is stored.
func (s *CheckoutStateStore) Get(ctx context.Context, sessionID string) (*domain.CheckoutState, error) {
	val, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis checkout state get: %w", err)
	}

	var state domain.CheckoutState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("decode checkout state: %w", err)
	}
	return &state, nil
}

// Save stores the checkout state, replacing any previous value and resetting its TTL.
func (s *CheckoutStateStore) Save(ctx context.Context, state *domain.CheckoutState, ttl time.Duration) error {
	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode checkout state: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+state.SessionID, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis checkout state set: %w", err)
	}
	return nil
}

// Remove deletes the checkout state for a session. Removing absent state is not an error.
func (s *CheckoutStateStore) Remove(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis checkout state delete: %w", err)
	}
	return nil
}
