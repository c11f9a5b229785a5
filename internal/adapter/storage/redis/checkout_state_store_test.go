package redis

import (
	"context"
	"testing"
	"time"

	"storefront-payments/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestCheckoutStateStore_SaveAndGet(t *testing.T) {
	s, client := newTestClient(t)
	store := NewCheckoutStateStore(client)
	ctx := context.Background()

	state, err := store.Get(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, state, "absent state")

	saved := &domain.CheckoutState{
		SessionID:     "sess-1",
		PayPalOrderID: "5O190127TN364715T",
		ButtonUsed:    true,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, saved, time.Hour))
	assert.True(t, s.Exists("checkout:paypal:sess-1"))

	state, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "5O190127TN364715T", state.PayPalOrderID)
	assert.True(t, state.ButtonUsed)
	assert.False(t, state.SubmitForm)
	assert.True(t, saved.CreatedAt.Equal(state.CreatedAt))
}

func TestCheckoutStateStore_TTLExpiry(t *testing.T) {
	s, client := newTestClient(t)
	store := NewCheckoutStateStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.CheckoutState{SessionID: "sess-2", PayPalOrderID: "X"}, time.Minute))

	s.FastForward(2 * time.Minute)

	state, err := store.Get(ctx, "sess-2")
	assert.NoError(t, err)
	assert.Nil(t, state, "expired state is gone")
}

func TestCheckoutStateStore_Remove(t *testing.T) {
	_, client := newTestClient(t)
	store := NewCheckoutStateStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.CheckoutState{SessionID: "sess-3", PayPalOrderID: "X"}, time.Minute))
	require.NoError(t, store.Remove(ctx, "sess-3"))

	state, err := store.Get(ctx, "sess-3")
	assert.NoError(t, err)
	assert.Nil(t, state)

	assert.NoError(t, store.Remove(ctx, "never-saved"))
}

func TestCheckoutStateStore_CorruptValue(t *testing.T) {
	s, client := newTestClient(t)
	store := NewCheckoutStateStore(client)

	require.NoError(t, s.Set("checkout:paypal:sess-4", "not-json"))

	_, err := store.Get(context.Background(), "sess-4")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	_, client := newTestClient(t)
	h := NewHealthCheck(client)

	assert.Equal(t, "redis", h.Name())
	assert.NoError(t, h.Ping(context.Background()))
}
