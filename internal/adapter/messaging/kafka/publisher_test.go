package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-payments/config"
	"storefront-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafkago.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, zerolog.Nop())
	id := uuid.New()
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), []domain.OutboxMessage{{
		ID:        id,
		OrderID:   42,
		EventType: domain.PaymentEventPaid,
		Payload:   []byte(`{"type":"order.paid"}`),
		CreatedAt: createdAt,
	}})
	require.NoError(t, err)

	require.Len(t, w.written, 1)
	msg := w.written[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.JSONEq(t, `{"type":"order.paid"}`, string(msg.Value))
	assert.Equal(t, createdAt, msg.Time)
	assert.Equal(t, []kafkago.Header{
		{Key: "event_type", Value: []byte("order.paid")},
		{Key: "message_id", Value: []byte(id.String())},
	}, msg.Headers)
}

func TestPublisher_Publish_Empty(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	p := NewPublisher(w, zerolog.Nop())

	assert.NoError(t, p.Publish(context.Background(), nil))
}

func TestPublisher_Publish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewPublisher(w, zerolog.Nop())

	err := p.Publish(context.Background(), []domain.OutboxMessage{{ID: uuid.New(), OrderID: 1}})
	assert.ErrorContains(t, err, "leader not available")
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewPublisher(w, zerolog.Nop()).Close())
	assert.True(t, w.closed)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(config.KafkaConfig{Brokers: []string{"k1:9092", "k2:9092"}, Topic: "paypal.order-payment-events"})
	defer w.Close()

	assert.Equal(t, "paypal.order-payment-events", w.Topic)
	assert.NotNil(t, w.Addr)
	assert.Equal(t, kafkago.RequireAll, w.RequiredAcks)
}
