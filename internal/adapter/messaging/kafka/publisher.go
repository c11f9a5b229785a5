package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"storefront-payments/config"
	"storefront-payments/internal/core/domain"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	headerEventType = "event_type"
	headerMessageID = "message_id"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher implements ports.EventPublisher on a Kafka topic.
// Messages are keyed by order id so one order's events stay on one partition, in order.
type Publisher struct {
	writer MessageWriter
	log    zerolog.Logger
}

// NewWriter creates a Kafka writer for the payment events topic.
func NewWriter(cfg config.KafkaConfig) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// NewPublisher creates a Publisher writing through w.
func NewPublisher(w MessageWriter, log zerolog.Logger) *Publisher {
	return &Publisher{
		writer: w,
		log:    log.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish writes all messages synchronously. Either every message is acknowledged
// or an error is returned.
func (p *Publisher) Publish(ctx context.Context, msgs []domain.OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	if err := p.writer.WriteMessages(ctx, toKafkaMessages(msgs)...); err != nil {
		return fmt.Errorf("write kafka messages: %w", err)
	}

	p.log.Debug().Int("count", len(msgs)).Msg("payment events published")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func toKafkaMessages(msgs []domain.OutboxMessage) []kafkago.Message {
	out := make([]kafkago.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, kafkago.Message{
			Key:   []byte(strconv.FormatInt(m.OrderID, 10)),
			Value: m.Payload,
			Time:  m.CreatedAt,
			Headers: []kafkago.Header{
				{Key: headerEventType, Value: []byte(m.EventType)},
				{Key: headerMessageID, Value: []byte(m.ID.String())},
			},
		})
	}
	return out
}
