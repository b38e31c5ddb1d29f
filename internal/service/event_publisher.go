package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/khiva-labs/hotelier/internal/domain"
	"github.com/khiva-labs/hotelier/pkg/kafka"
	"github.com/khiva-labs/hotelier/pkg/retry"
	"go.uber.org/zap"
)

// KafkaEventPublisher publishes payment events to Kafka, keyed by booking ID
// so events for the same booking stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
	retrier  *retry.Retrier
	logger   *zap.Logger
}

// NewKafkaEventPublisher creates a new publisher
func NewKafkaEventPublisher(producer *kafka.Producer, topic string, logger *zap.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		topic:    topic,
		retrier: retry.New(&retry.Config{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		}),
		logger: logger,
	}
}

// Publish serializes the event and produces it with bounded retries
func (p *KafkaEventPublisher) Publish(ctx context.Context, event *domain.PaymentEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: map[string]string{
			"event_type": string(event.EventType),
			"event_id":   event.EventID,
		},
		Timestamp: event.OccurredAt,
	}

	err = p.retrier.Do(ctx, func(ctx context.Context) error {
		return p.producer.Produce(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	p.logger.Debug("payment event published",
		zap.String("event_type", string(event.EventType)),
		zap.String("event_id", event.EventID),
		zap.Int64("booking_id", event.BookingID))
	return nil
}
