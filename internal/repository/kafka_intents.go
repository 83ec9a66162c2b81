package repository

import (
	"context"
	"fmt"

	"ArbPilot/internal/domain/models"
	pkgkafka "ArbPilot/pkg/kafka"
)

// KafkaIntentPublisher publishes execution intents for the downstream
// executor. Messages are keyed by stream name so per-stream ordering is
// preserved across partitions.
type KafkaIntentPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaIntentPublisher creates a Kafka-backed intent publisher.
func NewKafkaIntentPublisher(producer *pkgkafka.Producer, topic string) *KafkaIntentPublisher {
	return &KafkaIntentPublisher{producer: producer, topic: topic}
}

// Publish sends one execution intent.
func (p *KafkaIntentPublisher) Publish(ctx context.Context, intent *models.ExecutionIntent) error {
	if intent == nil {
		return fmt.Errorf("intent is nil")
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(intent.Stream), intent); err != nil {
		return fmt.Errorf("publish intent %s/%s: %w", intent.Stream, intent.EntryID, err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaIntentPublisher) Close() error {
	return p.producer.Close()
}
