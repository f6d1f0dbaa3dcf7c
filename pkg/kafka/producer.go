package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Event is the unit of data published to Kafka. Key is used for partition
// hashing and Value is JSON-serialised.
type Event struct {
	Key   string
	Value any
}

// Producer publishes JSON-encoded events to the configured topic.
type Producer struct {
	writer    *kafka.Writer
	batchSize int
	logger    *slog.Logger
}

// NewProducer creates a Producer for cfg.Topic. The hash balancer keeps
// equal keys on one partition.
func NewProducer(cfg config.KafkaConfig) *Producer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              batchSize,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer:    w,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "kafka-producer", "topic", cfg.Topic),
	}
}

// Encode turns events into Kafka messages.
func Encode(events []Event) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			return nil, fmt.Errorf("marshaling event value: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Key),
			Value: value,
		})
	}
	return messages, nil
}

// PublishBatch writes events in chunks of the configured batch size,
// synchronously and in order.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	messages, err := Encode(events)
	if err != nil {
		return err
	}
	for start := 0; start < len(messages); start += p.batchSize {
		end := min(start+p.batchSize, len(messages))
		if err := p.writer.WriteMessages(ctx, messages[start:end]...); err != nil {
			p.logger.Error("failed to publish batch",
				"offset", start,
				"count", end-start,
				"error", err,
			)
			return fmt.Errorf("publishing batch to kafka: %w", err)
		}
		p.logger.Debug("batch published", "count", end-start)
	}
	return nil
}

// Close flushes pending writes and closes the underlying Kafka writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
