package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/kafka"
)

// KafkaSource replays a topic of JSON-encoded records. Undecodable messages
// are logged and skipped.
type KafkaSource struct {
	drainer *kafka.Drainer
	logger  *slog.Logger
}

func NewKafkaSource(drainer *kafka.Drainer) *KafkaSource {
	return &KafkaSource{
		drainer: drainer,
		logger:  slog.Default().With("component", "kafka-source"),
	}
}

func (s *KafkaSource) Name() string { return "kafka" }

func (s *KafkaSource) Each(ctx context.Context, fn func(Record) error) error {
	_, err := s.drainer.Drain(ctx, decodeRecords(s.logger, fn))
	return err
}

func decodeRecords(logger *slog.Logger, fn func(Record) error) kafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		r, err := kafka.DecodeJSON[Record](value)
		if err != nil {
			logger.Warn("skipping undecodable record", "key", string(key), "error", err)
			return nil
		}
		return fn(r)
	}
}

// Publisher is the part of kafka.Producer used for seeding.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// PublishRecords sends records keyed by album, preserving their order within
// each album.
func PublishRecords(ctx context.Context, p Publisher, records []Record) error {
	if len(records) == 0 {
		return errors.New("no records to publish")
	}
	events := make([]kafka.Event, len(records))
	for i, r := range records {
		events[i] = kafka.Event{Key: r.Album, Value: r}
	}
	if err := p.PublishBatch(ctx, events); err != nil {
		return fmt.Errorf("publishing %d records: %w", len(records), err)
	}
	return nil
}
