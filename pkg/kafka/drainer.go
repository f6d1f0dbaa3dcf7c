// Package kafka provides the Kafka producer and drainer used to move album
// credit records through a topic, backed by segmentio/kafka-go. The producer
// keys messages by album so every record of an album lands on one partition
// in publish order; the drainer replays each partition from its first offset
// up to the high watermark observed at start.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler is a callback invoked for each Kafka message.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Drainer reads a topic from the beginning to its current end. It does not
// join a consumer group and commits nothing, so every run sees the full
// history.
type Drainer struct {
	cfg    config.KafkaConfig
	logger *slog.Logger
}

// NewDrainer creates a Drainer for cfg.Topic.
func NewDrainer(cfg config.KafkaConfig) *Drainer {
	return &Drainer{
		cfg:    cfg,
		logger: slog.Default().With("component", "kafka-drainer", "topic", cfg.Topic),
	}
}

// Drain replays every partition in turn, calling handler for each message,
// and returns the number of messages handled. A handler error stops the
// drain.
func (d *Drainer) Drain(ctx context.Context, handler MessageHandler) (int, error) {
	if len(d.cfg.Brokers) == 0 {
		return 0, errors.New("no kafka brokers configured")
	}
	partitions, err := d.partitions(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range partitions {
		n, err := d.drainPartition(ctx, p, handler)
		total += n
		if err != nil {
			return total, fmt.Errorf("draining partition %d: %w", p.ID, err)
		}
	}
	d.logger.Info("topic drained", "partitions", len(partitions), "messages", total)
	return total, nil
}

func (d *Drainer) partitions(ctx context.Context) ([]kafka.Partition, error) {
	conn, err := kafka.DialContext(ctx, "tcp", d.cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("dialing kafka: %w", err)
	}
	defer conn.Close()
	partitions, err := conn.ReadPartitions(d.cfg.Topic)
	if err != nil {
		return nil, fmt.Errorf("reading partitions for %s: %w", d.cfg.Topic, err)
	}
	return partitions, nil
}

// highWatermark returns the offset one past the last message currently in
// the partition.
func (d *Drainer) highWatermark(ctx context.Context, partition int) (first, last int64, err error) {
	conn, err := kafka.DialLeader(ctx, "tcp", d.cfg.Brokers[0], d.cfg.Topic, partition)
	if err != nil {
		return 0, 0, fmt.Errorf("dialing partition leader: %w", err)
	}
	defer conn.Close()
	return conn.ReadOffsets()
}

func (d *Drainer) drainPartition(ctx context.Context, p kafka.Partition, handler MessageHandler) (int, error) {
	first, last, err := d.highWatermark(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	if last <= first {
		return 0, nil
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   d.cfg.Brokers,
		Topic:     d.cfg.Topic,
		Partition: p.ID,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   250 * time.Millisecond,
	})
	defer r.Close()
	if err := r.SetOffset(first); err != nil {
		return 0, fmt.Errorf("seeking to offset %d: %w", first, err)
	}

	log := d.logger.With("partition", p.ID)
	log.Debug("partition drain started", "first_offset", first, "last_offset", last)

	n := 0
	for {
		msg, err := d.fetch(ctx, r)
		if err != nil {
			return n, err
		}
		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			return n, fmt.Errorf("handling offset %d: %w", msg.Offset, err)
		}
		n++
		if msg.Offset >= last-1 {
			log.Debug("partition drained", "messages", n)
			return n, nil
		}
	}
}

// fetch reads one message, bounding the wait by the drain timeout so a
// partition that stalls below its watermark fails instead of hanging.
func (d *Drainer) fetch(ctx context.Context, r *kafka.Reader) (kafka.Message, error) {
	fetchCtx := ctx
	if d.cfg.DrainTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, d.cfg.DrainTimeout)
		defer cancel()
	}
	msg, err := r.ReadMessage(fetchCtx)
	if err != nil {
		if ctx.Err() != nil {
			return msg, ctx.Err()
		}
		return msg, fmt.Errorf("reading message: %w", err)
	}
	return msg, nil
}

// DecodeJSON is a generic helper that unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
