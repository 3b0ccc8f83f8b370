package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/quantserve/valuation-engine/config"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

// Producer publishes keyed messages to a single topic
type Producer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

func requiredAcks(acks string) kafka.RequiredAcks {
	switch acks {
	case "none":
		return kafka.RequireNone
	case "one":
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

// NewProducer creates a producer for the given topic
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: requiredAcks(cfg.Producer.RequiredAcks),
		BatchTimeout: cfg.Producer.BatchTimeout,
		MaxAttempts:  cfg.Producer.MaxRetries + 1,
		Compression:  kafka.Snappy,
	}
	return &Producer{
		writer: writer,
		log:    logger.GetLogger("kafka.producer." + topic),
	}
}

// Publish writes one keyed message. Messages with the same key land on the
// same partition, preserving per-task ordering.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// Close flushes and closes the underlying writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Handler processes one consumed message
type Handler func(ctx context.Context, key, value []byte) error

// Consumer reads a topic within a consumer group and dispatches each message
// to a handler
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// NewConsumer creates a group consumer for the given topic
func NewConsumer(cfg config.KafkaConfig, topic string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.Consumer.GroupID,
		Topic:          topic,
		MinBytes:       cfg.Consumer.MinBytes,
		MaxBytes:       cfg.Consumer.MaxBytes,
		CommitInterval: cfg.Consumer.CommitInterval,
	})
	return &Consumer{
		reader: reader,
		log:    logger.GetLogger("kafka.consumer." + topic),
	}
}

// Run consumes until the context is canceled. A handler error is logged and
// the message is committed anyway; redelivering a malformed task would only
// fail again.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.log.Errorf("handler failed for key %s: %v", string(msg.Key), err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Errorf("commit failed: %v", err)
		}
	}
}

// Close closes the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
