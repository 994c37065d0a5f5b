package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog"

	"horse.fit/curio/internal/config"
)

// Handler processes one message payload. A non-nil error leaves the offset
// uncommitted so the broker redelivers the message.
type Handler func(ctx context.Context, payload []byte) error

const pollTimeout = time.Second

// Consumer reads the content topic with manual offset commits, so an event
// is only acknowledged after its transaction committed.
type Consumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  Handler
	logger   zerolog.Logger
}

func NewConsumer(cfg *config.Config, handler Handler, logger zerolog.Logger) (*Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.KafkaBroker,
		"group.id":           cfg.KafkaGroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	if err := consumer.SubscribeTopics([]string{cfg.KafkaContentTopic}, nil); err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", cfg.KafkaContentTopic, err)
	}
	return &Consumer{
		consumer: consumer,
		topic:    cfg.KafkaContentTopic,
		handler:  handler,
		logger:   logger,
	}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Str("topic", c.topic).Msg("consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("consumer stopping")
			return nil
		default:
		}

		msg, err := c.consumer.ReadMessage(pollTimeout)
		if err != nil {
			var kafkaErr kafka.Error
			if errors.As(err, &kafkaErr) {
				if kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kafkaErr.Code() == kafka.ErrAllBrokersDown {
					return fmt.Errorf("all brokers down: %w", err)
				}
			}
			c.logger.Warn().Err(err).Msg("failed to read message")
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn().
				Err(err).
				Int32("partition", msg.TopicPartition.Partition).
				Str("offset", msg.TopicPartition.Offset.String()).
				Msg("message left uncommitted for redelivery")
			continue
		}

		if err := c.commit(msg); err != nil {
			c.logger.Warn().
				Err(err).
				Int32("partition", msg.TopicPartition.Partition).
				Str("offset", msg.TopicPartition.Offset.String()).
				Msg("failed to commit offset")
		}
	}
}

// handle retries the handler with exponential backoff before giving the
// message back to the broker.
func (c *Consumer) handle(ctx context.Context, msg *kafka.Message) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error {
		return c.handler(ctx, msg.Value)
	}, policy)
}

func (c *Consumer) commit(msg *kafka.Message) error {
	_, err := c.consumer.CommitMessage(msg)
	return err
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}
