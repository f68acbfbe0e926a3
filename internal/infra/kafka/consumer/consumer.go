package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarkd/internal/config"
)

// exportHandler processes export-requested messages.
type exportHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Consumer is the single background worker of the system: it fetches export
// tasks from Kafka one at a time and runs them to completion before fetching
// the next, so batches never overlap.
type Consumer struct {
	Client        *wbfkafka.Consumer
	exportHandler exportHandler
	cfg           *config.Kafka
	strategy      retry.Strategy
}

// New creates a new Consumer.
// - cfg: Kafka configuration struct
// - s: retry strategy
// - h: handler for export-requested messages
func New(cfg *config.Kafka, s retry.Strategy, h exportHandler) *Consumer {
	consumer := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	return &Consumer{
		Client:        consumer,
		exportHandler: h,
		cfg:           cfg,
		strategy:      s,
	}
}

// Consume continuously fetches messages, processes them and commits offsets
// after successful processing. It stops gracefully on context cancellation.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.cfg.Topic).
		Msg("starting export worker")

	for {
		// Exit if context is canceled (graceful shutdown).
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping export worker")
			return
		}

		// Fetch a message from Kafka with retries.
		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.Client.Fetch(ctx)
			return fetchErr
		}, c.strategy)

		if err != nil {
			// Log error and retry after a short backoff.
			zlog.Logger.Err(err).Msg("failed to fetch message")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		// A failed batch is still a consumed batch: per-file errors live in
		// the batch result, so the message is committed either way.
		if err := c.exportHandler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("message", string(msg.Value)).
				Msg("failed to process export batch")
		}

		// Commit the message with retries.
		err = retry.Do(func() error {
			return c.Client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
		}
	}
}
