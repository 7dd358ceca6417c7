package analytics

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Consumer consumes relay analytics events and persists them to the store.
type Consumer struct {
	subscriber message.Subscriber
	store      Store
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a new analytics consumer.
func NewConsumer(subscriber message.Subscriber, store Store, logger *zap.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		store:      store,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins consuming messages from both topics.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	shortenedMsgs, err := c.subscriber.Subscribe(ctx, TopicLinkShortened)
	if err != nil {
		return err
	}

	rewrittenMsgs, err := c.subscriber.Subscribe(ctx, TopicMessageRewritten)
	if err != nil {
		return err
	}

	go c.consumeLoop(ctx, shortenedMsgs, rewrittenMsgs)

	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context, shortenedMsgs, rewrittenMsgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-shortenedMsgs:
			if !ok {
				return
			}

			c.handleLinkShortened(ctx, msg)
		case msg, ok := <-rewrittenMsgs:
			if !ok {
				return
			}

			c.handleMessageRewritten(ctx, msg)
		}
	}
}

func (c *Consumer) handleLinkShortened(ctx context.Context, msg *message.Message) {
	var event LinkShortenedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("failed to unmarshal link shortened event",
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	if err := c.store.SaveLinkShortened(ctx, &event); err != nil {
		c.logger.Error("failed to save link shortened event",
			zap.Int64("user_id", event.UserID),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Debug("processed link shortened event",
		zap.Int64("user_id", event.UserID),
		zap.Bool("fallback", event.Fallback),
	)
}

func (c *Consumer) handleMessageRewritten(ctx context.Context, msg *message.Message) {
	var event MessageRewrittenEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("failed to unmarshal message rewritten event",
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	if err := c.store.SaveMessageRewritten(ctx, &event); err != nil {
		c.logger.Error("failed to save message rewritten event",
			zap.Int64("user_id", event.UserID),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Debug("processed message rewritten event",
		zap.Int64("user_id", event.UserID),
	)
}

// Shutdown stops the consumer and waits for the loop to drain.
func (c *Consumer) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
