package telegram

import (
	"context"
	"time"

	"github.com/linkrelay/linkrelay/internal/bot"
	"go.uber.org/zap"
)

// EventHandler processes one inbound event and returns the reply text, or
// "" when no reply should be sent. bot.Handler satisfies it.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev bot.Event) (string, error)
}

const (
	defaultPollTimeout = 30 * time.Second
	errorBackoff       = 2 * time.Second
)

// Poller runs the getUpdates long-poll loop and forwards messages to the
// event handler. It implements the messaging.Runnable lifecycle.
type Poller struct {
	client      *Client
	handler     EventHandler
	pollTimeout time.Duration
	logger      *zap.Logger
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewPoller creates a long-poll consumer of Telegram updates.
func NewPoller(client *Client, handler EventHandler, logger *zap.Logger) *Poller {
	return &Poller{
		client:      client,
		handler:     handler,
		pollTimeout: defaultPollTimeout,
		logger:      logger,
		done:        make(chan struct{}),
	}
}

// Start begins polling in the background.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	go p.pollLoop(ctx)

	p.logger.Info("telegram poller started")

	return nil
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer close(p.done)

	var offset int64

	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			p.logger.Warn("get updates failed", zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}

			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}

			p.handleUpdate(ctx, update)
		}
	}
}

func (p *Poller) handleUpdate(ctx context.Context, update Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	ev := bot.Event{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
		Text:   msg.Text,
	}

	reply, err := p.handler.HandleEvent(ctx, ev)
	if err != nil {
		p.logger.Error("event handling failed",
			zap.Int64("chat_id", ev.ChatID),
			zap.Error(err),
		)
	}

	if reply == "" {
		return
	}

	if err := p.client.SendText(ctx, ev.ChatID, reply); err != nil {
		p.logger.Error("failed to send reply",
			zap.Int64("chat_id", ev.ChatID),
			zap.Error(err),
		)
	}
}

// Shutdown stops the poll loop and waits for it to drain.
func (p *Poller) Shutdown() error {
	if p.cancel != nil {
		p.cancel()
	}

	<-p.done

	return nil
}
