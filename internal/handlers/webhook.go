// Package handlers exposes the webhook HTTP surface for inbound chat updates.
package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkrelay/linkrelay/internal/bot"
	"github.com/linkrelay/linkrelay/internal/telegram"
	"go.uber.org/zap"
)

// ReplySender delivers reply text back to a chat. telegram.Client satisfies it.
type ReplySender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// WebhookHandler receives pushed updates as an alternative to long polling.
type WebhookHandler struct {
	handler     telegram.EventHandler
	sender      ReplySender
	secretToken string
	logger      *zap.Logger
}

// NewWebhookHandler creates the webhook endpoint handler. A non-empty
// secretToken must match the X-Telegram-Bot-Api-Secret-Token header on
// every request.
func NewWebhookHandler(handler telegram.EventHandler, sender ReplySender, secretToken string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		handler:     handler,
		sender:      sender,
		secretToken: secretToken,
		logger:      logger,
	}
}

// HandleUpdate processes one pushed update and acknowledges it. Updates
// without a usable text message are acknowledged and dropped.
func (h *WebhookHandler) HandleUpdate(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error) {
	if h.secretToken != "" && req.SecretToken != h.secretToken {
		return nil, huma.Error401Unauthorized("invalid secret token")
	}

	msg := req.Body.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return &WebhookResponse{}, nil
	}

	ev := bot.Event{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
		Text:   msg.Text,
	}

	reply, err := h.handler.HandleEvent(ctx, ev)
	if err != nil {
		h.logger.Error("event handling failed",
			zap.Int64("chat_id", ev.ChatID),
			zap.Error(err),
		)
	}

	if reply != "" {
		if err := h.sender.SendText(ctx, ev.ChatID, reply); err != nil {
			h.logger.Error("failed to send reply",
				zap.Int64("chat_id", ev.ChatID),
				zap.Error(err),
			)
		}
	}

	return &WebhookResponse{}, nil
}
