package handlers

import "github.com/linkrelay/linkrelay/internal/telegram"

// WebhookRequest is an update pushed by the Bot API to the webhook endpoint.
type WebhookRequest struct {
	SecretToken string          `doc:"Secret token configured via setWebhook" header:"X-Telegram-Bot-Api-Secret-Token"`
	Body        telegram.Update `contentType:"application/json"`
}

// WebhookResponse acknowledges an update. The Bot API only looks at the
// status code, so the body stays empty.
type WebhookResponse struct{}
