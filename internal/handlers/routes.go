package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the webhook endpoint.
func RegisterRoutes(api huma.API, webhook *WebhookHandler) {
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/telegram/webhook",
		Summary:     "Receive a Telegram update",
		Description: "Accepts updates pushed by the Bot API when webhook mode is configured.",
		Tags:        []string{"Telegram"},
	}, webhook.HandleUpdate)
}
