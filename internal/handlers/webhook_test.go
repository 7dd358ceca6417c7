package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/linkrelay/linkrelay/internal/bot"
	"github.com/linkrelay/linkrelay/internal/handlers"
	"github.com/linkrelay/linkrelay/internal/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEventHandler struct {
	events []bot.Event
	reply  string
	err    error
}

func (f *fakeEventHandler) HandleEvent(_ context.Context, ev bot.Event) (string, error) {
	f.events = append(f.events, ev)

	return f.reply, f.err
}

type fakeSender struct {
	chatIDs []int64
	texts   []string
	err     error
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)

	return f.err
}

func textUpdate(chatID, userID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			From: &telegram.User{ID: userID},
			Chat: telegram.Chat{ID: chatID},
			Text: text,
		},
	}
}

func TestWebhookHandleUpdate(t *testing.T) {
	t.Run("forwards message and sends reply", func(t *testing.T) {
		handler := &fakeEventHandler{reply: "short links inside"}
		sender := &fakeSender{}
		webhook := handlers.NewWebhookHandler(handler, sender, "", zap.NewNop())

		req := &handlers.WebhookRequest{Body: textUpdate(200, 100, "see https://example.com")}

		resp, err := webhook.HandleUpdate(context.Background(), req)

		require.NoError(t, err)
		require.NotNil(t, resp)

		require.Len(t, handler.events, 1)
		assert.Equal(t, int64(200), handler.events[0].ChatID)
		assert.Equal(t, int64(100), handler.events[0].UserID)
		assert.Equal(t, "see https://example.com", handler.events[0].Text)

		require.Len(t, sender.texts, 1)
		assert.Equal(t, int64(200), sender.chatIDs[0])
		assert.Equal(t, "short links inside", sender.texts[0])
	})

	t.Run("empty reply sends nothing", func(t *testing.T) {
		handler := &fakeEventHandler{}
		sender := &fakeSender{}
		webhook := handlers.NewWebhookHandler(handler, sender, "", zap.NewNop())

		req := &handlers.WebhookRequest{Body: textUpdate(200, 100, "no links here")}

		_, err := webhook.HandleUpdate(context.Background(), req)

		require.NoError(t, err)
		assert.Empty(t, sender.texts)
	})

	t.Run("rejects wrong secret token", func(t *testing.T) {
		handler := &fakeEventHandler{}
		webhook := handlers.NewWebhookHandler(handler, &fakeSender{}, "expected", zap.NewNop())

		req := &handlers.WebhookRequest{SecretToken: "wrong", Body: textUpdate(200, 100, "hi")}

		resp, err := webhook.HandleUpdate(context.Background(), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
		assert.Empty(t, handler.events)
	})

	t.Run("accepts matching secret token", func(t *testing.T) {
		handler := &fakeEventHandler{}
		webhook := handlers.NewWebhookHandler(handler, &fakeSender{}, "expected", zap.NewNop())

		req := &handlers.WebhookRequest{SecretToken: "expected", Body: textUpdate(200, 100, "hi")}

		_, err := webhook.HandleUpdate(context.Background(), req)

		require.NoError(t, err)
		assert.Len(t, handler.events, 1)
	})

	t.Run("acknowledges update without message", func(t *testing.T) {
		handler := &fakeEventHandler{}
		webhook := handlers.NewWebhookHandler(handler, &fakeSender{}, "", zap.NewNop())

		resp, err := webhook.HandleUpdate(context.Background(), &handlers.WebhookRequest{})

		require.NoError(t, err)
		assert.NotNil(t, resp)
		assert.Empty(t, handler.events)
	})

	t.Run("handler error still acknowledges", func(t *testing.T) {
		handler := &fakeEventHandler{err: errors.New("boom")}
		webhook := handlers.NewWebhookHandler(handler, &fakeSender{}, "", zap.NewNop())

		req := &handlers.WebhookRequest{Body: textUpdate(200, 100, "hi")}

		resp, err := webhook.HandleUpdate(context.Background(), req)

		require.NoError(t, err)
		assert.NotNil(t, resp)
	})
}
