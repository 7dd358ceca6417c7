package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkrelay/linkrelay/internal/analytics"
	"github.com/linkrelay/linkrelay/internal/credentials"
	"github.com/linkrelay/linkrelay/internal/messaging"
	"github.com/linkrelay/linkrelay/internal/metrics"
	"github.com/linkrelay/linkrelay/internal/ratelimit"
	"github.com/linkrelay/linkrelay/internal/rewrite"
	"github.com/linkrelay/linkrelay/internal/shorten"
	"go.uber.org/zap"
)

// Rewriter is the message pipeline the handler feeds non-command text into.
type Rewriter interface {
	Rewrite(ctx context.Context, message, apiKey string) rewrite.Result
}

// BalanceFetcher returns the account summary for an API key.
type BalanceFetcher interface {
	Balance(ctx context.Context, apiKey string) (*shorten.Balance, error)
}

// AliasGenerator produces a short code for /alias when the user does not
// supply one.
type AliasGenerator func() string

const helpText = `I shorten every link you send me.

Send any message containing URLs and I reply with the same message, links replaced by their shortened form.

Commands:
/setapi <key> - store your shortening service API key
/delapi - remove your stored key
/alias <url> [alias] - shorten one URL with a custom alias
/balance - show your account balance
/stats - show how many links I shortened for you
/help - this message`

const (
	replyNoCredential     = "You have no API key on file. Send /setapi <key> first."
	replyNothingShortened = "No URLs could be shortened."
	replyRateLimited      = "Slow down a little - try again in a minute."
	replyKeySaved         = "API key saved. Send me a message with links to shorten them."
	replyKeyRemoved       = "API key removed."
	replyUnknownCommand   = "I don't know that command. Send /help for the list."
	replySetAPIUsage      = "Usage: /setapi <key>"
	replyAliasUsage       = "Usage: /alias <url> [alias]"
	replyAliasFailed      = "Could not shorten that URL right now. Try again later."
	replyBalanceFailed    = "Could not fetch your balance. Check your API key and try again."
	replyInternalError    = "Something went wrong on my side. Try again later."
)

// Handler routes inbound events: slash commands are handled directly,
// everything else goes through the rewriting pipeline.
type Handler struct {
	creds            credentials.Store
	rewriter         Rewriter
	shortener        rewrite.Shortener
	balances         BalanceFetcher
	limiter          ratelimit.Limiter
	generateAlias    AliasGenerator
	publishRewritten messaging.Publish[analytics.MessageRewrittenEvent]
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

// NewHandler creates a bot handler with injected collaborators. shortener is
// the same retrying shortener the rewriter uses; /alias calls it directly to
// pass the custom alias through.
func NewHandler(
	creds credentials.Store,
	rewriter Rewriter,
	shortener rewrite.Shortener,
	balances BalanceFetcher,
	limiter ratelimit.Limiter,
	generateAlias AliasGenerator,
	publishRewritten messaging.Publish[analytics.MessageRewrittenEvent],
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		creds:            creds,
		rewriter:         rewriter,
		shortener:        shortener,
		balances:         balances,
		limiter:          limiter,
		generateAlias:    generateAlias,
		publishRewritten: publishRewritten,
		metrics:          m,
		logger:           logger,
	}
}

// HandleEvent processes one inbound event and returns the reply text. An
// empty reply means nothing should be sent.
func (h *Handler) HandleEvent(ctx context.Context, ev Event) (string, error) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return "", nil
	}

	meta := EventMeta{
		EventID: uuid.NewString(),
		ChatID:  ev.ChatID,
		UserID:  ev.UserID,
	}
	ctx = ContextWithEventMeta(ctx, meta)

	logger := h.logger.With(
		zap.String("event_id", meta.EventID),
		zap.Int64("user_id", ev.UserID),
	)

	if strings.HasPrefix(text, "/") {
		h.metrics.EventsTotal.WithLabelValues(metrics.KindCommand).Inc()

		return h.handleCommand(ctx, ev, text, logger)
	}

	h.metrics.EventsTotal.WithLabelValues(metrics.KindRewrite).Inc()

	return h.handleRewrite(ctx, ev, text, logger)
}

func (h *Handler) handleCommand(ctx context.Context, ev Event, text string, logger *zap.Logger) (string, error) {
	allowed, err := h.limiter.Allow(ctx, ev.UserID, ratelimit.ScopeCommand)
	if err != nil {
		logger.Error("rate limiter failed", zap.Error(err))

		return replyInternalError, err
	}

	if !allowed {
		return replyRateLimited, nil
	}

	command, args := splitCommand(text)

	switch command {
	case "/start", "/help":
		return helpText, nil
	case "/setapi":
		return h.setAPIKey(ctx, ev.UserID, args, logger)
	case "/delapi":
		return h.deleteAPIKey(ctx, ev.UserID, logger)
	case "/alias":
		return h.shortenWithAlias(ctx, ev.UserID, args, logger)
	case "/balance":
		return h.showBalance(ctx, ev.UserID, logger)
	case "/stats":
		return h.showStats(ctx, ev.UserID, logger)
	default:
		return replyUnknownCommand, nil
	}
}

func (h *Handler) handleRewrite(ctx context.Context, ev Event, text string, logger *zap.Logger) (string, error) {
	allowed, err := h.limiter.Allow(ctx, ev.UserID, ratelimit.ScopeRewrite)
	if err != nil {
		logger.Error("rate limiter failed", zap.Error(err))

		return replyInternalError, err
	}

	if !allowed {
		return replyRateLimited, nil
	}

	apiKey, err := h.creds.Get(ctx, ev.UserID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return replyNoCredential, nil
		}

		logger.Error("credential lookup failed", zap.Error(err))

		return replyInternalError, err
	}

	result := h.rewriter.Rewrite(ctx, text, apiKey)

	// Skipped tokens never reach the instrumented shortener, so their
	// outcome is counted here.
	if result.Skipped > 0 {
		h.metrics.LinksTotal.WithLabelValues(metrics.OutcomeSkipped).Add(float64(result.Skipped))
	}

	meta := EventMetaFromContext(ctx)
	event := &analytics.MessageRewrittenEvent{
		EventID:     meta.EventID,
		UserID:      ev.UserID,
		ChatID:      ev.ChatID,
		URLCount:    result.Shortened + result.Skipped + result.Failed,
		Shortened:   result.Shortened,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
		RewrittenAt: time.Now(),
	}

	if err := h.publishRewritten(event); err != nil {
		logger.Error("failed to publish message rewritten event", zap.Error(err))
	}

	if !result.Changed() {
		return replyNothingShortened, nil
	}

	if _, err := h.creds.AddUsage(ctx, ev.UserID, int64(result.Shortened)); err != nil {
		logger.Error("failed to update usage counter", zap.Error(err))
	}

	return result.Text, nil
}

func (h *Handler) setAPIKey(ctx context.Context, userID int64, args []string, logger *zap.Logger) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return replySetAPIUsage, nil
	}

	if err := h.creds.Set(ctx, userID, args[0]); err != nil {
		logger.Error("failed to store api key", zap.Error(err))

		return replyInternalError, err
	}

	return replyKeySaved, nil
}

func (h *Handler) deleteAPIKey(ctx context.Context, userID int64, logger *zap.Logger) (string, error) {
	if err := h.creds.Delete(ctx, userID); err != nil {
		logger.Error("failed to delete api key", zap.Error(err))

		return replyInternalError, err
	}

	return replyKeyRemoved, nil
}

func (h *Handler) shortenWithAlias(ctx context.Context, userID int64, args []string, logger *zap.Logger) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return replyAliasUsage, nil
	}

	apiKey, err := h.creds.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return replyNoCredential, nil
		}

		logger.Error("credential lookup failed", zap.Error(err))

		return replyInternalError, err
	}

	alias := h.generateAlias()
	if len(args) == 2 {
		alias = args[1]
	}

	result := h.shortener.ShortenWithRetry(ctx, args[0], apiKey, alias)
	if !result.OK {
		return replyAliasFailed, nil
	}

	if _, err := h.creds.AddUsage(ctx, userID, 1); err != nil {
		logger.Error("failed to update usage counter", zap.Error(err))
	}

	return result.URL, nil
}

func (h *Handler) showBalance(ctx context.Context, userID int64, logger *zap.Logger) (string, error) {
	apiKey, err := h.creds.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return replyNoCredential, nil
		}

		logger.Error("credential lookup failed", zap.Error(err))

		return replyInternalError, err
	}

	balance, err := h.balances.Balance(ctx, apiKey)
	if err != nil {
		logger.Warn("balance fetch failed", zap.Error(err))

		return replyBalanceFailed, nil
	}

	return formatBalance(balance), nil
}

func (h *Handler) showStats(ctx context.Context, userID int64, logger *zap.Logger) (string, error) {
	count, err := h.creds.Usage(ctx, userID)
	if err != nil {
		logger.Error("usage lookup failed", zap.Error(err))

		return replyInternalError, err
	}

	return fmt.Sprintf("I shortened %d links for you so far.", count), nil
}

func formatBalance(b *shorten.Balance) string {
	return fmt.Sprintf(
		"Account: %s\nToday: %d views, %s %s\nThis month: %d views, %s %s\nPublisher earnings: %s %s",
		b.Username,
		b.Today.Views, b.Today.Earnings, b.Currency,
		b.ThisMonth.Views, b.ThisMonth.Earnings, b.Currency,
		b.Balances.PublisherEarnings, b.Currency,
	)
}

// splitCommand separates the command token from its arguments. The command is
// lowercased and a trailing @botname mention is dropped, so "/Help@LinkBot"
// routes like "/help".
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)

	command := strings.ToLower(fields[0])
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}

	return command, fields[1:]
}
