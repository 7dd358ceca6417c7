package bot

import (
	"context"
	"time"

	"github.com/linkrelay/linkrelay/internal/analytics"
	"github.com/linkrelay/linkrelay/internal/messaging"
	"github.com/linkrelay/linkrelay/internal/metrics"
	"github.com/linkrelay/linkrelay/internal/rewrite"
	"github.com/linkrelay/linkrelay/internal/shorten"
	"go.uber.org/zap"
)

// InstrumentedShortener decorates the retrying shortener with per-link
// analytics events and Prometheus counters. The rewriter and the alias
// command both go through it, so every remote outcome is recorded once.
type InstrumentedShortener struct {
	shortener rewrite.Shortener
	publish   messaging.Publish[analytics.LinkShortenedEvent]
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewInstrumentedShortener wraps shortener with event publication and metrics.
func NewInstrumentedShortener(
	shortener rewrite.Shortener,
	publish messaging.Publish[analytics.LinkShortenedEvent],
	m *metrics.Metrics,
	logger *zap.Logger,
) *InstrumentedShortener {
	return &InstrumentedShortener{
		shortener: shortener,
		publish:   publish,
		metrics:   m,
		logger:    logger,
	}
}

func (s *InstrumentedShortener) ShortenWithRetry(ctx context.Context, url, apiKey, alias string) shorten.Result {
	result := s.shortener.ShortenWithRetry(ctx, url, apiKey, alias)

	outcome := metrics.OutcomeShortened
	if !result.OK {
		outcome = metrics.OutcomeFallback
	}

	s.metrics.LinksTotal.WithLabelValues(outcome).Inc()

	meta := EventMetaFromContext(ctx)
	event := &analytics.LinkShortenedEvent{
		EventID:     meta.EventID,
		UserID:      meta.UserID,
		OriginalURL: url,
		Fallback:    !result.OK,
		ShortenedAt: time.Now(),
	}

	if result.OK {
		event.ShortURL = result.URL
	}

	if err := s.publish(event); err != nil {
		s.logger.Error("failed to publish link shortened event",
			zap.String("url", url),
			zap.Error(err),
		)
	}

	return result
}

// Compile-time check.
var _ rewrite.Shortener = (*InstrumentedShortener)(nil)
