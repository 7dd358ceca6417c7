package shorten

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the number of additional attempts after the first.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the fixed wait between attempts. No jitter, no
	// exponential growth: the service rate-limits by request spacing, not
	// burst size.
	DefaultRetryDelay = time.Second
)

// Shortener is the single-call contract the Retrier wraps.
type Shortener interface {
	Shorten(ctx context.Context, url, apiKey, alias string) (string, error)
}

// Result is the value-level outcome of a retried shortening. OK reports
// whether the service produced a shortened URL; when false, URL carries the
// original input unchanged so callers can degrade gracefully without
// comparing strings.
type Result struct {
	OK  bool
	URL string
}

// FailureObserver receives the cause of every failed attempt, including the
// ones a later attempt recovers from.
type FailureObserver func(cause Cause)

// Sleeper abstracts the between-attempt wait so tests can skip real time.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Retrier wraps a Shortener with a bounded fixed-delay retry loop. It never
// returns an error: exhausted retries fall back to the original URL.
type Retrier struct {
	shortener  Shortener
	maxRetries int
	delay      time.Duration
	sleeper    Sleeper
	observe    FailureObserver
	logger     *zap.Logger
}

// NewRetrier creates a Retrier with maxRetries additional attempts and a
// fixed delay between attempts. Negative maxRetries is treated as zero.
func NewRetrier(shortener Shortener, maxRetries int, delay time.Duration, logger *zap.Logger) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}

	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	return &Retrier{
		shortener:  shortener,
		maxRetries: maxRetries,
		delay:      delay,
		sleeper:    realSleeper{},
		logger:     logger,
	}
}

// WithSleeper replaces the wait implementation. Intended for tests.
func (r *Retrier) WithSleeper(sleeper Sleeper) *Retrier {
	r.sleeper = sleeper

	return r
}

// WithFailureObserver registers a callback for failed attempts.
func (r *Retrier) WithFailureObserver(observe FailureObserver) *Retrier {
	r.observe = observe

	return r
}

// ShortenWithRetry attempts to shorten url up to maxRetries+1 times. On
// success the Result carries the shortened URL; after exhaustion it carries
// the original url with OK set to false.
func (r *Retrier) ShortenWithRetry(ctx context.Context, url, apiKey, alias string) Result {
	for attempt := 0; ; attempt++ {
		shortened, err := r.shortener.Shorten(ctx, url, apiKey, alias)
		if err == nil {
			return Result{OK: true, URL: shortened}
		}

		r.logger.Warn("shortening attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if r.observe != nil {
			var remoteErr *RemoteError
			if errors.As(err, &remoteErr) {
				r.observe(remoteErr.Cause)
			} else {
				r.observe(causeOf(err))
			}
		}

		if attempt >= r.maxRetries {
			return Result{OK: false, URL: url}
		}

		if err := r.sleeper.Sleep(ctx, r.delay); err != nil {
			// Context gone; further attempts would fail the same way.
			return Result{OK: false, URL: url}
		}
	}
}
