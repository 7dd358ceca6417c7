// Package rewrite runs the message URL-rewriting pipeline: extract URLs,
// shorten each eligible one through the retrying client, and rebuild the
// message with replacements applied in place.
package rewrite

import (
	"context"
	"strings"

	"github.com/linkrelay/linkrelay/internal/extract"
	"github.com/linkrelay/linkrelay/internal/shorten"
	"go.uber.org/zap"
)

// Shortener is the retrying shortener the pipeline calls once per distinct
// eligible URL. It degrades to the original URL at the value level.
type Shortener interface {
	ShortenWithRetry(ctx context.Context, url, apiKey, alias string) shorten.Result
}

// Result is the outcome of rewriting one message. Counters are per token
// occurrence: duplicate URLs that share one remote call still count each
// replaced occurrence under Shortened.
type Result struct {
	Text      string
	Shortened int
	Skipped   int
	Failed    int
}

// Changed reports whether any URL in the message was replaced.
func (r Result) Changed() bool {
	return r.Shortened > 0
}

// Rewriter orchestrates one message at a time. It is stateless and safe for
// concurrent use across messages; within a message URLs are processed
// strictly sequentially, in order of first appearance.
type Rewriter struct {
	shortener  Shortener
	skipDomain string
	logger     *zap.Logger
}

// NewRewriter creates a Rewriter. skipDomain is the shortening service's own
// host; tokens containing it are passed through untouched.
func NewRewriter(shortener Shortener, skipDomain string, logger *zap.Logger) *Rewriter {
	return &Rewriter{
		shortener:  shortener,
		skipDomain: strings.ToLower(skipDomain),
		logger:     logger,
	}
}

type span struct {
	start, end int
	text       string
}

// Rewrite replaces every eligible URL in message with its shortened form and
// returns the rebuilt text. Messages without URLs are returned unchanged and
// issue no remote calls. A URL that cannot be shortened stays as-is; one bad
// URL never aborts the rest of the message.
func (r *Rewriter) Rewrite(ctx context.Context, message, apiKey string) Result {
	tokens := extract.Tokens(message)
	if len(tokens) == 0 {
		return Result{Text: message}
	}

	result := Result{}
	resolved := make(map[string]shorten.Result)

	var repls []span

	for _, tok := range tokens {
		if r.skipDomain != "" && strings.Contains(strings.ToLower(tok.Text), r.skipDomain) {
			result.Skipped++

			continue
		}

		outcome, attempted := resolved[tok.Text]
		if !attempted {
			outcome = r.shortenToken(ctx, tok.Text, apiKey)
			resolved[tok.Text] = outcome
		}

		if !outcome.OK || outcome.URL == tok.Text {
			result.Failed++

			continue
		}

		repls = append(repls, span{start: tok.Start, end: tok.End, text: outcome.URL})
		result.Shortened++
	}

	// Spans index into the original message, so applying them back to front
	// keeps every remaining offset valid regardless of length changes.
	text := message
	for i := len(repls) - 1; i >= 0; i-- {
		text = text[:repls[i].start] + repls[i].text + text[repls[i].end:]
	}

	result.Text = text

	return result
}

// shortenToken isolates one URL's processing: an unexpected panic is logged
// and converted to the value-level fallback so the loop continues.
func (r *Rewriter) shortenToken(ctx context.Context, url, apiKey string) (res shorten.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("url processing panicked",
				zap.String("url", url),
				zap.Any("panic", rec),
			)

			res = shorten.Result{OK: false, URL: url}
		}
	}()

	return r.shortener.ShortenWithRetry(ctx, url, apiKey, "")
}
