// Package analytics defines the events the bot emits while rewriting
// messages, and the consumer that persists them.
package analytics

import "time"

const (
	// TopicLinkShortened carries one event per remote shortening outcome.
	TopicLinkShortened = "link.shortened"
	// TopicMessageRewritten carries one event per processed message.
	TopicMessageRewritten = "message.rewritten"
)

// LinkShortenedEvent is emitted for every distinct URL the pipeline attempted,
// whether it was shortened or fell back to the original.
type LinkShortenedEvent struct {
	EventID     string    `json:"eventId"`
	UserID      int64     `json:"userId"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl,omitempty"`
	Fallback    bool      `json:"fallback"`
	ShortenedAt time.Time `json:"shortenedAt"`
}

// MessageRewrittenEvent summarizes one pipeline run over a message.
type MessageRewrittenEvent struct {
	EventID     string    `json:"eventId"`
	UserID      int64     `json:"userId"`
	ChatID      int64     `json:"chatId"`
	URLCount    int       `json:"urlCount"`
	Shortened   int       `json:"shortened"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	RewrittenAt time.Time `json:"rewrittenAt"`
}
