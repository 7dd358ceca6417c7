package analytics

import "context"

// Store defines the interface for persisting analytics events.
type Store interface {
	SaveLinkShortened(ctx context.Context, event *LinkShortenedEvent) error
	SaveMessageRewritten(ctx context.Context, event *MessageRewrittenEvent) error
}
