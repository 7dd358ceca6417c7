// Package bot turns inbound chat events into replies: command handling, key
// management, and the URL-rewriting pipeline.
package bot

import "context"

// Event is one inbound chat message, already stripped of transport detail.
type Event struct {
	ChatID int64
	UserID int64
	Text   string
}

// EventMeta identifies one event while it flows through the pipeline. The
// instrumented shortener reads it from the context to attribute per-link
// events to the right user.
type EventMeta struct {
	EventID string
	ChatID  int64
	UserID  int64
}

type eventMetaKey struct{}

// ContextWithEventMeta adds event metadata to context.
func ContextWithEventMeta(ctx context.Context, meta EventMeta) context.Context {
	return context.WithValue(ctx, eventMetaKey{}, meta)
}

// EventMetaFromContext extracts event metadata from context.
func EventMetaFromContext(ctx context.Context) EventMeta {
	if v, ok := ctx.Value(eventMetaKey{}).(EventMeta); ok {
		return v
	}

	return EventMeta{}
}
