// Package messaging builds the Room-1/2/3 chat messages and parses their
// replies (§4.6). ChatAdapter is the transport port; internal/messaging/slackadapter
// is its Slack implementation, grounded on pkg/slack's client/service split.
package messaging

import (
	"context"
	"fmt"
)

// ChatAdapter posts and redacts messages in a chat room and resolves prior
// messages by a fingerprint embedded in their text, without any knowledge of
// the underlying chat provider.
type ChatAdapter interface {
	// PostMessage sends text to room, optionally as a threaded reply to
	// threadEventID, and returns a provider event ID usable for redaction
	// or as a thread parent.
	PostMessage(ctx context.Context, room, text, threadEventID string) (eventID string, err error)

	// FindEventByFingerprint searches recent room history for a message
	// containing fingerprint and returns its event ID, or "" if not found.
	FindEventByFingerprint(ctx context.Context, room, fingerprint string) (eventID string, err error)

	// RedactMessage deletes a previously posted message.
	RedactMessage(ctx context.Context, room, eventID string) error
}

// RateLimitError signals a provider 429 response. Callers (the cleanup
// executor) back off for RetryAfterMs before retrying.
type RateLimitError struct {
	RetryAfterMs int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %dms", e.RetryAfterMs)
}
