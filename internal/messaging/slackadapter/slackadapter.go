// Package slackadapter implements messaging.ChatAdapter over slack-go/slack,
// grounded on pkg/slack/client.go's thin-wrapper shape (one goslack.Client,
// context-bounded calls, paginated fingerprint search).
package slackadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carlosapgomes/eda-triage/internal/messaging"
	goslack "github.com/slack-go/slack"
)

// Adapter wraps a Slack API client. Rooms are Slack channel IDs, events are
// message timestamps.
type Adapter struct {
	api     *goslack.Client
	timeout time.Duration
}

// New creates an Adapter for the given bot token.
func New(token string) *Adapter {
	return &Adapter{api: goslack.New(token), timeout: 10 * time.Second}
}

// NewWithAPIURL targets a custom API URL, for tests against a mock server.
func NewWithAPIURL(token, apiURL string) *Adapter {
	return &Adapter{api: goslack.New(token, goslack.OptionAPIURL(apiURL)), timeout: 10 * time.Second}
}

func (a *Adapter) PostMessage(ctx context.Context, room, text, threadEventID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	opts := []goslack.MsgOption{goslack.MsgOptionText(text, false)}
	if threadEventID != "" {
		opts = append(opts, goslack.MsgOptionTS(threadEventID))
	}

	_, eventID, err := a.api.PostMessageContext(ctx, room, opts...)
	if err != nil {
		return "", translateErr(err)
	}
	return eventID, nil
}

func (a *Adapter) FindEventByFingerprint(ctx context.Context, room, fingerprint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	oldest := fmt.Sprintf("%d", time.Now().Add(-24*time.Hour).Unix())
	normalizedFingerprint := normalizeText(fingerprint)

	params := &goslack.GetConversationHistoryParameters{
		ChannelID: room,
		Oldest:    oldest,
		Limit:     200,
	}

	const maxPages = 5
	for page := 0; page < maxPages; page++ {
		history, err := a.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return "", translateErr(err)
		}

		for _, msg := range history.Messages {
			if strings.Contains(normalizeText(collectMessageText(msg)), normalizedFingerprint) {
				return msg.Timestamp, nil
			}
		}

		if !history.HasMore || history.ResponseMetaData.NextCursor == "" {
			break
		}
		params.Cursor = history.ResponseMetaData.NextCursor
	}

	return "", nil
}

func (a *Adapter) RedactMessage(ctx context.Context, room, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, _, err := a.api.DeleteMessageContext(ctx, room, eventID)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

func translateErr(err error) error {
	var rateLimited *goslack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return &messaging.RateLimitError{RetryAfterMs: int(rateLimited.RetryAfter.Milliseconds())}
	}
	return err
}

func normalizeText(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

func collectMessageText(msg goslack.Message) string {
	var parts []string
	if msg.Text != "" {
		parts = append(parts, msg.Text)
	}
	for _, att := range msg.Attachments {
		if att.Text != "" {
			parts = append(parts, att.Text)
		}
		if att.Fallback != "" {
			parts = append(parts, att.Fallback)
		}
	}
	return strings.Join(parts, " ")
}

var _ messaging.ChatAdapter = (*Adapter)(nil)
