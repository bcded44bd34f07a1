// Package notify posts ticket lifecycle events to an ops Slack channel so
// the support team sees ticket, queue, and complaint activity as it happens.
package notify

import (
	"context"
	"fmt"
	"log"

	slackapi "github.com/slack-go/slack"
)

// Notifier receives ticket lifecycle events.
type Notifier interface {
	// Post delivers one event notification. Failures are the notifier's
	// problem; callers treat notifications as fire-and-forget.
	Post(ctx context.Context, ticketID, event, text string) error
}

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts events to a single ops channel.
type Slack struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a Slack notifier.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // ops channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*Slack, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: slack bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: slack channel id is required")
	}

	s := &Slack{client: opts.Client, channelID: opts.ChannelID}
	if s.client == nil {
		s.client = slackapi.New(opts.BotToken)
	}
	return s, nil
}

// eventEmoji maps event kinds to a message prefix for scannability in the
// ops channel. Unknown kinds get a neutral marker.
var eventEmoji = map[string]string{
	"ticket_created":  "🎫",
	"ticket_queued":   "⏳",
	"ticket_resolved": "✅",
	"agent_available": "📣",
	"complaint_filed": "😔",
	"stale_ticket":    "⚠️",
}

// Post sends the event to the ops channel.
func (s *Slack) Post(ctx context.Context, ticketID, event, text string) error {
	emoji, ok := eventEmoji[event]
	if !ok {
		emoji = "ℹ️"
	}
	msg := fmt.Sprintf("%s *[%s]* %s", emoji, event, text)

	_, _, err := s.client.PostMessage(s.channelID,
		slackapi.MsgOptionText(msg, false),
		slackapi.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("notify: post %s for %s: %w", event, ticketID, err)
	}
	return nil
}

// Nop discards all events. Used when no Slack channel is configured.
type Nop struct{}

// Post implements Notifier.
func (Nop) Post(ctx context.Context, ticketID, event, text string) error {
	log.Printf("notify: %s %s: %s", event, ticketID, text)
	return nil
}
