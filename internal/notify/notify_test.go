package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"

	slackapi "github.com/slack-go/slack"
)

type mockSlackClient struct {
	posts   []string // channel IDs posted to
	postErr error
}

func (m *mockSlackClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.posts = append(m.posts, channelID)
	return channelID, "123.456", nil
}

func TestNewSlack_Validation(t *testing.T) {
	if _, err := NewSlack(SlackOpts{ChannelID: "C123"}); err == nil {
		t.Error("expected error without token or client")
	}
	if _, err := NewSlack(SlackOpts{Client: &mockSlackClient{}}); err == nil {
		t.Error("expected error without channel id")
	}
}

func TestSlack_Post(t *testing.T) {
	client := &mockSlackClient{}
	s, err := NewSlack(SlackOpts{Client: client, ChannelID: "C123"})
	if err != nil {
		t.Fatalf("new slack: %v", err)
	}

	if err := s.Post(context.Background(), "TK123456ABC", "ticket_created", "Ticket opened"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(client.posts) != 1 || client.posts[0] != "C123" {
		t.Errorf("posts = %v", client.posts)
	}
}

func TestSlack_PostError(t *testing.T) {
	client := &mockSlackClient{postErr: fmt.Errorf("channel_not_found")}
	s, _ := NewSlack(SlackOpts{Client: client, ChannelID: "C123"})

	err := s.Post(context.Background(), "TK123456ABC", "ticket_created", "Ticket opened")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "TK123456ABC") {
		t.Errorf("error = %v, want ticket id in context", err)
	}
}

func TestNop_Post(t *testing.T) {
	if err := (Nop{}).Post(context.Background(), "TK123456ABC", "ticket_created", "x"); err != nil {
		t.Errorf("nop post: %v", err)
	}
}
