// Package discord implements the channel Adapter for Discord direct
// messages using the Gateway WebSocket.
package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/zulandar/switchboard/internal/channel"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	AddHandler(handler interface{}) func()
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.UserChannelCreate(recipientID, options...)
}
func (r *realSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSend(channelID, content, options...)
}
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}

// Adapter implements channel.Adapter for Discord. Each customer talks to
// the bot over a DM channel; the customer's user ID is the conversation key.
type Adapter struct {
	sess      session
	botToken  string
	botUserID string

	mu            sync.Mutex
	connected     bool
	closed        bool
	inbound       chan channel.InboundMessage
	removeHandler func()
	dmChannels    map[string]string // user ID -> DM channel ID
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken string // Discord bot token
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}

	a := &Adapter{
		botToken:   opts.BotToken,
		inbound:    make(chan channel.InboundMessage, 100),
		dmChannels: make(map[string]string),
	}
	if opts.Session != nil {
		a.sess = opts.Session
	}
	return a, nil
}

// Connect establishes the Discord Gateway WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	// Create real session if not injected (production path).
	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
		a.sess = &realSession{s: dg}
	}

	a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.mu.Lock()
		a.botUserID = r.User.ID
		a.mu.Unlock()
		log.Printf("discord: connected as %s (ID: %s)", r.User.Username, r.User.ID)
	})
	a.sess.AddHandler(func(_ *discordgo.Session, d *discordgo.Disconnect) {
		log.Printf("discord: gateway disconnected, discordgo will auto-reconnect")
	})

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	a.connected = true
	return nil
}

// Listen returns a channel of inbound messages from Discord. Registers a
// message handler on the Gateway session. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan channel.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}

	a.removeHandler = a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		a.handleMessage(m)
	})
	return a.inbound, nil
}

// Send delivers a DM to a Discord user, creating the DM channel on first use.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("discord: not connected")
	}
	channelID := a.dmChannels[msg.To]
	a.mu.Unlock()

	if msg.To == "" {
		return fmt.Errorf("discord: no recipient specified")
	}

	if channelID == "" {
		ch, err := a.sess.UserChannelCreate(msg.To)
		if err != nil {
			return fmt.Errorf("discord: create dm channel for %s: %w", msg.To, err)
		}
		channelID = ch.ID
		a.mu.Lock()
		a.dmChannels[msg.To] = channelID
		a.mu.Unlock()
	}

	if _, err := a.sess.ChannelMessageSend(channelID, msg.Text); err != nil {
		return fmt.Errorf("discord: send message: %w", err)
	}
	return nil
}

// Close gracefully shuts down the adapter connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	if a.removeHandler != nil {
		a.removeHandler()
	}
	close(a.inbound)
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

// handleMessage converts a Discord message event to an InboundMessage.
// Guild messages are ignored; the bot only serves DM conversations.
func (a *Adapter) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID != "" {
		return
	}

	a.mu.Lock()
	botID := a.botUserID
	if m.Author.ID == botID {
		a.mu.Unlock()
		return
	}
	// Remember the DM channel so replies skip the channel-create call.
	a.dmChannels[m.Author.ID] = m.ChannelID
	open := a.connected && !a.closed
	a.mu.Unlock()
	if !open {
		return
	}

	ts, _ := discordgo.SnowflakeTimestamp(m.ID)
	name := m.Author.Username
	if m.Author.GlobalName != "" {
		name = m.Author.GlobalName
	}

	select {
	case a.inbound <- channel.InboundMessage{
		Platform:  "discord",
		From:      m.Author.ID,
		UserName:  name,
		Text:      m.Content,
		Timestamp: ts,
	}:
	default:
		log.Printf("discord: inbound buffer full, dropping message from %s", m.Author.ID)
	}
}
