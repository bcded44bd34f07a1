// Package channel bridges customer conversations to messaging platforms
// (WhatsApp, Discord, etc.).
package channel

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management and message
// sending/receiving for a single messaging platform.
type Adapter interface {
	// Connect establishes a connection to the messaging platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a customer message received from the platform.
type InboundMessage struct {
	Platform  string    // e.g. "whatsapp", "discord"
	From      string    // platform-specific customer identifier (phone number, user ID)
	UserName  string    // contact display name, if the platform provides one
	Text      string    // raw message text
	Timestamp time.Time // when the message was sent
}

// OutboundMessage represents a message to be sent to a customer.
type OutboundMessage struct {
	To   string // platform-specific recipient identifier
	Text string // message text (platform-native formatting)
}
