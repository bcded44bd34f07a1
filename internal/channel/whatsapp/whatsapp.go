// Package whatsapp implements the channel Adapter for the WhatsApp Business
// Cloud API: an inbound webhook served over HTTP and outbound sends through
// the Graph API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/zulandar/switchboard/internal/channel"
)

const (
	// defaultGraphBaseURL is the Meta Graph API endpoint for message sends.
	defaultGraphBaseURL = "https://graph.facebook.com/v19.0"
	// sendTimeout bounds a single outbound Graph API call.
	sendTimeout = 10 * time.Second
	// maxWebhookBody caps the accepted webhook payload size.
	maxWebhookBody = 1 << 20
)

// Adapter implements channel.Adapter for WhatsApp. Inbound messages arrive
// on a webhook endpoint; outbound messages go out via the Graph API using an
// OAuth2 bearer token.
type Adapter struct {
	token         string
	phoneNumberID string
	verifyToken   string
	listenAddr    string
	baseURL       string

	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan channel.InboundMessage
	client    *http.Client
	server    *http.Server
	engine    *gin.Engine
}

// AdapterOpts holds parameters for creating a WhatsApp Adapter.
type AdapterOpts struct {
	Token         string // Graph API access token
	PhoneNumberID string // sending phone number ID
	VerifyToken   string // shared secret echoed during webhook verification
	ListenAddr    string // webhook listen address, e.g. ":8000"

	// For testing: inject an HTTP client and Graph API base URL instead of
	// the real Meta endpoint.
	Client  *http.Client
	BaseURL string
}

// New creates a WhatsApp Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.Token == "" {
		return nil, fmt.Errorf("whatsapp: access token is required")
	}
	if opts.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp: phone number id is required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	listenAddr := opts.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8000"
	}

	a := &Adapter{
		token:         opts.Token,
		phoneNumberID: opts.PhoneNumberID,
		verifyToken:   opts.VerifyToken,
		listenAddr:    listenAddr,
		baseURL:       baseURL,
		inbound:       make(chan channel.InboundMessage, 100),
		client:        opts.Client,
	}
	return a, nil
}

// Connect prepares the Graph API client and starts the webhook server.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("whatsapp: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.client == nil {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: a.token})
		a.client = oauth2.NewClient(ctx, src)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/webhook", a.handleVerify)
	engine.POST("/webhook", a.handleWebhook)
	a.engine = engine

	a.server = &http.Server{Addr: a.listenAddr, Handler: engine}
	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("whatsapp: webhook server: %v", err)
		}
	}(a.server)

	a.connected = true
	log.Printf("whatsapp: webhook listening on %s", a.listenAddr)
	return nil
}

// Listen returns the inbound message channel. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan channel.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("whatsapp: not connected")
	}
	return a.inbound, nil
}

// Send delivers a text message through the Graph API.
func (a *Adapter) Send(ctx context.Context, msg channel.OutboundMessage) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("whatsapp: not connected")
	}
	client := a.client
	a.mu.Unlock()

	if msg.To == "" {
		return fmt.Errorf("whatsapp: no recipient specified")
	}

	body, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             "text",
		Text:             sendText{Body: msg.Text},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/messages", a.baseURL, a.phoneNumberID)
	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: send message: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Close shuts down the webhook server and closes the inbound channel.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	close(a.inbound)
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the webhook routes for in-process serving and tests.
func (a *Adapter) Handler() http.Handler {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine
}

// handleVerify answers Meta's webhook verification handshake: echo the
// challenge when the verify token matches, otherwise 403.
func (a *Adapter) handleVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == a.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "verification failed")
}

// handleWebhook parses an inbound notification and fans its messages out to
// the inbound channel. Malformed entries are skipped, never fatal: the
// webhook always acknowledges with 200 so Meta does not retry a payload we
// cannot use anyway.
func (a *Adapter) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusOK, "ok")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("whatsapp: unmarshal webhook: %v", err)
		c.String(http.StatusOK, "ok")
		return
	}

	for _, msg := range payload.messages() {
		a.mu.Lock()
		open := a.connected && !a.closed
		if open {
			select {
			case a.inbound <- msg:
			default:
				log.Printf("whatsapp: inbound buffer full, dropping message from %s", msg.From)
			}
		}
		a.mu.Unlock()
	}
	c.String(http.StatusOK, "ok")
}

// sendRequest is the Graph API text-message send body.
type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             sendText `json:"text"`
}

type sendText struct {
	Body string `json:"body"`
}

// webhookPayload mirrors the Cloud API notification structure, limited to
// the fields the bot consumes.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// messages flattens the payload into inbound messages, resolving contact
// names and skipping anything that is not a text message with a sender.
func (p *webhookPayload) messages() []channel.InboundMessage {
	var out []channel.InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, m := range change.Value.Messages {
				if m.From == "" || m.Type != "text" {
					continue
				}
				ts := time.Now()
				if unix, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
					ts = time.Unix(unix, 0)
				}
				out = append(out, channel.InboundMessage{
					Platform:  "whatsapp",
					From:      m.From,
					UserName:  names[m.From],
					Text:      m.Text.Body,
					Timestamp: ts,
				})
			}
		}
	}
	return out
}
