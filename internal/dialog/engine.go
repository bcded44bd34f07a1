// Package dialog implements the conversation state machine that routes
// customer messages through menus, ticket creation, agent handoff, and the
// complaint form.
package dialog

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zulandar/switchboard/internal/agents"
	"github.com/zulandar/switchboard/internal/journal"
	"github.com/zulandar/switchboard/internal/session"
	"github.com/zulandar/switchboard/internal/ticket"
)

// Tickets is the slice of the ticket registry the engine needs. Results of
// these calls feed directly into response text, so they run during the turn;
// everything else is deferred as commands.
type Tickets interface {
	Create(customerID, customerName, initialText string) (*ticket.Ticket, error)
	SetCategory(id, category string) (ticket.Priority, string, error)
	Assign(id, agentID, agentName string) error
	MarkQueued(id string) error
	Append(id string, sender ticket.Sender, text string) error
	Close(id string) (*ticket.Ticket, error)
	SetRating(id string, rating int) error
	Get(id string) (*ticket.Ticket, error)
	RegisterComplaint(customerID string, draft ticket.ComplaintDraft) (*ticket.ComplaintRecord, error)
}

// Agents is the slice of the agent directory the engine needs.
type Agents interface {
	Assign(category string) (agents.Agent, bool)
	Enqueue(category, ticketID string) (int, time.Duration)
	Release(agentID string) *agents.Promotion
}

// Engine drives one conversation turn at a time. It holds no per-user state;
// the caller provides the session under per-user exclusivity.
type Engine struct {
	tickets Tickets
	agents  Agents
	company string
	now     func() time.Time
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	Tickets Tickets
	Agents  Agents
	Company string           // company name used in the welcome greeting
	Clock   func() time.Time // defaults to time.Now
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Tickets == nil {
		return nil, fmt.Errorf("dialog: tickets registry is required")
	}
	if opts.Agents == nil {
		return nil, fmt.Errorf("dialog: agent directory is required")
	}
	company := opts.Company
	if company == "" {
		company = "Pension Services"
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Engine{
		tickets: opts.Tickets,
		agents:  opts.Agents,
		company: company,
		now:     now,
	}, nil
}

// turn carries the per-turn context through responder functions.
type turn struct {
	sess  *session.Session
	input string // lower-cased, trimmed
	raw   string // trimmed only
	eng   *Engine
	cmds  []Command
}

// notify queues a Notify command for the daemon to execute after the turn.
func (t *turn) notify(ticketID, event, text string) {
	t.cmds = append(t.cmds, Notify{TicketID: ticketID, Event: event, Text: text})
}

// Handle processes one inbound message against the session and returns the
// response text plus deferred commands. The session is mutated in place; the
// caller holds the per-session lock.
func (e *Engine) Handle(sess *session.Session, rawText string) (string, []Command) {
	raw := strings.TrimSpace(rawText)
	input := strings.ToLower(raw)
	t := &turn{sess: sess, input: input, raw: raw, eng: e}

	var response string
	switch {
	case input == "menu" && sess.State != session.StateWelcome:
		// Global escape hatch: reset to the main menu, discarding any
		// in-progress complaint draft.
		sess.Complaint = nil
		sess.State = session.StateMainMenu
		response = mainMenuText()

	default:
		spec, known := table[sess.State]
		if !known {
			// Unknown or corrupted state: reset defensively instead of
			// propagating an error.
			sess.State = session.StateMainMenu
			response = mainMenuText()
			break
		}
		rule := spec.Fallback
		for _, r := range spec.Rules {
			if r.matches(input) {
				rule = r
				break
			}
		}
		if rule.Next != "" {
			sess.State = rule.Next
		}
		response = rule.respond(t)
	}

	if !strings.Contains(strings.ToLower(response), "menu") {
		response += menuHint
	}

	t.cmds = append(t.cmds, LogInteraction{Record: journal.Record{
		Timestamp:   e.now(),
		UserID:      sess.UserID,
		InputText:   raw,
		OutputText:  response,
		DialogState: string(sess.State),
		MessageType: detectMessageType(input),
		SessionID:   sess.ID,
	}})
	return response, t.cmds
}

// openTicket creates a support ticket and presents the agent-category menu.
// A still-open active ticket is reused rather than duplicated, keeping the
// one-active-ticket-per-session invariant.
func (t *turn) openTicket() string {
	if t.sess.ActiveTicketID != "" {
		if existing, err := t.eng.tickets.Get(t.sess.ActiveTicketID); err == nil && existing.Open() {
			return agentMenuText(existing.ID)
		}
		t.sess.ActiveTicketID = ""
	}

	tk, err := t.eng.tickets.Create(t.sess.UserID, t.sess.DisplayName, t.raw)
	if err != nil {
		log.Printf("dialog: create ticket for %s: %v", t.sess.UserID, err)
		t.sess.State = session.StateMainMenu
		return mainMenuText()
	}
	t.sess.ActiveTicketID = tk.ID
	t.notify(tk.ID, EventTicketCreated, fmt.Sprintf("Ticket %s opened by %s", tk.ID, t.sess.DisplayName))
	return agentMenuText(tk.ID)
}

// selectCategory files the active ticket under a category and either
// connects an agent or queues the ticket. A ticket that already left the
// "new" state is not re-filed: a promoted ticket moves the conversation to
// its agent, and a queued ticket keeps its queue slot and reports the
// current position.
func (t *turn) selectCategory(category string) string {
	tkID := t.sess.ActiveTicketID
	tk, err := t.eng.tickets.Get(tkID)
	if err != nil {
		return t.staleTicket(err)
	}
	switch tk.Status {
	case ticket.StatusAssigned:
		// Promoted off the queue between turns; pick up with the agent.
		t.sess.State = session.StateWithAgent
		return handoffText(tk.AgentName, tk.ID)
	case ticket.StatusQueued:
		position, wait := t.eng.agents.Enqueue(tk.Category, tkID)
		_, department := ticket.CategoryProfile(tk.Category)
		return queuedText(department, tkID, tk.Priority, position, wait)
	}

	priority, department, err := t.eng.tickets.SetCategory(tkID, category)
	if err != nil {
		return t.staleTicket(err)
	}

	agent, ok := t.eng.agents.Assign(category)
	if !ok {
		if err := t.eng.tickets.MarkQueued(tkID); err != nil {
			return t.staleTicket(err)
		}
		position, wait := t.eng.agents.Enqueue(category, tkID)
		t.notify(tkID, EventTicketQueued, fmt.Sprintf("Ticket %s queued for %s at position %d", tkID, department, position))
		return queuedText(department, tkID, priority, position, wait)
	}

	if err := t.eng.tickets.Assign(tkID, agent.ID, agent.Name); err != nil {
		return t.staleTicket(err)
	}
	t.sess.State = session.StateWithAgent
	return connectedText(department, agent, tkID)
}

// agentConversation relays a customer message into the ticket transcript and
// produces the scripted agent reply.
func (t *turn) agentConversation() string {
	tk, err := t.eng.tickets.Get(t.sess.ActiveTicketID)
	if err != nil {
		return t.staleTicket(err)
	}

	// Reply selection is keyed by how many agent messages precede this
	// one, so replays of the same conversation are identical.
	agentTurns := 0
	for _, m := range tk.Transcript {
		if m.Sender == ticket.SenderAgent {
			agentTurns++
		}
	}

	if err := t.eng.tickets.Append(tk.ID, ticket.SenderCustomer, t.raw); err != nil {
		return t.staleTicket(err)
	}
	reply := agents.ScriptedReply(tk.Category, agentTurns)
	if err := t.eng.tickets.Append(tk.ID, ticket.SenderAgent, reply); err != nil {
		return t.staleTicket(err)
	}
	return agentReplyText(tk.AgentName, reply)
}

// endAgentSession resolves the active ticket, frees the agent, and moves the
// customer to the feedback form.
func (t *turn) endAgentSession() string {
	tk, err := t.eng.tickets.Close(t.sess.ActiveTicketID)
	if err != nil {
		return t.staleTicket(err)
	}
	t.notify(tk.ID, EventTicketResolved, fmt.Sprintf("Ticket %s resolved by %s", tk.ID, tk.AgentName))
	t.releaseAgent(tk)

	t.sess.ActiveTicketID = ""
	t.sess.SetScratch("last_ticket", tk.ID)
	t.sess.State = session.StateFeedbackForm
	return sessionEndedText(tk)
}

// releaseAgent returns the ticket's agent to the pool and, if a queued
// ticket gets promoted onto the freed agent, records the handoff and emits a
// notification for that ticket's customer.
func (t *turn) releaseAgent(tk *ticket.Ticket) {
	if tk.AssignedAgentID == "" {
		return
	}
	promo := t.eng.agents.Release(tk.AssignedAgentID)
	if promo == nil {
		return
	}
	if err := t.eng.tickets.Assign(promo.TicketID, promo.Agent.ID, promo.Agent.Name); err != nil {
		log.Printf("dialog: promote queued ticket %s: %v", promo.TicketID, err)
		return
	}
	if promoted, err := t.eng.tickets.Get(promo.TicketID); err == nil {
		t.cmds = append(t.cmds, Send{
			To: promoted.CustomerID,
			Text: fmt.Sprintf("✅ Good news! Agent %s is now available and has picked up your ticket %s. Reply here to continue.",
				promo.Agent.Name, promo.TicketID),
		})
	}
	t.notify(promo.TicketID, EventAgentAvailable,
		fmt.Sprintf("Agent %s picked up queued ticket %s", promo.Agent.Name, promo.TicketID))
}

// ticketSummary renders the active ticket's summary without changing state.
func (t *turn) ticketSummary() string {
	tk, err := t.eng.tickets.Get(t.sess.ActiveTicketID)
	if err != nil {
		return t.staleTicket(err)
	}
	return ticketSummaryText(tk)
}

// recordFeedback stores a 1-5 rating against the customer's last resolved
// ticket. Unparseable input is accepted silently; feedback is optional.
func (t *turn) recordFeedback() string {
	if rating := parseRating(t.input); rating > 0 {
		if id := t.sess.Scratch["last_ticket"]; id != "" {
			if err := t.eng.tickets.SetRating(id, rating); err != nil {
				log.Printf("dialog: record rating for %s: %v", id, err)
			}
		}
	}
	return feedbackThanksText
}

// staleTicket handles a registry miss for a ticket the session still
// references: treat as no active ticket, reroute to the main menu, and
// surface the anomaly.
func (t *turn) staleTicket(err error) string {
	if !errors.Is(err, ticket.ErrNotFound) {
		log.Printf("dialog: ticket registry error for %s: %v", t.sess.UserID, err)
	}
	t.notify(t.sess.ActiveTicketID, EventStaleTicket,
		fmt.Sprintf("Session %s referenced missing ticket %q", t.sess.UserID, t.sess.ActiveTicketID))
	t.sess.ActiveTicketID = ""
	t.sess.Complaint = nil
	t.sess.State = session.StateMainMenu
	return mainMenuText()
}

// parseRating extracts a 1-5 rating from the input, or 0.
func parseRating(input string) int {
	if len(input) == 0 {
		return 0
	}
	switch input[0] {
	case '1', '2', '3', '4', '5':
		return int(input[0] - '0')
	}
	return 0
}

// detectMessageType classifies an input for the interaction log.
func detectMessageType(input string) string {
	switch {
	case containsAny(input, "balance", "account"):
		return "account_inquiry"
	case containsAny(input, "complaint", "problem"):
		return "complaint"
	case containsAny(input, "consultation", "appointment"):
		return "booking"
	case containsAny(input, "contribution", "payment"):
		return "contributions"
	case containsAny(input, "agent", "human"):
		return "agent_request"
	default:
		return "general_inquiry"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
