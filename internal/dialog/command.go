package dialog

import "github.com/zulandar/switchboard/internal/journal"

// Command is a deferred side effect emitted by the engine for the daemon to
// execute after the turn completes. Command failures are reported, never
// retried, and never roll back the session transition.
type Command interface {
	isCommand()
}

// Send delivers a message to a customer on the chat platform.
type Send struct {
	To   string
	Text string
}

// LogInteraction appends a turn record to the interaction log.
type LogInteraction struct {
	Record journal.Record
}

// Notify reports a ticket lifecycle event (created, queued, resolved,
// agent_available, anomaly) for ops visibility and queue promotions.
type Notify struct {
	TicketID string
	Event    string
	Text     string
}

func (Send) isCommand()           {}
func (LogInteraction) isCommand() {}
func (Notify) isCommand()         {}

// Notify event names emitted by the engine.
const (
	EventTicketCreated  = "ticket_created"
	EventTicketQueued   = "ticket_queued"
	EventTicketResolved = "ticket_resolved"
	EventAgentAvailable = "agent_available"
	EventComplaintFiled = "complaint_filed"
	EventStaleTicket    = "stale_ticket"
)
