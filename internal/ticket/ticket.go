// Package ticket owns the support-ticket and complaint lifecycle registry.
package ticket

import "time"

// Status is a ticket lifecycle state. Transitions are monotonic:
// new -> (assigned | queued) -> resolved.
type Status string

const (
	StatusNew      Status = "new"
	StatusAssigned Status = "assigned"
	StatusQueued   Status = "queued"
	StatusResolved Status = "resolved"
)

// Priority is a ticket priority level, derived from category.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Sender identifies who authored a transcript message.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderAgent    Sender = "agent"
)

// Message is one entry in a ticket transcript. Transcripts are append-only
// and strictly timestamp-ordered.
type Message struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is a trackable support request.
type Ticket struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customerId"`
	CustomerName    string     `json:"customerName"`
	Status          Status     `json:"status"`
	Priority        Priority   `json:"priority"`
	Category        string     `json:"category"`
	Department      string     `json:"department"`
	AssignedAgentID string     `json:"assignedAgentId,omitempty"`
	AgentName       string     `json:"agentName,omitempty"`
	InitialMessage  string     `json:"initialMessage"`
	Transcript      []Message  `json:"transcript"`
	Rating          int        `json:"rating,omitempty"` // 1-5 feedback, 0 if not given
	CreatedAt       time.Time  `json:"createdAt"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
}

// Open reports whether the ticket is still active.
func (t *Ticket) Open() bool {
	return t.Status != StatusResolved
}

// clone returns a deep copy safe to hand to callers outside the registry lock.
func (t *Ticket) clone() *Ticket {
	c := *t
	c.Transcript = make([]Message, len(t.Transcript))
	copy(c.Transcript, t.Transcript)
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		c.ClosedAt = &closed
	}
	return &c
}

// ComplaintDraft is the mutable 4-step complaint form built up inside a
// session. Step 2 captures the type, step 3 the date/time, step 4 the details.
type ComplaintDraft struct {
	Step     int    `json:"step"` // 1..5
	Type     string `json:"type"`
	DateTime string `json:"dateTime"`
	Details  string `json:"details"`
}

// FollowUpWindow is how long after registration a complaint must be
// followed up on.
const FollowUpWindow = 48 * time.Hour

// ComplaintRecord is a finalized, immutable complaint.
type ComplaintRecord struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customerId"`
	Type             string    `json:"type"`
	DateTime         string    `json:"dateTime"`
	Details          string    `json:"details"`
	Severity         string    `json:"severity"`
	Status           string    `json:"status"`
	AssignedTo       string    `json:"assignedTo"`
	CreatedAt        time.Time `json:"createdAt"`
	FollowUpDeadline time.Time `json:"followUpDeadline"`
}

// Summary holds aggregate ticket counts for the reporting layer.
type Summary struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
	Queued   int `json:"queued"`
}
