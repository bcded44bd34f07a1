package ticket

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a ticket or complaint id is not in the registry.
var ErrNotFound = errors.New("ticket: not found")

// ErrStatusConflict is returned when an operation would move a ticket
// backwards through its lifecycle: resolved tickets are final, and an
// assigned ticket never returns to the queue.
var ErrStatusConflict = errors.New("ticket: status conflict")

// idRetries bounds collision-retry attempts during id generation.
const idRetries = 10

// Registry owns all ticket and complaint records for the process. All
// mutating operations are serialized under a single lock; snapshot reads
// copy under a read lock.
type Registry struct {
	mu         sync.RWMutex
	tickets    map[string]*Ticket
	complaints map[string]*ComplaintRecord
	idgen      *IDGenerator
	now        func() time.Time
}

// RegistryOpts holds parameters for creating a Registry.
type RegistryOpts struct {
	Clock func() time.Time // defaults to time.Now
	Rand  *rand.Rand       // defaults to a time-seeded source
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts RegistryOpts) *Registry {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Registry{
		tickets:    make(map[string]*Ticket),
		complaints: make(map[string]*ComplaintRecord),
		idgen:      NewIDGenerator(now, opts.Rand),
		now:        now,
	}
}

// Create allocates a new ticket with a unique id in the "new" state.
func (r *Registry) Create(customerID, customerName, initialText string) (*Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.uniqueTicketID()
	if err != nil {
		return nil, err
	}

	t := &Ticket{
		ID:             id,
		CustomerID:     customerID,
		CustomerName:   customerName,
		Status:         StatusNew,
		Priority:       PriorityNormal,
		Category:       CategoryGeneral,
		InitialMessage: initialText,
		CreatedAt:      r.now(),
	}
	_, t.Department = CategoryProfile(t.Category)
	r.tickets[id] = t
	return t.clone(), nil
}

// SetCategory records the chosen category on a ticket and returns the
// derived priority and department label.
func (r *Registry) SetCategory(id, category string) (Priority, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return "", "", fmt.Errorf("set category %s: %w", id, ErrNotFound)
	}
	if t.Status == StatusResolved {
		return "", "", fmt.Errorf("set category %s: resolved: %w", id, ErrStatusConflict)
	}
	priority, department := CategoryProfile(category)
	t.Category = category
	t.Priority = priority
	t.Department = department
	return priority, department, nil
}

// Assign marks a ticket assigned to the given agent. Resolved tickets are
// final and cannot be assigned.
func (r *Registry) Assign(id, agentID, agentName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return fmt.Errorf("assign %s: %w", id, ErrNotFound)
	}
	if t.Status == StatusResolved {
		return fmt.Errorf("assign %s: resolved: %w", id, ErrStatusConflict)
	}
	t.Status = StatusAssigned
	t.AssignedAgentID = agentID
	t.AgentName = agentName
	return nil
}

// MarkQueued moves a ticket to the queued state. Status only moves forward:
// assigned and resolved tickets never go back to the queue. Re-queueing an
// already queued ticket is a no-op.
func (r *Registry) MarkQueued(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return fmt.Errorf("mark queued %s: %w", id, ErrNotFound)
	}
	switch t.Status {
	case StatusResolved:
		return fmt.Errorf("mark queued %s: resolved: %w", id, ErrStatusConflict)
	case StatusAssigned:
		return fmt.Errorf("mark queued %s: already assigned: %w", id, ErrStatusConflict)
	}
	t.Status = StatusQueued
	return nil
}

// Append adds a message to a ticket transcript. Transcripts are append-only.
func (r *Registry) Append(id string, sender Sender, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return fmt.Errorf("append to %s: %w", id, ErrNotFound)
	}
	t.Transcript = append(t.Transcript, Message{
		Sender:    sender,
		Text:      text,
		Timestamp: r.now(),
	})
	return nil
}

// Close resolves a ticket and stamps its close time. Closing an already
// resolved ticket is a no-op that returns the existing record.
func (r *Registry) Close(id string) (*Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("close %s: %w", id, ErrNotFound)
	}
	if t.Status == StatusResolved {
		return t.clone(), nil
	}
	closed := r.now()
	t.Status = StatusResolved
	t.ClosedAt = &closed
	return t.clone(), nil
}

// SetRating records post-resolution customer feedback (1-5) on a ticket.
func (r *Registry) SetRating(id string, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return fmt.Errorf("rate %s: %w", id, ErrNotFound)
	}
	t.Rating = rating
	return nil
}

// Get returns a copy of the ticket with the given id.
func (r *Registry) Get(id string) (*Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return t.clone(), nil
}

// RegisterComplaint finalizes a complaint draft into an immutable record.
// The draft must have completed steps 2-4 (type, date/time, details).
func (r *Registry) RegisterComplaint(customerID string, draft ComplaintDraft) (*ComplaintRecord, error) {
	if draft.Type == "" || draft.DateTime == "" || draft.Details == "" {
		return nil, fmt.Errorf("register complaint: draft incomplete (step %d)", draft.Step)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.uniqueComplaintID()
	if err != nil {
		return nil, err
	}

	created := r.now()
	rec := &ComplaintRecord{
		ID:               id,
		CustomerID:       customerID,
		Type:             draft.Type,
		DateTime:         draft.DateTime,
		Details:          draft.Details,
		Severity:         "medium",
		Status:           "open",
		AssignedTo:       "complaints_team",
		CreatedAt:        created,
		FollowUpDeadline: created.Add(FollowUpWindow),
	}
	r.complaints[id] = rec

	out := *rec
	return &out, nil
}

// Snapshot returns copies of all tickets ordered by creation time, plus
// summary counts.
func (r *Registry) Snapshot() ([]Ticket, Summary) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Ticket, 0, len(r.tickets))
	var sum Summary
	for _, t := range r.tickets {
		out = append(out, *t.clone())
		sum.Total++
		switch t.Status {
		case StatusResolved:
			sum.Resolved++
		case StatusQueued:
			sum.Queued++
			sum.Open++
		default:
			sum.Open++
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, sum
}

// Complaints returns copies of all complaint records ordered by creation time.
func (r *Registry) Complaints() []ComplaintRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ComplaintRecord, 0, len(r.complaints))
	for _, c := range r.complaints {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// OverdueComplaints returns open complaints whose follow-up deadline has
// passed as of the given time.
func (r *Registry) OverdueComplaints(asOf time.Time) []ComplaintRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ComplaintRecord
	for _, c := range r.complaints {
		if c.Status == "open" && c.FollowUpDeadline.Before(asOf) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// uniqueTicketID generates a ticket id, retrying on collision. Caller holds r.mu.
func (r *Registry) uniqueTicketID() (string, error) {
	for i := 0; i < idRetries; i++ {
		id := r.idgen.TicketID()
		if _, exists := r.tickets[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("ticket: id generation exhausted %d attempts", idRetries)
}

// uniqueComplaintID generates a complaint id, retrying on collision. Caller holds r.mu.
func (r *Registry) uniqueComplaintID() (string, error) {
	for i := 0; i < idRetries; i++ {
		id := r.idgen.ComplaintID()
		if _, exists := r.complaints[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("ticket: complaint id generation exhausted %d attempts", idRetries)
}
