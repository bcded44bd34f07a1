// Package agents provides the support-agent directory: per-category rosters
// with capacity tracking, deterministic assignment, and ticket queueing.
package agents

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultCapacity is the per-agent concurrent-ticket limit used when the
// roster does not specify one.
const DefaultCapacity = 1

// defaultBaseWait is the per-queued-ticket wait estimate for categories
// without a configured base.
const defaultBaseWait = 5 * time.Minute

// Agent is one support agent in the directory.
type Agent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Category  string `json:"category"`
	Capacity  int    `json:"capacity"`
	Load      int    `json:"load"`
}

// Available reports whether the agent can take another ticket.
func (a *Agent) Available() bool {
	return a.Load < a.Capacity
}

// Promotion describes a queued ticket handed to an agent freed by Release.
type Promotion struct {
	TicketID string
	Agent    Agent
}

// Directory is the process-wide agent catalog. All mutating operations are
// serialized under a single lock.
type Directory struct {
	mu       sync.RWMutex
	agents   map[string]*Agent   // by agent id
	rosters  map[string][]string // category -> agent ids, sorted
	queues   map[string][]string // category -> queued ticket ids, arrival order
	baseWait map[string]time.Duration
}

// DirectoryOpts holds parameters for creating a Directory.
type DirectoryOpts struct {
	Roster   []Agent                  // defaults to DefaultRoster()
	BaseWait map[string]time.Duration // per-category wait estimate per queued ticket
}

// NewDirectory creates a Directory from the given roster.
func NewDirectory(opts DirectoryOpts) (*Directory, error) {
	roster := opts.Roster
	if len(roster) == 0 {
		roster = DefaultRoster()
	}

	d := &Directory{
		agents:   make(map[string]*Agent),
		rosters:  make(map[string][]string),
		queues:   make(map[string][]string),
		baseWait: make(map[string]time.Duration),
	}
	for _, a := range roster {
		if a.ID == "" || a.Category == "" {
			return nil, fmt.Errorf("agents: roster entry needs id and category: %+v", a)
		}
		if _, dup := d.agents[a.ID]; dup {
			return nil, fmt.Errorf("agents: duplicate agent id %q", a.ID)
		}
		if a.Capacity <= 0 {
			a.Capacity = DefaultCapacity
		}
		agent := a
		d.agents[a.ID] = &agent
		d.rosters[a.Category] = append(d.rosters[a.Category], a.ID)
	}
	for _, ids := range d.rosters {
		sort.Strings(ids)
	}
	for category, wait := range opts.BaseWait {
		d.baseWait[category] = wait
	}
	return d, nil
}

// Assign selects the least-loaded available agent in the category roster,
// breaking ties by lowest agent id, and increments its load. It returns
// false when every agent in the category is at capacity. Categories with no
// roster fall back to the general roster.
func (d *Directory) Assign(category string) (Agent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	best := d.pickLocked(category)
	if best == nil {
		return Agent{}, false
	}
	best.Load++
	return *best, true
}

// pickLocked returns the least-loaded available agent for a category, or nil.
// Caller holds d.mu.
func (d *Directory) pickLocked(category string) *Agent {
	ids, ok := d.rosters[category]
	if !ok {
		ids = d.rosters["general"]
	}
	var best *Agent
	for _, id := range ids {
		a := d.agents[id]
		if !a.Available() {
			continue
		}
		// ids are sorted, so on equal load the lowest id wins.
		if best == nil || a.Load < best.Load {
			best = a
		}
	}
	return best
}

// Enqueue places a ticket in the category queue and returns its 1-indexed
// position and the deterministic estimated wait (base wait x position). A
// ticket already queued for the category keeps its position; a ticket queued
// under another category is moved, so no ticket ever holds two queue slots.
func (d *Directory) Enqueue(category, ticketID string) (int, time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, id := range d.queues[category] {
		if id == ticketID {
			return i + 1, d.waitLocked(category, i+1)
		}
	}
	d.dequeueLocked(ticketID)
	d.queues[category] = append(d.queues[category], ticketID)
	depth := len(d.queues[category])
	return depth, d.waitLocked(category, depth)
}

// dequeueLocked removes the ticket from whichever queue holds it, if any.
// Caller holds d.mu.
func (d *Directory) dequeueLocked(ticketID string) {
	for category, queue := range d.queues {
		for i, id := range queue {
			if id == ticketID {
				d.queues[category] = append(queue[:i:i], queue[i+1:]...)
				return
			}
		}
	}
}

// QueueDepth returns the number of tickets queued for a category.
func (d *Directory) QueueDepth(category string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.queues[category])
}

// Release decrements the agent's load. If tickets are queued for the agent's
// category, the oldest is promoted onto the freed agent and returned so the
// caller can notify the customer. Unknown agent ids are ignored.
func (d *Directory) Release(agentID string) *Promotion {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.agents[agentID]
	if !ok {
		return nil
	}
	if a.Load > 0 {
		a.Load--
	}

	queue := d.queues[a.Category]
	if len(queue) == 0 || !a.Available() {
		return nil
	}
	ticketID := queue[0]
	d.queues[a.Category] = queue[1:]
	a.Load++
	return &Promotion{TicketID: ticketID, Agent: *a}
}

// Roster returns a copy of all agents ordered by id.
func (d *Directory) Roster() []Agent {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Agent, 0, len(d.agents))
	for _, a := range d.agents {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// waitLocked computes the estimated wait for a queue of the given depth.
// Caller holds d.mu.
func (d *Directory) waitLocked(category string, depth int) time.Duration {
	base, ok := d.baseWait[category]
	if !ok {
		base = defaultBaseWait
	}
	return base * time.Duration(depth)
}
