package ticket

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	upperLetters    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlnum      = "abcdefghijklmnopqrstuvwxyz0123456789"
	ticketPrefix    = "TK"
	complaintPrefix = "CP"
	sessionPrefix   = "SS"
)

// IDGenerator produces ticket, complaint, and session identifiers. Both the
// clock and the randomness source are injected so id generation is
// reproducible in tests.
type IDGenerator struct {
	mu  sync.Mutex
	now func() time.Time
	rng *rand.Rand
}

// NewIDGenerator creates an IDGenerator. A nil clock defaults to time.Now;
// a nil rng defaults to a time-seeded source.
func NewIDGenerator(now func() time.Time, rng *rand.Rand) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &IDGenerator{now: now, rng: rng}
}

// TicketID returns a new ticket id: "TK" + the last 6 digits of the unix
// timestamp + 3 random uppercase letters.
func (g *IDGenerator) TicketID() string {
	return g.timestamped(ticketPrefix)
}

// ComplaintID returns a new complaint id: same scheme as tickets with a
// "CP" prefix.
func (g *IDGenerator) ComplaintID() string {
	return g.timestamped(complaintPrefix)
}

// SessionID returns a new interaction session id: "SS" + the full unix
// timestamp + 5 random lowercase alphanumerics.
func (g *IDGenerator) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ts := g.now().Unix()
	return fmt.Sprintf("%s%d%s", sessionPrefix, ts, g.pick(lowerAlnum, 5))
}

func (g *IDGenerator) timestamped(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ts := fmt.Sprintf("%d", g.now().Unix())
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return prefix + ts + g.pick(upperLetters, 3)
}

// pick returns n random characters from the alphabet. Caller holds g.mu.
func (g *IDGenerator) pick(alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}
