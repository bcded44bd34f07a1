// Package journal provides the bounded, append-only interaction log consumed
// by the reporting layer.
package journal

import (
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultCapacity is the journal size used when none is configured.
const DefaultCapacity = 1000

// maxOutputLen caps the stored bot-response text per record.
const maxOutputLen = 200

// Record is a single logged conversation turn.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"userId"`
	InputText   string    `json:"inputText"`
	OutputText  string    `json:"outputText"` // truncated to maxOutputLen
	DialogState string    `json:"dialogState"`
	MessageType string    `json:"messageType"`
	SessionID   string    `json:"sessionId"`
}

// Log is a fixed-capacity FIFO ring of interaction records. When full, each
// append evicts the oldest record. Safe for concurrent use.
type Log struct {
	mu    sync.RWMutex
	buf   []Record
	start int // index of the oldest record
	count int
}

// New creates a Log with the given capacity. A capacity <= 0 falls back to
// DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{buf: make([]Record, capacity)}
}

// Capacity returns the configured capacity.
func (l *Log) Capacity() int {
	return len(l.buf)
}

// Len returns the number of records currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Append records a turn, evicting the oldest record if the log is full.
// Output text is truncated to maxOutputLen bytes on a rune boundary.
func (l *Log) Append(rec Record) {
	if len(rec.OutputText) > maxOutputLen {
		cut := maxOutputLen
		for cut > 0 && !utf8.RuneStart(rec.OutputText[cut]) {
			cut--
		}
		rec.OutputText = rec.OutputText[:cut]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count < len(l.buf) {
		l.buf[(l.start+l.count)%len(l.buf)] = rec
		l.count++
		return
	}
	// Full: overwrite the oldest slot and advance the start.
	l.buf[l.start] = rec
	l.start = (l.start + 1) % len(l.buf)
}

// Snapshot returns all records in arrival order. The returned slice is a copy
// and safe to use without holding any lock.
func (l *Log) Snapshot() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}
