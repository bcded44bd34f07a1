// Package session holds per-user conversation state for the dialog engine.
package session

import (
	"time"

	"github.com/zulandar/switchboard/internal/ticket"
)

// State is a named step in the per-user conversation state machine.
type State string

const (
	StateWelcome              State = "welcome"
	StateMainMenu             State = "main_menu"
	StatePensionInfo          State = "pension_info"
	StateBalanceVerification  State = "balance_verification"
	StateScheduleConsultation State = "schedule_consultation"
	StateContributionHelp     State = "contribution_help"
	StateAgentSelection       State = "agent_selection"
	StateWithAgent            State = "with_agent"
	StateComplaintForm        State = "complaint_form"
	StateFeedbackForm         State = "feedback_form"
)

// Session is the persistent conversational context for one user. A session
// references at most one active (non-resolved) ticket at a time.
type Session struct {
	UserID         string
	State          State
	DisplayName    string
	Scratch        map[string]string // free-text captures (verification details, consultation prefs)
	ActiveTicketID string
	Complaint      *ticket.ComplaintDraft
	ID             string // interaction session id (SS... format)
	CreatedAt      time.Time
	LastActive     time.Time
}

// SetScratch records a free-text capture, allocating the map on first use.
func (s *Session) SetScratch(key, value string) {
	if s.Scratch == nil {
		s.Scratch = make(map[string]string)
	}
	s.Scratch[key] = value
}
