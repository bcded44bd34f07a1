package dialog

import (
	"strings"

	"github.com/zulandar/switchboard/internal/session"
)

// Rule is one entry in a state's transition table. Rules are evaluated in
// declaration order; the first match wins. An empty keyword set matches any
// input.
type Rule struct {
	Keywords []string // matched as substrings unless Exact
	Exact    bool     // require input == keyword instead of contains
	Next     session.State
	Respond  func(*turn) string // dynamic response; takes precedence over Text
	Text     string             // static response
}

// matches reports whether the rule fires for the normalized input.
func (r Rule) matches(input string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	for _, kw := range r.Keywords {
		if r.Exact {
			if input == kw {
				return true
			}
		} else if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}

// respond renders the rule's response for the turn.
func (r Rule) respond(t *turn) string {
	if r.Respond != nil {
		return r.Respond(t)
	}
	return r.Text
}

// stateSpec is the transition table entry for one dialog state.
type stateSpec struct {
	Rules    []Rule
	Fallback Rule // fired when no rule matches; Keywords ignored
}

// table is the full conversation state machine, data rather than control
// flow: each state lists its rules in priority order plus a fallback that
// keeps the state unchanged unless it names a Next state.
var table = map[session.State]stateSpec{
	session.StateWelcome: {
		Rules: []Rule{
			{Next: session.StateMainMenu, Respond: func(t *turn) string {
				return welcomeText(t.sess.DisplayName, t.eng.company)
			}},
		},
	},

	session.StateMainMenu: {
		Rules: []Rule{
			{Keywords: []string{"1", "information", "general"}, Next: session.StatePensionInfo, Text: pensionInfoText},
			{Keywords: []string{"2", "balance", "account"}, Next: session.StateBalanceVerification, Text: balancePromptText},
			{Keywords: []string{"3", "consultation", "appointment"}, Next: session.StateScheduleConsultation, Text: consultationPromptText},
			{Keywords: []string{"4", "contribution", "payment"}, Next: session.StateContributionHelp, Text: contributionMenuText},
			{Keywords: []string{"5", "agent", "human"}, Next: session.StateAgentSelection, Respond: (*turn).openTicket},
		},
		Fallback: Rule{Text: mainMenuFallback},
	},

	session.StatePensionInfo: {
		Rules: []Rule{
			{Keywords: []string{"a", "contribution rates"}, Text: pensionRatesText},
			{Keywords: []string{"b", "investment"}, Text: pensionInvestmentText},
			{Keywords: []string{"c", "retirement benefits"}, Text: pensionBenefitsText},
			{Keywords: []string{"d", "tax"}, Text: pensionTaxText},
		},
		Fallback: Rule{Text: pensionInfoFallback},
	},

	session.StateBalanceVerification: {
		Rules: []Rule{
			{Next: session.StateMainMenu, Respond: func(t *turn) string {
				t.sess.SetScratch("verification", t.raw)
				return balanceRecordedText
			}},
		},
	},

	session.StateScheduleConsultation: {
		Rules: []Rule{
			{Next: session.StateMainMenu, Respond: func(t *turn) string {
				t.sess.SetScratch("consultation", t.raw)
				return consultationConfirmText(t.raw)
			}},
		},
	},

	session.StateContributionHelp: {
		Rules: []Rule{
			{Keywords: []string{"rate", "how much"}, Text: contributionRatesText},
			{Keywords: []string{"increase", "more"}, Text: contributionIncreaseText},
			{Keywords: []string{"history", "past"}, Text: contributionHistoryText},
		},
		Fallback: Rule{Text: contributionFallback},
	},

	session.StateAgentSelection: {
		Rules: []Rule{
			{Keywords: []string{"1", "account"}, Respond: category("account_issues")},
			{Keywords: []string{"2", "complaint"}, Respond: (*turn).startComplaint},
			{Keywords: []string{"3", "technical"}, Respond: category("technical")},
			{Keywords: []string{"4", "planning"}, Respond: category("pension_planning")},
			{Keywords: []string{"5", "contribution"}, Respond: category("contributions")},
		},
		Fallback: Rule{Respond: category("general")},
	},

	session.StateWithAgent: {
		Rules: []Rule{
			{Keywords: []string{"end"}, Exact: true, Respond: (*turn).endAgentSession},
			{Keywords: []string{"summary"}, Exact: true, Respond: (*turn).ticketSummary},
			{Respond: (*turn).agentConversation},
		},
	},

	session.StateComplaintForm: {
		Rules: []Rule{
			{Respond: (*turn).complaintStep},
		},
	},

	session.StateFeedbackForm: {
		Rules: []Rule{
			{Keywords: []string{"skip"}, Exact: true, Next: session.StateMainMenu, Text: feedbackSkippedText},
			{Next: session.StateMainMenu, Respond: (*turn).recordFeedback},
		},
	},
}

// category builds a responder that files the active ticket under the given
// support category and attempts assignment.
func category(name string) func(*turn) string {
	return func(t *turn) string {
		return t.selectCategory(name)
	}
}
