package agents

// scriptedReplies holds canned agent responses per category. The reply for a
// given turn is chosen by turn index, not randomly, so conversations are
// reproducible.
var scriptedReplies = map[string][]string{
	"account_issues": {
		"I can see you're having account issues. Let me check your account details right away.",
		"I understand your concern about your account. I'm pulling up your information now.",
		"Thank you for explaining the issue. I can help resolve this account problem for you.",
	},
	"complaints": {
		"I sincerely apologize for this experience. Let me escalate this to ensure it's resolved promptly.",
		"I understand your frustration, and I'm here to make this right. Let me review the details.",
		"Thank you for bringing this to our attention. I'm going to personally ensure this gets resolved.",
	},
	"technical": {
		"I can help with that technical issue. Let me guide you through some troubleshooting steps.",
		"I see you're experiencing technical difficulties. Let me check our system status first.",
		"That's a common technical issue I can definitely help resolve for you.",
	},
}

// ScriptedReply returns the canned agent response for the given category and
// zero-based conversation turn. Categories without a script fall back to the
// account_issues script; turns beyond the script length cycle.
func ScriptedReply(category string, turn int) string {
	replies, ok := scriptedReplies[category]
	if !ok {
		replies = scriptedReplies["account_issues"]
	}
	if turn < 0 {
		turn = 0
	}
	return replies[turn%len(replies)]
}
