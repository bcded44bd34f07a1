package dialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/switchboard/internal/agents"
	"github.com/zulandar/switchboard/internal/ticket"
)

// menuHint is appended to any response that does not already mention the
// menu escape hatch.
const menuHint = "\n\n💡 Type \"menu\" anytime to see all options."

// menuOptions is the shared main-menu option list.
const menuOptions = `1️⃣ General pension information
2️⃣ Check account balance
3️⃣ Schedule a consultation
4️⃣ Contribution inquiries
5️⃣ Speak with an agent`

func welcomeText(displayName, company string) string {
	return fmt.Sprintf(`Hello %s! 👋 Welcome to %s.

I can help you with:
%s

Please reply with a number (1-5) or describe what you need help with.`, displayName, company, menuOptions)
}

func mainMenuText() string {
	return fmt.Sprintf(`Let me help you with your pension needs. Please choose:

%s`, menuOptions)
}

const mainMenuFallback = `I'd be happy to help! Could you please choose from the options below or be more specific?

` + menuOptions + `

Just reply with a number or tell me what you need help with.`

const pensionInfoText = `📋 *Pension Information*

Our pension plans offer:
• Competitive returns on your investments
• Flexible contribution options
• Professional fund management
• Tax benefits and advantages
• Secure retirement planning

Would you like to know more about:
A) Contribution rates
B) Investment options
C) Retirement benefits
D) Tax advantages

Reply with A, B, C, or D, or type "menu" to return to main options.`

const pensionRatesText = `💵 *Contribution Rates*

Our flexible contribution options:
• Minimum: 5% of monthly salary
• Recommended: 10-15% for optimal growth
• Maximum: 25% (with tax advantages)
• Employer matching: Up to 6% (if applicable)

Current rates are competitive with market standards. Would you like to discuss a personalized contribution plan?

Reply "yes" to schedule a call, or "menu" for main options.`

const pensionInvestmentText = `📈 *Investment Options*

We offer diversified portfolios:
• Conservative (bonds, stable income)
• Balanced (mixed bonds and equities)
• Growth (equity-focused for long-term)
• Aggressive (maximum growth potential)

All funds are professionally managed with regular performance reviews.

Would you like details on any specific option? Or type "menu" to return.`

const pensionBenefitsText = `🏖️ *Retirement Benefits*

When you retire, you can:
• Receive monthly pension payments
• Take a partial lump sum (up to 25% tax-free)
• Transfer to another provider
• Leave benefits to beneficiaries

Benefit amounts depend on contributions and investment performance over time.

Need help calculating your potential benefits? Type "calculate" or "menu".`

const pensionTaxText = `💸 *Tax Advantages*

Pension contributions offer significant tax benefits:
• Income tax relief on contributions
• Tax-free growth on investments
• Flexible withdrawal options
• Inheritance tax advantages
• Annual allowance optimization

These benefits can significantly boost your retirement savings!

Want to know your specific tax savings? Type "calculate" or "menu".`

const pensionInfoFallback = `Please choose one of the options:
A) Contribution rates
B) Investment options
C) Retirement benefits
D) Tax advantages

Or type "menu" to return to main options.`

const balancePromptText = `🔐 *Account Balance Inquiry*

To check your account balance, I'll need to verify your identity.

Please provide:
1. Your pension ID number
2. Date of birth (DD/MM/YYYY)
3. Last 4 digits of your registered phone number

*Note: This information is kept secure and used only for verification.*`

const balanceRecordedText = `🔍 Thank you for providing your details.

*For security reasons, account balance checks require manual verification by our team.*

I've recorded your request and someone will contact you within 2 business hours with your current balance and recent transactions.

Is there anything else I can help you with today?

Type "menu" for main options.`

const consultationPromptText = `📅 *Schedule a Consultation*

I'd be happy to help you schedule a meeting with one of our pension advisors.

Please tell me:
1. Your preferred date (DD/MM/YYYY)
2. Preferred time (morning/afternoon/evening)
3. Type of consultation needed:
   - New pension plan
   - Existing account review
   - Retirement planning
   - General advice

What works best for you?`

func consultationConfirmText(prefs string) string {
	return fmt.Sprintf(`✅ Perfect! I've noted your consultation preferences:

"%s"

Our team will contact you within 24 hours to confirm your appointment slot. We'll send you:
• Confirmed date and time
• Meeting location or video call link
• Preparation checklist
• Advisor contact details

You'll receive a confirmation SMS and email shortly.

Anything else I can help with? Type "menu" for main options.`, prefs)
}

const contributionMenuText = `💰 *Contribution Inquiries*

I can help with:
• Current contribution rates
• Payment schedules
• Increasing contributions
• Payment methods
• Contribution history

What specific information do you need about contributions?`

const contributionRatesText = `💰 *Current Contribution Information*

Standard rates:
• Employee minimum: 5% of salary
• Employee recommended: 10-15%
• Employer contribution: Varies by company
• Self-employed: Flexible amounts

The more you contribute now, the better your retirement income will be!

Need help calculating your ideal contribution? Type "calculate".
Want to increase contributions? Type "increase".
Type "menu" for main options.`

const contributionIncreaseText = `📈 *Increase Your Contributions*

Great decision! Increasing contributions can significantly boost your retirement fund.

To increase your contributions:
1. We'll review your current rate
2. Discuss your budget and goals
3. Set up the new contribution level
4. Provide updated projections

I'll arrange for an advisor to call you within 24 hours to discuss this.

Type "menu" for other options.`

const contributionHistoryText = `📊 *Contribution History*

For detailed contribution history, our team will need to access your secure account.

We can provide:
• Monthly contribution summaries
• Annual statements
• Growth tracking
• Tax relief applied

An advisor will contact you within 2 business hours with your complete contribution history.

Type "menu" for other options.`

const contributionFallback = `I can help with various contribution topics:

• Current rates and recommendations
• Increasing your contributions
• Payment methods and schedules
• Contribution history
• Tax benefits

What specific aspect would you like to know about?`

func agentMenuText(ticketID string) string {
	return fmt.Sprintf(`👥 *Connect with an Agent*

I'm here to connect you with the right specialist for your needs.

Please select the type of assistance you need:

1️⃣ **Account Issues** - Balance, payments, access problems
2️⃣ **Complaints** - Service issues, dissatisfaction, problems
3️⃣ **Technical Support** - App issues, login problems, errors
4️⃣ **Pension Planning** - Retirement advice, investment options
5️⃣ **Contributions** - Payment setup, increases, employer matching
6️⃣ **General Inquiry** - Other questions or information needed

🎫 Your ticket ID: *%s*

Please reply with a number (1-6) or describe your specific need.`, ticketID)
}

func connectedText(department string, agent agents.Agent, ticketID string) string {
	return fmt.Sprintf(`✅ *Connected to %s*

👤 **Agent:** %s
🎫 **Ticket ID:** %s
⏱️ **Status:** Connected
📞 **Response Time:** Immediate

Your agent is ready to help! Please describe your issue in detail, and %s will assist you right away.

🔄 Type "end" to close this conversation
📋 Type "summary" for ticket details`, department, agent.Name, ticketID, agent.Name)
}

func handoffText(agentName, ticketID string) string {
	return fmt.Sprintf(`✅ *Connected to an Agent*

👤 **Agent:** %s
🎫 **Ticket ID:** %s
⏱️ **Status:** Connected

%s has picked up your ticket and is ready to help. Please describe your issue in detail.

🔄 Type "end" to close this conversation
📋 Type "summary" for ticket details`, agentName, ticketID, agentName)
}

func queuedText(department, ticketID string, priority ticket.Priority, position int, wait time.Duration) string {
	return fmt.Sprintf(`⏳ *Queued for %s*

🎫 **Ticket ID:** %s
📊 **Priority:** %s
👥 **Queue Position:** %d
⏰ **Estimated Wait:** %s

You'll be connected to the next available agent. We'll notify you immediately when an agent becomes available.

In the meantime, you can:
• Provide more details about your issue
• Upload relevant documents (if needed)
• Type "urgent" if this requires immediate attention

💡 Type "callback" to request a phone call instead`, department, ticketID, strings.ToUpper(string(priority)), position, formatWait(wait))
}

func agentReplyText(agentName, reply string) string {
	return fmt.Sprintf(`👤 **%s:** %s

---
🔄 Type "end" to close | 📋 "summary" for details`, agentName, reply)
}

func sessionEndedText(tk *ticket.Ticket) string {
	return fmt.Sprintf(`✅ *Session Ended*

🎫 **Ticket ID:** %s
👤 **Agent:** %s
⏰ **Duration:** %s
📋 **Status:** Resolved

**Quick Feedback** (Optional):
How was your experience today?

1️⃣ Excellent - Issue resolved quickly
2️⃣ Good - Helpful but took some time
3️⃣ Average - Got some help
4️⃣ Poor - Issue not fully resolved
5️⃣ Very Poor - Unsatisfactory service

Reply with a number or type "skip" to return to main menu.

Thank you for contacting us today! 😊`, tk.ID, tk.AgentName, sessionDuration(tk))
}

func ticketSummaryText(tk *ticket.Ticket) string {
	agentName := tk.AgentName
	if agentName == "" {
		agentName = "Unassigned"
	}
	latest := ""
	if n := len(tk.Transcript); n > 0 {
		latest = truncate(tk.Transcript[n-1].Text, 100)
	}
	return fmt.Sprintf(`📋 *Ticket Summary*

🎫 **ID:** %s
👤 **Agent:** %s
📅 **Created:** %s
📊 **Status:** %s
🏷️ **Category:** %s
💬 **Messages:** %d

**Latest Update:** %s

Type anything to continue conversation or "end" to close.`,
		tk.ID, agentName, tk.CreatedAt.Format("02/01/2006 15:04"),
		strings.ToUpper(string(tk.Status)),
		strings.ToUpper(strings.ReplaceAll(tk.Category, "_", " ")),
		len(tk.Transcript), latest)
}

const feedbackThanksText = `Thank you for your feedback! We value your input and will use it to improve our services.

Type "menu" to see all options.`

const feedbackSkippedText = `No problem! Type "menu" anytime to see all options.`

// sessionDuration renders how long a ticket was open.
func sessionDuration(tk *ticket.Ticket) string {
	if tk.ClosedAt == nil {
		return "Ongoing"
	}
	minutes := int(tk.ClosedAt.Sub(tk.CreatedAt).Minutes())
	return fmt.Sprintf("%d minutes", minutes)
}

// formatWait renders an estimated wait in whole minutes.
func formatWait(wait time.Duration) string {
	minutes := int(wait.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// truncate returns s cut to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
