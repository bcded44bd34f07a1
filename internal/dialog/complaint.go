package dialog

import (
	"fmt"
	"log"

	"github.com/zulandar/switchboard/internal/session"
	"github.com/zulandar/switchboard/internal/ticket"
)

const complaintStep1Text = `😔 *Complaint Registration*

I'm sorry to hear you're experiencing issues. We take all complaints seriously and will resolve this promptly.

**Step 1 of 4:** Please describe the nature of your complaint:

1️⃣ Service quality issues
2️⃣ Account/payment problems
3️⃣ Staff behavior concerns
4️⃣ System/technical issues
5️⃣ Policy disagreements
6️⃣ Other

Please select a number or describe your complaint in detail.`

const complaintStep2Text = `📅 **Step 2 of 4:** When did this issue occur?

Please provide:
• Date of incident (DD/MM/YYYY)
• Approximate time (if relevant)
• How long has this been ongoing?

Example: "15/07/2025, around 2 PM, been ongoing for 2 weeks"`

const complaintStep3Text = `📝 **Step 3 of 4:** Please provide detailed information:

• What exactly happened?
• Who was involved (if staff members)?
• What outcome are you seeking?
• Any reference numbers or previous case IDs?

The more details you provide, the better we can resolve this for you.`

func complaintRegisteredText(complaintID string) string {
	return fmt.Sprintf(`✅ **Complaint Registered Successfully**

🎫 **Complaint ID:** %s
📋 **Status:** Under Investigation
👥 **Assigned to:** Customer Relations Manager
⏰ **Response Time:** Within 48 hours
📞 **Follow-up:** We'll contact you within 2 business days

**Step 4 of 4:** How would you like us to contact you with updates?

1️⃣ WhatsApp messages (this number)
2️⃣ Phone call
3️⃣ Email
4️⃣ SMS updates

**What happens next:**
✓ Investigation begins immediately
✓ Manager review within 24 hours
✓ Resolution plan within 48 hours
✓ Follow-up until resolved

Thank you for bringing this to our attention. We're committed to resolving this satisfactorily.`, complaintID)
}

const complaintDoneText = `Thank you for your complaint. Our Customer Relations team is on it.

Before you go — how was your experience with this conversation so far?

Reply with a number from 1 (poor) to 5 (excellent), or type "skip".`

// startComplaint routes an agent-selection pick of "complaints" into the
// four-step complaint form. The active ticket is filed under the complaints
// category so the reporting layer sees it.
func (t *turn) startComplaint() string {
	if t.sess.ActiveTicketID != "" {
		if _, _, err := t.eng.tickets.SetCategory(t.sess.ActiveTicketID, "complaints"); err != nil {
			return t.staleTicket(err)
		}
	}
	t.sess.State = session.StateComplaintForm
	t.sess.Complaint = &ticket.ComplaintDraft{Step: 1}
	return t.complaintStep()
}

// complaintStep advances the complaint sub-machine by one input. Steps 2-4
// capture the type, date/time, and details; completing step 4 finalizes the
// draft into an immutable record. Step 5 acknowledges the contact preference
// and hands over to the feedback form.
func (t *turn) complaintStep() string {
	if t.sess.Complaint == nil {
		t.sess.Complaint = &ticket.ComplaintDraft{Step: 1}
	}
	draft := t.sess.Complaint

	switch draft.Step {
	case 1:
		draft.Step = 2
		return complaintStep1Text

	case 2:
		draft.Type = t.raw
		draft.Step = 3
		return complaintStep2Text

	case 3:
		draft.DateTime = t.raw
		draft.Step = 4
		return complaintStep3Text

	case 4:
		draft.Details = t.raw
		draft.Step = 5
		rec, err := t.eng.tickets.RegisterComplaint(t.sess.UserID, *draft)
		if err != nil {
			log.Printf("dialog: register complaint for %s: %v", t.sess.UserID, err)
			t.sess.Complaint = nil
			t.sess.State = session.StateMainMenu
			return mainMenuText()
		}
		t.notify(rec.ID, EventComplaintFiled,
			fmt.Sprintf("Complaint %s filed by %s (follow-up due %s)", rec.ID, t.sess.DisplayName, rec.FollowUpDeadline.Format("02/01 15:04")))
		t.closeComplaintTicket()
		return complaintRegisteredText(rec.ID)

	default:
		// Contact preference captured; the draft is finalized and discarded.
		t.sess.Complaint = nil
		t.sess.State = session.StateFeedbackForm
		return complaintDoneText
	}
}

// closeComplaintTicket resolves the carrier ticket once the complaint record
// exists; the record supersedes it.
func (t *turn) closeComplaintTicket() {
	id := t.sess.ActiveTicketID
	if id == "" {
		return
	}
	tk, err := t.eng.tickets.Close(id)
	if err != nil {
		log.Printf("dialog: close complaint ticket %s: %v", id, err)
	} else {
		t.releaseAgent(tk)
	}
	t.sess.ActiveTicketID = ""
	t.sess.SetScratch("last_ticket", id)
}
