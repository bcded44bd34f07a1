package dialog

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/switchboard/internal/agents"
	"github.com/zulandar/switchboard/internal/session"
	"github.com/zulandar/switchboard/internal/ticket"
)

var ticketIDRe = regexp.MustCompile(`TK\d{6}[A-Z]{3}`)

// fixture bundles an engine with its real registries for assertions.
type fixture struct {
	eng     *Engine
	tickets *ticket.Registry
	dir     *agents.Directory
	sess    *session.Session
}

func newFixture(t *testing.T, roster []agents.Agent) *fixture {
	t.Helper()
	clock := func() time.Time { return time.Date(2025, 7, 15, 14, 0, 0, 0, time.UTC) }
	reg := ticket.NewRegistry(ticket.RegistryOpts{Clock: clock, Rand: rand.New(rand.NewSource(1))})
	dir, err := agents.NewDirectory(agents.DirectoryOpts{Roster: roster, BaseWait: agents.DefaultBaseWaits()})
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	eng, err := NewEngine(EngineOpts{
		Tickets: reg,
		Agents:  dir,
		Company: "Acme Pension Services",
		Clock:   clock,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &fixture{
		eng:     eng,
		tickets: reg,
		dir:     dir,
		sess: &session.Session{
			UserID:      "447700900000",
			State:       session.StateWelcome,
			DisplayName: "Alice",
			ID:          "SS1752588000ab1cd",
		},
	}
}

func (f *fixture) handle(t *testing.T, input string) (string, []Command) {
	t.Helper()
	return f.eng.Handle(f.sess, input)
}

func TestNewEngine_Validation(t *testing.T) {
	if _, err := NewEngine(EngineOpts{Agents: &agents.Directory{}}); err == nil {
		t.Error("expected error for nil tickets")
	}
	if _, err := NewEngine(EngineOpts{Tickets: ticket.NewRegistry(ticket.RegistryOpts{})}); err == nil {
		t.Error("expected error for nil agents")
	}
}

func TestHandle_WelcomeGreeting(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	resp, _ := f.handle(t, "hi")

	if !strings.Contains(resp, "Hello Alice!") || !strings.Contains(resp, "Welcome to Acme Pension Services") {
		t.Errorf("welcome response missing greeting: %q", resp)
	}
	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateMainMenu)
	}
}

func TestHandle_EndToEndAgentRequest(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())

	f.handle(t, "hi")
	resp, cmds := f.handle(t, "5")

	if f.sess.State != session.StateAgentSelection {
		t.Fatalf("state = %q, want %q", f.sess.State, session.StateAgentSelection)
	}
	id := ticketIDRe.FindString(resp)
	if id == "" {
		t.Fatalf("response has no TK-format ticket id: %q", resp)
	}
	if f.sess.ActiveTicketID != id {
		t.Errorf("session ActiveTicketID = %q, want %q", f.sess.ActiveTicketID, id)
	}
	if !hasNotify(cmds, EventTicketCreated) {
		t.Error("missing ticket_created notify command")
	}

	resp, _ = f.handle(t, "2")
	if f.sess.State != session.StateComplaintForm {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateComplaintForm)
	}
	if !strings.Contains(resp, "Step 1 of 4") {
		t.Errorf("expected step-1 complaint prompt, got %q", resp)
	}
}

func TestHandle_FallbacksLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		state    session.State
		input    string
		fallback string
	}{
		{session.StateMainMenu, "xyzw", mainMenuFallback},
		{session.StatePensionInfo, "zzz", pensionInfoFallback},
		{session.StateContributionHelp, "zzz", contributionFallback},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			f := newFixture(t, agents.DefaultRoster())
			f.sess.State = tt.state
			resp, _ := f.handle(t, tt.input)
			if !strings.HasPrefix(resp, tt.fallback) {
				t.Errorf("response = %q, want fallback %q", resp, tt.fallback)
			}
			if f.sess.State != tt.state {
				t.Errorf("state changed to %q on fallback", f.sess.State)
			}
		})
	}
}

func TestHandle_MenuEscapeResets(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.sess.State = session.StatePensionInfo
	f.sess.Complaint = &ticket.ComplaintDraft{Step: 3}

	resp, _ := f.handle(t, "MENU")

	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateMainMenu)
	}
	if f.sess.Complaint != nil {
		t.Error("complaint draft not discarded on menu reset")
	}
	if !strings.Contains(resp, "1️⃣ General pension information") {
		t.Errorf("expected main menu text, got %q", resp)
	}
}

func TestHandle_UnknownStateResets(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.sess.State = session.State("corrupted_beyond_repair")

	f.handle(t, "anything")

	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want defensive reset to %q", f.sess.State, session.StateMainMenu)
	}
}

func TestHandle_MenuHintAppended(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	resp, _ := f.handle(t, "hello")
	if !strings.HasSuffix(resp, menuHint) {
		t.Errorf("welcome response missing menu hint: %q", resp)
	}

	// A response already mentioning the menu must not get a duplicate hint.
	resp, _ = f.handle(t, "1")
	if strings.HasSuffix(resp, menuHint) {
		t.Errorf("pension info response got a redundant hint: %q", resp)
	}
}

func TestHandle_MainMenuRouting(t *testing.T) {
	tests := []struct {
		input string
		want  session.State
	}{
		{"1", session.StatePensionInfo},
		{"information please", session.StatePensionInfo},
		{"2", session.StateBalanceVerification},
		{"balance", session.StateBalanceVerification},
		{"3", session.StateScheduleConsultation},
		{"appointment", session.StateScheduleConsultation},
		{"4", session.StateContributionHelp},
		{"payment", session.StateContributionHelp},
		{"5", session.StateAgentSelection},
		{"human", session.StateAgentSelection},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f := newFixture(t, agents.DefaultRoster())
			f.sess.State = session.StateMainMenu
			f.handle(t, tt.input)
			if f.sess.State != tt.want {
				t.Errorf("state = %q, want %q", f.sess.State, tt.want)
			}
		})
	}
}

func TestHandle_BalanceVerificationCapturesAndReturns(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.sess.State = session.StateBalanceVerification

	resp, _ := f.handle(t, "PN1234, 01/01/1960, 4321")

	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateMainMenu)
	}
	if f.sess.Scratch["verification"] != "PN1234, 01/01/1960, 4321" {
		t.Errorf("verification scratch = %q", f.sess.Scratch["verification"])
	}
	if !strings.Contains(resp, "manual verification") {
		t.Errorf("unexpected response %q", resp)
	}
}

func TestHandle_ConsultationEchoesPreferences(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.sess.State = session.StateScheduleConsultation

	resp, _ := f.handle(t, "20/08/2025 morning, retirement planning")

	if !strings.Contains(resp, `"20/08/2025 morning, retirement planning"`) {
		t.Errorf("response does not echo preferences: %q", resp)
	}
	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateMainMenu)
	}
}

func TestHandle_AgentConnectFlow(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.handle(t, "hi")
	f.handle(t, "5")

	resp, _ := f.handle(t, "1")

	if f.sess.State != session.StateWithAgent {
		t.Fatalf("state = %q, want %q", f.sess.State, session.StateWithAgent)
	}
	if !strings.Contains(resp, "Connected to Account Services Team") {
		t.Errorf("response = %q", resp)
	}
	// AG001 sorts before AG002 on equal load.
	if !strings.Contains(resp, "Sarah Mitchell") {
		t.Errorf("expected tie-break assignment to Sarah Mitchell, got %q", resp)
	}

	tk, err := f.tickets.Get(f.sess.ActiveTicketID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if tk.Status != ticket.StatusAssigned || tk.AssignedAgentID != "AG001" {
		t.Errorf("ticket = %s/%s, want assigned/AG001", tk.Status, tk.AssignedAgentID)
	}
	if tk.Priority != ticket.PriorityHigh {
		t.Errorf("priority = %q, want high for account_issues", tk.Priority)
	}
}

func TestHandle_AgentConversationAppendsTranscript(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.handle(t, "hi")
	f.handle(t, "5")
	f.handle(t, "3") // technical

	resp, _ := f.handle(t, "the app crashes on login")

	if !strings.Contains(resp, agents.ScriptedReply("technical", 0)) {
		t.Errorf("expected first scripted technical reply, got %q", resp)
	}

	tk, _ := f.tickets.Get(f.sess.ActiveTicketID)
	if len(tk.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(tk.Transcript))
	}
	if tk.Transcript[0].Sender != ticket.SenderCustomer || tk.Transcript[1].Sender != ticket.SenderAgent {
		t.Error("transcript order must be customer then agent")
	}

	// Second turn gets the second scripted reply.
	resp, _ = f.handle(t, "still crashing")
	if !strings.Contains(resp, agents.ScriptedReply("technical", 1)) {
		t.Errorf("expected second scripted reply, got %q", resp)
	}
}

func TestHandle_SummaryKeepsConversation(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.handle(t, "hi")
	f.handle(t, "5")
	f.handle(t, "1")

	resp, _ := f.handle(t, "summary")

	if f.sess.State != session.StateWithAgent {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateWithAgent)
	}
	if !strings.Contains(resp, "Ticket Summary") || !strings.Contains(resp, f.sess.ActiveTicketID) {
		t.Errorf("summary response = %q", resp)
	}
}

func TestHandle_EndResolvesAndAsksFeedback(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.handle(t, "hi")
	f.handle(t, "5")
	f.handle(t, "1")
	id := f.sess.ActiveTicketID

	resp, cmds := f.handle(t, "end")

	if f.sess.State != session.StateFeedbackForm {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateFeedbackForm)
	}
	if f.sess.ActiveTicketID != "" {
		t.Error("active ticket id not cleared after resolution")
	}
	if !strings.Contains(resp, "Session Ended") {
		t.Errorf("response = %q", resp)
	}
	if !hasNotify(cmds, EventTicketResolved) {
		t.Error("missing ticket_resolved notify command")
	}

	tk, _ := f.tickets.Get(id)
	if tk.Status != ticket.StatusResolved || tk.ClosedAt == nil {
		t.Errorf("ticket not resolved: %+v", tk)
	}

	// "recommend" contains "end" but must not end a session: exact match only.
	f2 := newFixture(t, agents.DefaultRoster())
	f2.handle(t, "hi")
	f2.handle(t, "5")
	f2.handle(t, "1")
	f2.handle(t, "i recommend checking my statement")
	if f2.sess.State != session.StateWithAgent {
		t.Errorf(`"recommend" ended the session; state = %q`, f2.sess.State)
	}
}

func TestHandle_FeedbackRatingRecorded(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.handle(t, "hi")
	f.handle(t, "5")
	f.handle(t, "1")
	f.handle(t, "end")
	id := f.sess.Scratch["last_ticket"]

	f.handle(t, "4")

	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateMainMenu)
	}
	tk, _ := f.tickets.Get(id)
	if tk.Rating != 4 {
		t.Errorf("rating = %d, want 4", tk.Rating)
	}
}

func TestHandle_FeedbackSkip(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.sess.State = session.StateFeedbackForm
	f.handle(t, "skip")
	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want %q", f.sess.State, session.StateMainMenu)
	}
}

func TestHandle_QueuedWhenRosterFull(t *testing.T) {
	// Single technical agent with capacity 1; second customer must queue.
	roster := []agents.Agent{
		{ID: "AG005", Name: "Alex Kumar", Category: "technical", Capacity: 1},
		{ID: "AG011", Name: "Tom Anderson", Category: "general", Capacity: 1},
	}

	first := newFixture(t, roster)
	first.handle(t, "hi")
	first.handle(t, "5")
	first.handle(t, "3")
	if first.sess.State != session.StateWithAgent {
		t.Fatalf("first customer state = %q, want with_agent", first.sess.State)
	}

	// Second customer against the same directory.
	second := &session.Session{UserID: "447700900001", State: session.StateWelcome, DisplayName: "Bob"}
	first.eng.Handle(second, "hi")
	first.eng.Handle(second, "5")
	resp, cmds := first.eng.Handle(second, "3")

	if !strings.Contains(resp, "Queued for Technical Support Team") {
		t.Fatalf("response = %q, want queued copy", resp)
	}
	if !strings.Contains(resp, "Queue Position:** 1") {
		t.Errorf("queue position missing or wrong: %q", resp)
	}
	if !hasNotify(cmds, EventTicketQueued) {
		t.Error("missing ticket_queued notify command")
	}

	tk, err := first.tickets.Get(second.ActiveTicketID)
	if err != nil {
		t.Fatalf("get queued ticket: %v", err)
	}
	if tk.Status != ticket.StatusQueued {
		t.Errorf("ticket status = %q, want queued", tk.Status)
	}
}

func TestHandle_QueuedCustomerKeepsSingleSlot(t *testing.T) {
	roster := []agents.Agent{
		{ID: "AG005", Name: "Alex Kumar", Category: "technical", Capacity: 1},
	}
	f := newFixture(t, roster)
	f.handle(t, "hi")
	f.handle(t, "5")
	f.handle(t, "3")

	second := &session.Session{UserID: "447700900001", State: session.StateWelcome, DisplayName: "Bob"}
	f.eng.Handle(second, "hi")
	f.eng.Handle(second, "5")
	f.eng.Handle(second, "3")
	queuedID := second.ActiveTicketID

	// Re-picking a category while queued keeps the existing slot.
	resp, cmds := f.eng.Handle(second, "3")
	if got := f.dir.QueueDepth("technical"); got != 1 {
		t.Errorf("queue depth after re-pick = %d, want 1", got)
	}
	if !strings.Contains(resp, "Queue Position:** 1") {
		t.Errorf("response = %q, want position 1", resp)
	}
	if hasNotify(cmds, EventTicketQueued) {
		t.Error("re-pick raised a second ticket_queued notify")
	}
	if second.State != session.StateAgentSelection {
		t.Errorf("state = %q, want agent_selection while queued", second.State)
	}
	tk, _ := f.tickets.Get(queuedID)
	if tk.Status != ticket.StatusQueued {
		t.Errorf("status after re-pick = %q, want queued", tk.Status)
	}

	// The first customer ends; the queued ticket is promoted, and the next
	// message from its customer reaches the agent conversation.
	f.handle(t, "end")
	resp, _ = f.eng.Handle(second, "hello again")
	if second.State != session.StateWithAgent {
		t.Errorf("state after promotion = %q, want with_agent", second.State)
	}
	if !strings.Contains(resp, "Alex Kumar") {
		t.Errorf("handoff response = %q, want agent name", resp)
	}

	// From there it is a normal conversation through to resolution.
	f.eng.Handle(second, "still broken")
	f.eng.Handle(second, "end")
	tk, _ = f.tickets.Get(queuedID)
	if tk.Status != ticket.StatusResolved {
		t.Errorf("status after end = %q, want resolved", tk.Status)
	}
}

func TestHandle_ReleasePromotesQueuedTicket(t *testing.T) {
	roster := []agents.Agent{
		{ID: "AG005", Name: "Alex Kumar", Category: "technical", Capacity: 1},
	}
	f := newFixture(t, roster)
	f.handle(t, "hi")
	f.handle(t, "5")
	f.handle(t, "3")

	second := &session.Session{UserID: "447700900001", State: session.StateWelcome, DisplayName: "Bob"}
	f.eng.Handle(second, "hi")
	f.eng.Handle(second, "5")
	f.eng.Handle(second, "3")
	queuedID := second.ActiveTicketID

	// First customer ends their session; Bob's ticket is promoted.
	_, cmds := f.handle(t, "end")

	var promo *Notify
	for _, c := range cmds {
		if n, ok := c.(Notify); ok && n.Event == EventAgentAvailable {
			promo = &n
			break
		}
	}
	if promo == nil {
		t.Fatal("missing agent_available notify for promoted ticket")
	}
	if promo.TicketID != queuedID {
		t.Errorf("promoted ticket = %q, want %q", promo.TicketID, queuedID)
	}

	tk, _ := f.tickets.Get(queuedID)
	if tk.Status != ticket.StatusAssigned || tk.AssignedAgentID != "AG005" {
		t.Errorf("promoted ticket = %s/%s, want assigned/AG005", tk.Status, tk.AssignedAgentID)
	}

	// Bob gets told directly that an agent picked up his ticket.
	var send *Send
	for _, c := range cmds {
		if s, ok := c.(Send); ok && s.To == "447700900001" {
			send = &s
			break
		}
	}
	if send == nil {
		t.Fatal("no Send command for the queued customer")
	}
	if !strings.Contains(send.Text, queuedID) {
		t.Errorf("promotion message = %q, want ticket id", send.Text)
	}
}

func TestHandle_StaleTicketFailsSoft(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.sess.State = session.StateWithAgent
	f.sess.ActiveTicketID = "TK000000GON"

	resp, cmds := f.handle(t, "hello?")

	if f.sess.State != session.StateMainMenu {
		t.Errorf("state = %q, want reroute to %q", f.sess.State, session.StateMainMenu)
	}
	if f.sess.ActiveTicketID != "" {
		t.Error("stale ticket id not cleared")
	}
	if !hasNotify(cmds, EventStaleTicket) {
		t.Error("stale ticket anomaly not reported")
	}
	if !strings.Contains(resp, "1️⃣ General pension information") {
		t.Errorf("expected menu recovery text, got %q", resp)
	}
}

func TestHandle_ReusesOpenTicket(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	f.handle(t, "hi")
	f.handle(t, "5")
	id := f.sess.ActiveTicketID

	// Back to the menu and into agent selection again: same open ticket.
	f.handle(t, "menu")
	resp, _ := f.handle(t, "5")

	if f.sess.ActiveTicketID != id {
		t.Errorf("active ticket changed from %q to %q", id, f.sess.ActiveTicketID)
	}
	if !strings.Contains(resp, id) {
		t.Errorf("response does not reference existing ticket %q: %q", id, resp)
	}
}

func TestHandle_EmitsInteractionRecord(t *testing.T) {
	f := newFixture(t, agents.DefaultRoster())
	_, cmds := f.handle(t, "hi")

	var logged bool
	for _, c := range cmds {
		rec, ok := c.(LogInteraction)
		if !ok {
			continue
		}
		logged = true
		if rec.Record.UserID != "447700900000" {
			t.Errorf("record UserID = %q", rec.Record.UserID)
		}
		if rec.Record.DialogState != string(session.StateMainMenu) {
			t.Errorf("record DialogState = %q, want post-turn state", rec.Record.DialogState)
		}
		if rec.Record.SessionID != "SS1752588000ab1cd" {
			t.Errorf("record SessionID = %q", rec.Record.SessionID)
		}
	}
	if !logged {
		t.Fatal("no LogInteraction command emitted")
	}
}

func TestDetectMessageType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"what is my balance", "account_inquiry"},
		{"i have a complaint", "complaint"},
		{"book a consultation", "booking"},
		{"contribution rates", "contributions"},
		{"talk to a human", "agent_request"},
		{"hello", "general_inquiry"},
	}
	for _, tt := range tests {
		if got := detectMessageType(tt.input); got != tt.want {
			t.Errorf("detectMessageType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// hasNotify reports whether cmds contains a Notify with the given event.
func hasNotify(cmds []Command, event string) bool {
	for _, c := range cmds {
		if n, ok := c.(Notify); ok && n.Event == event {
			return true
		}
	}
	return false
}
