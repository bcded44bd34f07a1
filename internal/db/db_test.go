package db

import (
	"math/rand"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/journal"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/ticket"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Connect(config.ArchiveConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestConnect_UnknownDriver(t *testing.T) {
	if _, err := Connect(config.ArchiveConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.ArchiveConfig{
		User: "sb", Password: "pw", Host: "db.internal", Port: 3306, Database: "switchboard",
	})
	want := "sb:pw@tcp(db.internal:3306)/switchboard?parseTime=true"
	if dsn != want {
		t.Errorf("dsn = %q, want %q", dsn, want)
	}
}

func TestExportTickets_RoundTrip(t *testing.T) {
	gdb := newTestDB(t)

	clock := func() time.Time { return time.Date(2025, 7, 15, 14, 0, 0, 0, time.UTC) }
	reg := ticket.NewRegistry(ticket.RegistryOpts{Clock: clock, Rand: rand.New(rand.NewSource(1))})
	tk, _ := reg.Create("447700900000", "Alice", "help me")
	reg.SetCategory(tk.ID, "technical")
	reg.Assign(tk.ID, "AG005", "Alex Kumar")
	reg.Append(tk.ID, ticket.SenderCustomer, "app crashes")
	reg.Append(tk.ID, ticket.SenderAgent, "looking into it")
	reg.Close(tk.ID)

	tickets, _ := reg.Snapshot()
	if err := ExportTickets(gdb, tickets); err != nil {
		t.Fatalf("export tickets: %v", err)
	}

	var rows []models.Ticket
	if err := gdb.Find(&rows).Error; err != nil {
		t.Fatalf("find tickets: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ticket rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ID != tk.ID || row.Status != "resolved" || row.Category != "technical" {
		t.Errorf("row = %+v", row)
	}
	if row.AgentName != "Alex Kumar" {
		t.Errorf("AgentName = %q", row.AgentName)
	}

	var msgs []models.TicketMessage
	if err := gdb.Order("seq").Find(&msgs).Error; err != nil {
		t.Fatalf("find messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("message rows = %d, want 2", len(msgs))
	}
	if msgs[0].Sender != "customer" || msgs[1].Sender != "agent" {
		t.Errorf("msgs = %+v", msgs)
	}

	// Re-exporting the same tickets must not duplicate rows.
	updated, _ := reg.Snapshot()
	if err := ExportTickets(gdb, updated); err != nil {
		t.Fatalf("re-export tickets: %v", err)
	}
	var count int64
	gdb.Model(&models.Ticket{}).Count(&count)
	if count != 1 {
		t.Errorf("ticket rows after re-export = %d, want 1", count)
	}
	gdb.Model(&models.TicketMessage{}).Count(&count)
	if count != 2 {
		t.Errorf("message rows after re-export = %d, want 2", count)
	}
}

func TestExportComplaints(t *testing.T) {
	gdb := newTestDB(t)

	clock := func() time.Time { return time.Date(2025, 7, 15, 14, 0, 0, 0, time.UTC) }
	reg := ticket.NewRegistry(ticket.RegistryOpts{Clock: clock, Rand: rand.New(rand.NewSource(1))})
	reg.RegisterComplaint("447700900000", ticket.ComplaintDraft{
		Step: 5, Type: "Service quality", DateTime: "15/07/2025", Details: "slow",
	})

	if err := ExportComplaints(gdb, reg.Complaints()); err != nil {
		t.Fatalf("export complaints: %v", err)
	}

	var rows []models.Complaint
	if err := gdb.Find(&rows).Error; err != nil {
		t.Fatalf("find complaints: %v", err)
	}
	if len(rows) != 1 || rows[0].Severity != "medium" || rows[0].AssignedTo != "complaints_team" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestExportInteractions(t *testing.T) {
	gdb := newTestDB(t)

	jlog := journal.New(10)
	jlog.Append(journal.Record{UserID: "447700900000", InputText: "hi", OutputText: "hello", DialogState: "main_menu", Timestamp: time.Now()})
	jlog.Append(journal.Record{UserID: "447700900000", InputText: "1", OutputText: "info", DialogState: "pension_info", Timestamp: time.Now()})

	if err := ExportInteractions(gdb, jlog.Snapshot()); err != nil {
		t.Fatalf("export interactions: %v", err)
	}

	var rows []models.Interaction
	if err := gdb.Order("id").Find(&rows).Error; err != nil {
		t.Fatalf("find interactions: %v", err)
	}
	if len(rows) != 2 || rows[0].InputText != "hi" || rows[1].DialogState != "pension_info" {
		t.Errorf("rows = %+v", rows)
	}
}
