// Package models defines the GORM schema for the analytics archive: resolved
// conversations exported for BI tooling, never read back by the bot.
package models

import "time"

// Ticket is one archived support ticket.
type Ticket struct {
	ID              string `gorm:"primaryKey;size:16"`
	CustomerID      string `gorm:"size:32;index"`
	CustomerName    string `gorm:"size:128"`
	Status          string `gorm:"size:16;index"`
	Priority        string `gorm:"size:16"`
	Category        string `gorm:"size:32;index"`
	Department      string `gorm:"size:64"`
	AssignedAgentID string `gorm:"size:16"`
	AgentName       string `gorm:"size:128"`
	InitialMessage  string `gorm:"type:text"`
	Rating          int
	CreatedAt       time.Time
	ClosedAt        *time.Time

	Messages []TicketMessage `gorm:"foreignKey:TicketID"`
}

// TicketMessage is one transcript entry of an archived ticket.
type TicketMessage struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	TicketID string `gorm:"size:16;index"`
	Seq      int
	Sender   string `gorm:"size:16"`
	Text     string `gorm:"type:text"`
	SentAt   time.Time
}
