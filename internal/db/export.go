package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zulandar/switchboard/internal/journal"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/ticket"
)

// AllModels returns all archive GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Ticket{},
		&models.TicketMessage{},
		&models.Complaint{},
		&models.Interaction{},
	}
}

// AutoMigrate creates or updates all archive tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// ExportTickets upserts tickets and their transcripts into the archive.
// Re-exporting the same ticket replaces its row and transcript, so repeated
// exports converge on current state.
func ExportTickets(db *gorm.DB, tickets []ticket.Ticket) error {
	for _, tk := range tickets {
		row := models.Ticket{
			ID:              tk.ID,
			CustomerID:      tk.CustomerID,
			CustomerName:    tk.CustomerName,
			Status:          string(tk.Status),
			Priority:        string(tk.Priority),
			Category:        tk.Category,
			Department:      tk.Department,
			AssignedAgentID: tk.AssignedAgentID,
			AgentName:       tk.AgentName,
			InitialMessage:  tk.InitialMessage,
			Rating:          tk.Rating,
			CreatedAt:       tk.CreatedAt,
			ClosedAt:        tk.ClosedAt,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&row)
		if result.Error != nil {
			return fmt.Errorf("db: export ticket %s: %w", tk.ID, result.Error)
		}

		if err := db.Where("ticket_id = ?", tk.ID).Delete(&models.TicketMessage{}).Error; err != nil {
			return fmt.Errorf("db: clear transcript for %s: %w", tk.ID, err)
		}
		for i, msg := range tk.Transcript {
			entry := models.TicketMessage{
				TicketID: tk.ID,
				Seq:      i,
				Sender:   string(msg.Sender),
				Text:     msg.Text,
				SentAt:   msg.Timestamp,
			}
			if err := db.Create(&entry).Error; err != nil {
				return fmt.Errorf("db: export transcript for %s: %w", tk.ID, err)
			}
		}
	}
	return nil
}

// ExportComplaints upserts complaint records into the archive.
func ExportComplaints(db *gorm.DB, records []ticket.ComplaintRecord) error {
	for _, rec := range records {
		row := models.Complaint{
			ID:               rec.ID,
			CustomerID:       rec.CustomerID,
			Type:             rec.Type,
			DateTime:         rec.DateTime,
			Details:          rec.Details,
			Severity:         rec.Severity,
			Status:           rec.Status,
			AssignedTo:       rec.AssignedTo,
			CreatedAt:        rec.CreatedAt,
			FollowUpDeadline: rec.FollowUpDeadline,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&row)
		if result.Error != nil {
			return fmt.Errorf("db: export complaint %s: %w", rec.ID, result.Error)
		}
	}
	return nil
}

// ExportInteractions appends journal records to the archive. The journal is
// a bounded ring, so the archive is the only place old interactions survive.
func ExportInteractions(db *gorm.DB, records []journal.Record) error {
	for _, rec := range records {
		row := models.Interaction{
			SessionID:   rec.SessionID,
			UserID:      rec.UserID,
			InputText:   rec.InputText,
			OutputText:  rec.OutputText,
			DialogState: rec.DialogState,
			MessageType: rec.MessageType,
			OccurredAt:  rec.Timestamp,
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("db: export interaction for %s: %w", rec.UserID, err)
		}
	}
	return nil
}
