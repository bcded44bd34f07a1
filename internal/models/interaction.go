package models

import "time"

// Interaction is one archived journal entry: a single customer turn with the
// bot's response and dialog context.
type Interaction struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	SessionID   string    `gorm:"size:32;index"`
	UserID      string    `gorm:"size:32;index"`
	InputText   string    `gorm:"type:text"`
	OutputText  string    `gorm:"type:text"`
	DialogState string    `gorm:"size:32"`
	MessageType string    `gorm:"size:32"`
	OccurredAt  time.Time `gorm:"index"`
}
