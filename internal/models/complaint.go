package models

import "time"

// Complaint is one archived formal complaint record.
type Complaint struct {
	ID               string `gorm:"primaryKey;size:16"`
	CustomerID       string `gorm:"size:32;index"`
	Type             string `gorm:"size:128"`
	DateTime         string `gorm:"size:128"`
	Details          string `gorm:"type:text"`
	Severity         string `gorm:"size:16"`
	Status           string `gorm:"size:16;index"`
	AssignedTo       string `gorm:"size:64"`
	CreatedAt        time.Time
	FollowUpDeadline time.Time
}
