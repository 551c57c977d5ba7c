package models

import "time"

// Query records one asked question, written once per request regardless of
// whether retrieval succeeds.
type Query struct {
	ID           string `gorm:"primaryKey;size:36"`
	WorkspaceID  string `gorm:"index;not null;size:36"`
	UserID       string `gorm:"size:36"`
	QuestionText string `gorm:"type:text;not null"`
	ModelUsed    string `gorm:"size:128"`
	CreatedAt    time.Time
}
