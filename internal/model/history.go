package model

import "time"

// Play triggers recorded with each PlayEvent.
const (
	TriggerManual  = "manual"
	TriggerAdvance = "advance"
)

// PlayEvent records one issued playback plan.
type PlayEvent struct {
	ID                  uint   `gorm:"primaryKey"`
	URL                 string `gorm:"size:500;not null"`
	Platform            string `gorm:"size:20;index"`
	StartOffsetSeconds  int    `gorm:"default:0"`
	PlayDurationSeconds int    `gorm:"default:0"`
	Trigger             string `gorm:"size:10"`
	SubmittedBy         string `gorm:"size:120"`
	CreatedAt           time.Time
}

// TableName returns the table name for PlayEvent
func (PlayEvent) TableName() string {
	return "play_events"
}

// Submission outcomes recorded with each SubmissionRecord.
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
)

// SubmissionRecord records one viewer submission attempt, accepted or not.
type SubmissionRecord struct {
	ID          uint   `gorm:"primaryKey"`
	URL         string `gorm:"size:500;not null"`
	DisplayName string `gorm:"size:120"`
	Title       string `gorm:"size:200"`
	Result      string `gorm:"size:10;index"`
	CreatedAt   time.Time
}

// TableName returns the table name for SubmissionRecord
func (SubmissionRecord) TableName() string {
	return "submission_records"
}
