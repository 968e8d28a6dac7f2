package models

import "time"

const (
	JobStatusPending = "pending"
	JobStatusSuccess = "success"
	JobStatusFailure = "failure"
)

// JobRecord tracks the live schedule state of one definition: created at
// definition-creation time and updated in place on every fire. History is
// the last run plus the append-only Log field. BackupID carries no
// database-level foreign key: ledger rows outlive deleted definitions.
type JobRecord struct {
	ID         uint      `gorm:"primaryKey"`
	BackupID   uint      `gorm:"uniqueIndex;not null"`
	Log        string    `gorm:"type:text"`
	NextDue    time.Time `gorm:"index;not null"`
	LastRun    time.Time
	IntervalID uint   `gorm:"not null"`
	Status     string `gorm:"size:32;not null"`
	LogFile    string `gorm:"size:512"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
