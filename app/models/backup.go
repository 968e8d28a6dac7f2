package models

import "time"

const (
	KindFull        = "Full"
	KindIncremental = "Incremental"
)

// BackupDefinition describes what to back up, where, and on what cadence.
// It owns no execution state; that lives in the JobRecord.
type BackupDefinition struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex;size:191;not null"`
	SourcePath   string `gorm:"size:512;not null"`
	Destination  string `gorm:"size:512;not null"` // destination connection string
	TimeOfDay    string `gorm:"size:8;not null"`   // HH:MM, 24-hour clock
	Interval     string `gorm:"size:64;not null"`  // label resolved via the interval catalog
	Kind         string `gorm:"size:32;not null"`
	User         string `gorm:"size:191"` // credentials used by the backup action
	PasswordHash string `gorm:"size:255"`
	Enabled      bool   `gorm:"not null;default:true"`
	Owner        string `gorm:"size:191;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
