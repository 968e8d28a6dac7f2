package models

// Interval maps a human cadence label to a period in seconds. Reference
// data seeded once at startup, never user-editable.
type Interval struct {
	ID      uint   `gorm:"primaryKey"`
	Label   string `gorm:"uniqueIndex;size:64;not null"`
	Seconds int64  `gorm:"not null"`
}
