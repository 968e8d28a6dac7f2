package models

import "time"

// AccessToken is an opaque bearer token issued at login. Validity is
// "row exists"; tokens are looked up on every authorized call and never
// mutated after creation.
type AccessToken struct {
	ID        uint   `gorm:"primaryKey"`
	Value     string `gorm:"uniqueIndex;size:191;not null"`
	Username  string `gorm:"size:191;index;not null"`
	CreatedAt time.Time
}
