package services

import (
	"errors"
	"time"

	"backupd/app/apperr"
	"backupd/app/models"
	"backupd/app/repo"

	"gorm.io/gorm"
)

// Reference cadence table. Seeded idempotently at startup; an already
// populated catalog is reconciled, not rejected.
var catalog = []models.Interval{
	{Label: "Daily", Seconds: 86400},
	{Label: "Weekly", Seconds: 604800},
	{Label: "Monthly", Seconds: 2592000},
	{Label: "5-Days", Seconds: 432000},
	{Label: "10-Days", Seconds: 864000},
	{Label: "15-Days", Seconds: 1296000},
}

type IntervalService struct{ intervals *repo.IntervalRepository }

func NewIntervalService(intervals *repo.IntervalRepository) *IntervalService {
	return &IntervalService{intervals: intervals}
}

// Ensure inserts catalog entries that are missing from the store.
func (s *IntervalService) Ensure() error {
	for _, iv := range catalog {
		count, err := s.intervals.CountByLabel(iv.Label)
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		entry := iv
		if err := s.intervals.Create(&entry); err != nil {
			return err
		}
	}
	return nil
}

// Resolve maps a cadence label to its period.
func (s *IntervalService) Resolve(label string) (*models.Interval, time.Duration, error) {
	iv, err := s.intervals.FindByLabel(label)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, apperr.ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return iv, time.Duration(iv.Seconds) * time.Second, nil
}

func (s *IntervalService) List() ([]models.Interval, error) {
	return s.intervals.List()
}
