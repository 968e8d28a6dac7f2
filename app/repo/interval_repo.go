package repo

import (
	"backupd/app/models"

	"gorm.io/gorm"
)

type IntervalRepository struct{ db *gorm.DB }

func NewIntervalRepository(db *gorm.DB) *IntervalRepository { return &IntervalRepository{db: db} }

func (r *IntervalRepository) Create(iv *models.Interval) error { return r.db.Create(iv).Error }

func (r *IntervalRepository) FindByLabel(label string) (*models.Interval, error) {
	var iv models.Interval
	if err := r.db.Where("label = ?", label).First(&iv).Error; err != nil {
		return nil, err
	}
	return &iv, nil
}

func (r *IntervalRepository) CountByLabel(label string) (int64, error) {
	var count int64
	return count, r.db.Model(&models.Interval{}).Where("label = ?", label).Count(&count).Error
}

func (r *IntervalRepository) List() ([]models.Interval, error) {
	var out []models.Interval
	if err := r.db.Order("seconds ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
