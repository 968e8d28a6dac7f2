package repo

import (
	"backupd/app/models"

	"gorm.io/gorm"
)

type TokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) *TokenRepository { return &TokenRepository{db: db} }

func (r *TokenRepository) Create(t *models.AccessToken) error { return r.db.Create(t).Error }

func (r *TokenRepository) FindByValue(value string) (*models.AccessToken, error) {
	var t models.AccessToken
	if err := r.db.Where("value = ?", value).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
