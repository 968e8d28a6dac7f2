package repo

import (
	"backupd/app/models"

	"gorm.io/gorm"
)

type BackupRepository struct{ db *gorm.DB }

func NewBackupRepository(db *gorm.DB) *BackupRepository { return &BackupRepository{db: db} }

// WithTx returns a repository bound to the given transaction handle so a
// service can group definition and ledger writes atomically.
func (r *BackupRepository) WithTx(tx *gorm.DB) *BackupRepository { return &BackupRepository{db: tx} }

func (r *BackupRepository) Create(b *models.BackupDefinition) error { return r.db.Create(b).Error }

func (r *BackupRepository) FindByName(name string) (*models.BackupDefinition, error) {
	var b models.BackupDefinition
	if err := r.db.Where("name = ?", name).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BackupRepository) CountByName(name string) (int64, error) {
	var count int64
	return count, r.db.Model(&models.BackupDefinition{}).Where("name = ?", name).Count(&count).Error
}

func (r *BackupRepository) List() ([]models.BackupDefinition, error) {
	var out []models.BackupDefinition
	if err := r.db.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BackupRepository) Save(b *models.BackupDefinition) error { return r.db.Save(b).Error }

func (r *BackupRepository) DeleteByID(id uint) error {
	return r.db.Delete(&models.BackupDefinition{}, id).Error
}
