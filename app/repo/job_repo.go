package repo

import (
	"time"

	"backupd/app/models"

	"gorm.io/gorm"
)

type JobRepository struct{ db *gorm.DB }

func NewJobRepository(db *gorm.DB) *JobRepository { return &JobRepository{db: db} }

func (r *JobRepository) WithTx(tx *gorm.DB) *JobRepository { return &JobRepository{db: tx} }

func (r *JobRepository) Create(j *models.JobRecord) error { return r.db.Create(j).Error }

func (r *JobRepository) FindByBackupID(backupID uint) (*models.JobRecord, error) {
	var j models.JobRecord
	if err := r.db.Where("backup_id = ?", backupID).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// UpdateOnFire records the outcome of one fire: status, last run, the
// advanced next-due time, and an appended log line. Read-modify-write in
// one transaction so a concurrent read never sees a half-updated row.
func (r *JobRepository) UpdateOnFire(jobID uint, status string, lastRun, nextDue time.Time, logLine string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var j models.JobRecord
		if err := tx.First(&j, jobID).Error; err != nil {
			return err
		}
		j.Status = status
		j.LastRun = lastRun
		j.NextDue = nextDue
		if logLine != "" {
			j.Log += logLine + "\n"
		}
		return tx.Save(&j).Error
	})
}

func (r *JobRepository) UpdateSchedule(jobID uint, nextDue time.Time, intervalID uint) error {
	return r.db.Model(&models.JobRecord{}).Where("id = ?", jobID).
		Updates(map[string]any{"next_due": nextDue, "interval_id": intervalID}).Error
}
