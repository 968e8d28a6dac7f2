package services

import (
	"errors"
	"time"

	"backupd/app/apperr"
	"backupd/app/models"
	"backupd/app/repo"
	"backupd/app/schedule"
	"backupd/app/scheduler"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateBackupInput struct {
	Name        string
	SourcePath  string
	Destination string
	TimeOfDay   string
	Interval    string
	Kind        string
	User        string
	Password    string
}

// UpdateBackupInput carries optional field changes; nil means "keep".
type UpdateBackupInput struct {
	SourcePath  *string
	Destination *string
	TimeOfDay   *string
	Interval    *string
	Kind        *string
	User        *string
	Password    *string
	Enabled     *bool
}

// BackupService owns backup definitions and their job ledger rows, and
// keeps the scheduler engine's trigger registry in step with both.
// Every operation authorizes its token before touching any state.
type BackupService struct {
	db        *gorm.DB
	backups   *repo.BackupRepository
	jobs      *repo.JobRepository
	intervals *IntervalService
	auth      *AuthService
	engine    *scheduler.Engine
	log       zerolog.Logger
	now       func() time.Time
}

func NewBackupService(db *gorm.DB, backups *repo.BackupRepository, jobs *repo.JobRepository, intervals *IntervalService, auth *AuthService, engine *scheduler.Engine, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:        db,
		backups:   backups,
		jobs:      jobs,
		intervals: intervals,
		auth:      auth,
		engine:    engine,
		log:       log,
		now:       time.Now,
	}
}

// SetClock overrides the service's time source.
func (s *BackupService) SetClock(now func() time.Time) { s.now = now }

// Create validates and persists a new definition, creates its ledger row
// and registers its trigger. All three happen or none do.
func (s *BackupService) Create(token string, in CreateBackupInput) (*models.BackupDefinition, error) {
	username, err := s.auth.Authorize(token)
	if err != nil {
		return nil, err
	}

	ve := &apperr.ValidationError{}
	if in.Name == "" {
		ve.Addf("name is required")
	} else if count, cerr := s.backups.CountByName(in.Name); cerr != nil {
		return nil, apperr.Persistence("check name", cerr)
	} else if count > 0 {
		ve.Addf("backup %q already exists", in.Name)
	}
	if in.SourcePath == "" {
		ve.Addf("source path is required")
	}
	if in.Kind != models.KindFull && in.Kind != models.KindIncremental {
		ve.Addf("kind must be %q or %q", models.KindFull, models.KindIncremental)
	}
	if _, _, perr := schedule.ParseTimeOfDay(in.TimeOfDay); perr != nil {
		ve.Add(perr)
	}
	iv, interval, rerr := s.intervals.Resolve(in.Interval)
	if errors.Is(rerr, apperr.ErrNotFound) {
		ve.Addf("unknown interval %q", in.Interval)
	} else if rerr != nil {
		return nil, apperr.Persistence("resolve interval", rerr)
	}
	if ve.HasError() {
		return nil, ve
	}

	now := s.now().UTC()
	firstDue, err := schedule.FirstDue(now, in.TimeOfDay)
	if err != nil {
		return nil, err
	}

	def := models.BackupDefinition{
		Name:        in.Name,
		SourcePath:  in.SourcePath,
		Destination: in.Destination,
		TimeOfDay:   in.TimeOfDay,
		Interval:    in.Interval,
		Kind:        in.Kind,
		User:        in.User,
		Enabled:     true,
		Owner:       username,
	}
	if in.Password != "" {
		hash, herr := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if herr != nil {
			return nil, herr
		}
		def.PasswordHash = string(hash)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if terr := s.backups.WithTx(tx).Create(&def); terr != nil {
			return apperr.Persistence("create definition", terr)
		}
		job := models.JobRecord{
			BackupID:   def.ID,
			NextDue:    firstDue,
			LastRun:    schedule.SeedLastRun(now),
			IntervalID: iv.ID,
			Status:     models.JobStatusPending,
		}
		if terr := s.jobs.WithTx(tx).Create(&job); terr != nil {
			return apperr.Persistence("create job record", terr)
		}
		// Registering inside the transaction lets a duplicate-trigger
		// error roll back both rows.
		return s.engine.Register(def, job.ID, firstDue, interval)
	})
	if err != nil {
		// Commit may fail after a successful registration; make sure no
		// trigger outlives rolled-back rows.
		s.engine.Deregister(def.ID)
		return nil, err
	}

	s.log.Info().Str("backup", def.Name).Str("owner", username).Time("first_due", firstDue).Msg("backup definition created")
	return &def, nil
}

// Update mutates a definition. Cadence or enablement changes re-derive
// the schedule and re-register the trigger.
func (s *BackupService) Update(token, name string, in UpdateBackupInput) (*models.BackupDefinition, error) {
	_, err := s.auth.Authorize(token)
	if err != nil {
		return nil, err
	}
	def, err := s.backups.FindByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("find definition", err)
	}

	ve := &apperr.ValidationError{}
	cadenceChanged := false
	if in.TimeOfDay != nil && *in.TimeOfDay != def.TimeOfDay {
		if _, _, perr := schedule.ParseTimeOfDay(*in.TimeOfDay); perr != nil {
			ve.Add(perr)
		}
		def.TimeOfDay = *in.TimeOfDay
		cadenceChanged = true
	}
	if in.Interval != nil && *in.Interval != def.Interval {
		def.Interval = *in.Interval
		cadenceChanged = true
	}
	iv, interval, rerr := s.intervals.Resolve(def.Interval)
	if errors.Is(rerr, apperr.ErrNotFound) {
		ve.Addf("unknown interval %q", def.Interval)
	} else if rerr != nil {
		return nil, apperr.Persistence("resolve interval", rerr)
	}
	if in.Kind != nil {
		if *in.Kind != models.KindFull && *in.Kind != models.KindIncremental {
			ve.Addf("kind must be %q or %q", models.KindFull, models.KindIncremental)
		}
		def.Kind = *in.Kind
	}
	if ve.HasError() {
		return nil, ve
	}

	if in.SourcePath != nil {
		def.SourcePath = *in.SourcePath
	}
	if in.Destination != nil {
		def.Destination = *in.Destination
	}
	if in.User != nil {
		def.User = *in.User
	}
	if in.Password != nil && *in.Password != "" {
		hash, herr := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if herr != nil {
			return nil, herr
		}
		def.PasswordHash = string(hash)
	}
	wasEnabled := def.Enabled
	if in.Enabled != nil {
		def.Enabled = *in.Enabled
	}

	job, err := s.jobs.FindByBackupID(def.ID)
	if err != nil {
		return nil, apperr.Persistence("find job record", err)
	}

	now := s.now().UTC()
	reschedule := def.Enabled && (cadenceChanged || !wasEnabled)
	var nextDue time.Time
	if reschedule {
		nextDue, err = schedule.FirstDue(now, def.TimeOfDay)
		if err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if terr := s.backups.WithTx(tx).Save(def); terr != nil {
			return apperr.Persistence("save definition", terr)
		}
		if reschedule {
			if terr := s.jobs.WithTx(tx).UpdateSchedule(job.ID, nextDue, iv.ID); terr != nil {
				return apperr.Persistence("update schedule", terr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Row writes are committed; bring the live trigger in line.
	if !def.Enabled {
		s.engine.Deregister(def.ID)
	} else if reschedule {
		s.engine.Deregister(def.ID)
		if rerr := s.engine.Register(*def, job.ID, nextDue, interval); rerr != nil {
			// An enabled definition always has a live trigger. With
			// registration failed, persist it disabled rather than let it
			// sit dormant until the next restart.
			def.Enabled = false
			if serr := s.backups.Save(def); serr != nil {
				s.log.Error().Err(serr).Str("backup", def.Name).Msg("disable after failed trigger registration")
			}
			return nil, rerr
		}
		s.log.Info().Str("backup", def.Name).Time("next_due", nextDue).Msg("trigger rescheduled")
	}
	return def, nil
}

// Delete requires admin, cancels the trigger and removes the definition.
// The ledger row is kept as history.
func (s *BackupService) Delete(token, name string) (*models.BackupDefinition, error) {
	_, err := s.auth.AuthorizeAdmin(token)
	if err != nil {
		return nil, err
	}
	def, err := s.backups.FindByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("find definition", err)
	}

	hadTrigger := s.engine.Deregister(def.ID)
	if derr := s.backups.DeleteByID(def.ID); derr != nil {
		// Row survived; restore the trigger so the definition keeps its
		// schedule instead of silently going dormant.
		if hadTrigger {
			if job, jerr := s.jobs.FindByBackupID(def.ID); jerr == nil {
				if _, interval, rerr := s.intervals.Resolve(def.Interval); rerr == nil {
					next := schedule.NextDue(job.NextDue.Add(-interval), interval, s.now())
					_ = s.engine.Register(*def, job.ID, next, interval)
				}
			}
		}
		return nil, apperr.Persistence("delete definition", derr)
	}
	s.log.Info().Str("backup", def.Name).Msg("backup definition deleted")
	return def, nil
}

func (s *BackupService) List(token string) ([]models.BackupDefinition, error) {
	if _, err := s.auth.Authorize(token); err != nil {
		return nil, err
	}
	defs, err := s.backups.List()
	if err != nil {
		return nil, apperr.Persistence("list definitions", err)
	}
	return defs, nil
}

func (s *BackupService) Get(token, name string) (*models.BackupDefinition, error) {
	if _, err := s.auth.Authorize(token); err != nil {
		return nil, err
	}
	def, err := s.backups.FindByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("find definition", err)
	}
	return def, nil
}

// JobStatus returns the live schedule state for a definition.
func (s *BackupService) JobStatus(token, name string) (*models.JobRecord, error) {
	if _, err := s.auth.Authorize(token); err != nil {
		return nil, err
	}
	def, err := s.backups.FindByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("find definition", err)
	}
	job, err := s.jobs.FindByBackupID(def.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("find job record", err)
	}
	return job, nil
}

// Restore re-registers the trigger for every enabled definition from its
// persisted ledger row, advancing next-due times that passed while the
// process was down. One definition's failure does not stop the rest.
func (s *BackupService) Restore() error {
	defs, err := s.backups.List()
	if err != nil {
		return apperr.Persistence("list definitions", err)
	}
	now := s.now().UTC()
	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		job, jerr := s.jobs.FindByBackupID(def.ID)
		if jerr != nil {
			s.log.Error().Err(jerr).Str("backup", def.Name).Msg("restore: job record missing")
			continue
		}
		_, interval, rerr := s.intervals.Resolve(def.Interval)
		if rerr != nil {
			s.log.Error().Err(rerr).Str("backup", def.Name).Msg("restore: interval unresolved")
			continue
		}
		nextDue := job.NextDue.UTC()
		if !nextDue.After(now) {
			nextDue = schedule.NextDue(nextDue, interval, now)
			if uerr := s.jobs.UpdateSchedule(job.ID, nextDue, job.IntervalID); uerr != nil {
				s.log.Error().Err(uerr).Str("backup", def.Name).Msg("restore: schedule update failed")
				continue
			}
		}
		if regerr := s.engine.Register(def, job.ID, nextDue, interval); regerr != nil {
			s.log.Error().Err(regerr).Str("backup", def.Name).Msg("restore: trigger registration failed")
			continue
		}
	}
	s.log.Info().Int("definitions", len(defs)).Msg("schedules restored")
	return nil
}
