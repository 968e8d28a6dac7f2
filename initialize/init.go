package initialize

import (
	"context"
	"fmt"
	"net/http"

	"backupd/app/controllers"
	"backupd/app/db"
	"backupd/app/middleware"
	"backupd/app/models"
	"backupd/app/repo"
	"backupd/app/scheduler"
	"backupd/app/services"
	"backupd/config"
	"backupd/global"
	"backupd/router"

	"gorm.io/gorm"
)

type App struct {
	Cfg     *config.Config
	DB      *gorm.DB
	Router  http.Handler
	Engine  *scheduler.Engine
	Backups *services.BackupService
	Gate    *services.AuthService
	Users   *services.UserService
}

func Build(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	global.Config = cfg

	gdb, err := db.Connect(db.Config{
		Driver: cfg.DB.Driver, Path: cfg.DB.Path,
		Host: cfg.DB.Host, Port: cfg.DB.Port,
		User: cfg.DB.User, Password: cfg.DB.Pass, DBName: cfg.DB.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	global.Mdb = gdb

	if err := gdb.AutoMigrate(&models.User{}, &models.AccessToken{}, &models.Interval{}, &models.BackupDefinition{}, &models.JobRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// Repositories
	userRepo := repo.NewUserRepository(gdb)
	tokenRepo := repo.NewTokenRepository(gdb)
	intervalRepo := repo.NewIntervalRepository(gdb)
	backupRepo := repo.NewBackupRepository(gdb)
	jobRepo := repo.NewJobRepository(gdb)

	// Services
	userSvc := services.NewUserService(userRepo)
	gate := services.NewAuthService(tokenRepo, userRepo, userSvc)
	intervalSvc := services.NewIntervalService(intervalRepo)

	// Seed reference data
	if err := intervalSvc.Ensure(); err != nil {
		return nil, fmt.Errorf("seed intervals: %w", err)
	}
	if err := userSvc.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	// Scheduler engine. The backup action stands in for the actual copy
	// or dump mechanics, which live outside this service.
	action := scheduler.ActionFunc(func(ctx context.Context, def models.BackupDefinition) (string, error) {
		global.Logger.Info().Str("backup", def.Name).Str("source", def.SourcePath).Str("kind", def.Kind).Msg("backup action invoked")
		return fmt.Sprintf("%s -> %s", def.SourcePath, def.Destination), nil
	})
	engine := scheduler.New(scheduler.Config{
		Workers:  cfg.Scheduler.Workers,
		MaxSkips: cfg.Scheduler.MaxSkips,
	}, action, jobRepo, global.Logger)

	backupSvc := services.NewBackupService(gdb, backupRepo, jobRepo, intervalSvc, gate, engine, global.Logger)
	if err := backupSvc.Restore(); err != nil {
		return nil, fmt.Errorf("restore schedules: %w", err)
	}

	// Controllers
	authCtrl := controllers.NewAuthController(gate)
	backupCtrl := controllers.NewBackupController(backupSvc)
	intervalCtrl := controllers.NewIntervalController(intervalSvc)
	mw := &middleware.Auth{Gate: gate}

	h := router.NewRouter(authCtrl, backupCtrl, intervalCtrl, mw)
	h = middleware.Logging(h)

	return &App{Cfg: cfg, DB: gdb, Router: h, Engine: engine, Backups: backupSvc, Gate: gate, Users: userSvc}, nil
}
