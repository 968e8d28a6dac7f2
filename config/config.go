package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host string
	Port int
}

type DB struct {
	Driver string // "sqlite" or "mysql"
	Path   string // sqlite file path
	Host   string
	Port   int
	User   string
	Pass   string
	Name   string
}

type Scheduler struct {
	Workers  int // upper bound on concurrent fires across definitions
	MaxSkips int // skipped-overlap count before the engine starts warning
}

type Admin struct {
	Username string
	Password string
}

type Config struct {
	HTTP      HTTP
	DB        DB
	Scheduler Scheduler
	Admin     Admin
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 9300)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "base.db")
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "root")
	v.SetDefault("db.pass", "")
	v.SetDefault("db.name", "backupd")
	v.SetDefault("scheduler.workers", 20)
	v.SetDefault("scheduler.max_skips", 3)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{
		HTTP: HTTP{Host: v.GetString("server.host"), Port: v.GetInt("server.port")},
		DB: DB{
			Driver: v.GetString("db.driver"),
			Path:   v.GetString("db.path"),
			Host:   v.GetString("db.host"),
			Port:   v.GetInt("db.port"),
			User:   v.GetString("db.user"),
			Pass:   v.GetString("db.pass"),
			Name:   v.GetString("db.name"),
		},
		Scheduler: Scheduler{
			Workers:  v.GetInt("scheduler.workers"),
			MaxSkips: v.GetInt("scheduler.max_skips"),
		},
		Admin: Admin{Username: v.GetString("admin.username"), Password: v.GetString("admin.password")},
	}
	if cfg.Scheduler.Workers <= 0 {
		cfg.Scheduler.Workers = 20
	}
	if cfg.Scheduler.MaxSkips <= 0 {
		cfg.Scheduler.MaxSkips = 3
	}
	return cfg, nil
}
