package dto

import "time"

type CreateBackupRequest struct {
	Name        string `json:"name"`
	SourcePath  string `json:"source_path"`
	Destination string `json:"destination"`
	TimeOfDay   string `json:"time_of_day"`
	Interval    string `json:"interval"`
	Kind        string `json:"kind"`
	User        string `json:"user"`
	Password    string `json:"password"`
}

type UpdateBackupRequest struct {
	Name        string  `json:"name"`
	SourcePath  *string `json:"source_path"`
	Destination *string `json:"destination"`
	TimeOfDay   *string `json:"time_of_day"`
	Interval    *string `json:"interval"`
	Kind        *string `json:"kind"`
	User        *string `json:"user"`
	Password    *string `json:"password"`
	Enabled     *bool   `json:"enabled"`
}

// BackupResponse never carries credential material.
type BackupResponse struct {
	Name        string    `json:"name"`
	SourcePath  string    `json:"source_path"`
	Destination string    `json:"destination"`
	TimeOfDay   string    `json:"time_of_day"`
	Interval    string    `json:"interval"`
	Kind        string    `json:"kind"`
	User        string    `json:"user"`
	Enabled     bool      `json:"enabled"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
}

type JobResponse struct {
	Backup  string    `json:"backup"`
	Status  string    `json:"status"`
	NextDue time.Time `json:"next_due"`
	LastRun time.Time `json:"last_run"`
	Log     string    `json:"log"`
	LogFile string    `json:"log_file,omitempty"`
}

type IntervalResponse struct {
	Label   string `json:"label"`
	Seconds int64  `json:"seconds"`
}
