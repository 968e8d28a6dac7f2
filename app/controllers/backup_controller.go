package controllers

import (
	"encoding/json"
	"net/http"

	"backupd/app/dto"
	"backupd/app/middleware"
	"backupd/app/models"
	"backupd/app/services"
)

type BackupController struct {
	Backups *services.BackupService
}

func NewBackupController(backups *services.BackupService) *BackupController {
	return &BackupController{Backups: backups}
}

func toBackupResponse(def *models.BackupDefinition) dto.BackupResponse {
	return dto.BackupResponse{
		Name:        def.Name,
		SourcePath:  def.SourcePath,
		Destination: def.Destination,
		TimeOfDay:   def.TimeOfDay,
		Interval:    def.Interval,
		Kind:        def.Kind,
		User:        def.User,
		Enabled:     def.Enabled,
		Owner:       def.Owner,
		CreatedAt:   def.CreatedAt,
	}
}

func (c *BackupController) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	def, err := c.Backups.Create(middleware.BearerToken(r), services.CreateBackupInput{
		Name:        req.Name,
		SourcePath:  req.SourcePath,
		Destination: req.Destination,
		TimeOfDay:   req.TimeOfDay,
		Interval:    req.Interval,
		Kind:        req.Kind,
		User:        req.User,
		Password:    req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBackupResponse(def))
}

func (c *BackupController) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "missing backup name")
		return
	}
	def, err := c.Backups.Update(middleware.BearerToken(r), req.Name, services.UpdateBackupInput{
		SourcePath:  req.SourcePath,
		Destination: req.Destination,
		TimeOfDay:   req.TimeOfDay,
		Interval:    req.Interval,
		Kind:        req.Kind,
		User:        req.User,
		Password:    req.Password,
		Enabled:     req.Enabled,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBackupResponse(def))
}

func (c *BackupController) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "missing backup name")
		return
	}
	def, err := c.Backups.Delete(middleware.BearerToken(r), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBackupResponse(def))
}

func (c *BackupController) List(w http.ResponseWriter, r *http.Request) {
	defs, err := c.Backups.List(middleware.BearerToken(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]dto.BackupResponse, 0, len(defs))
	for i := range defs {
		out = append(out, toBackupResponse(&defs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *BackupController) Get(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "missing backup name")
		return
	}
	def, err := c.Backups.Get(middleware.BearerToken(r), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBackupResponse(def))
}

func (c *BackupController) JobStatus(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "missing backup name")
		return
	}
	job, err := c.Backups.JobStatus(middleware.BearerToken(r), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.JobResponse{
		Backup:  name,
		Status:  job.Status,
		NextDue: job.NextDue,
		LastRun: job.LastRun,
		Log:     job.Log,
		LogFile: job.LogFile,
	})
}
