package controllers

import (
	"net/http"

	"backupd/app/dto"
	"backupd/app/services"
)

type IntervalController struct {
	Intervals *services.IntervalService
}

func NewIntervalController(intervals *services.IntervalService) *IntervalController {
	return &IntervalController{Intervals: intervals}
}

func (c *IntervalController) List(w http.ResponseWriter, r *http.Request) {
	ivs, err := c.Intervals.List()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]dto.IntervalResponse, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, dto.IntervalResponse{Label: iv.Label, Seconds: iv.Seconds})
	}
	writeJSON(w, http.StatusOK, out)
}
