package controllers

import (
	"encoding/json"
	"net/http"

	"backupd/app/dto"
	"backupd/app/services"
)

type AuthController struct {
	Gate *services.AuthService
}

func NewAuthController(gate *services.AuthService) *AuthController {
	return &AuthController{Gate: gate}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "missing credentials")
		return
	}
	token, err := c.Gate.Login(req.Username, req.Password)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token})
}
