package services

import (
	"errors"
	"fmt"

	"backupd/app/apperr"
	"backupd/app/models"
	"backupd/app/repo"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService is the access gate: it issues opaque bearer tokens at
// login and resolves them on every job-management call. Token validity
// is "row exists"; no expiry is enforced.
type AuthService struct {
	tokens  *repo.TokenRepository
	users   *repo.UserRepository
	userSvc *UserService
}

func NewAuthService(tokens *repo.TokenRepository, users *repo.UserRepository, userSvc *UserService) *AuthService {
	return &AuthService{tokens: tokens, users: users, userSvc: userSvc}
}

// Login validates credentials and issues a fresh token.
func (s *AuthService) Login(username, password string) (string, error) {
	u, err := s.userSvc.ValidateCredentials(username, password)
	if err != nil {
		return "", apperr.ErrUnauthorized
	}
	token := uuid.NewString()
	if err := s.tokens.Create(&models.AccessToken{Value: token, Username: u.Username}); err != nil {
		return "", apperr.Persistence("issue token", err)
	}
	return token, nil
}

// Authorize resolves a bearer token to its owning username. Pure lookup;
// nothing is mutated.
func (s *AuthService) Authorize(token string) (string, error) {
	if token == "" {
		return "", apperr.ErrUnauthorized
	}
	t, err := s.tokens.FindByValue(token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.ErrUnauthorized
	}
	if err != nil {
		return "", apperr.Persistence("token lookup", err)
	}
	return t.Username, nil
}

// AuthorizeAdmin additionally requires the token owner's role to be admin.
func (s *AuthService) AuthorizeAdmin(token string) (string, error) {
	username, err := s.Authorize(token)
	if err != nil {
		return "", err
	}
	u, err := s.users.FindByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.ErrForbidden
	}
	if err != nil {
		return "", apperr.Persistence("user lookup", err)
	}
	if u.Role != "admin" {
		return "", fmt.Errorf("user %q: %w", username, apperr.ErrForbidden)
	}
	return username, nil
}
