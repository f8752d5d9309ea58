package services

import (
	"errors"

	"transport-ops-backend/internal/models"
	"transport-ops-backend/internal/repository"
	"transport-ops-backend/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
)

// UserAccounts is the user lookup auth needs.
type UserAccounts interface {
	FindByEmail(email string) (*models.User, error)
}

type AuthService struct {
	users  UserAccounts
	tokens *jwt.JWTUtil
}

func NewAuthService(users UserAccounts, tokens *jwt.JWTUtil) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login verifies credentials and issues a signed token. Unknown email and
// wrong password return the same error.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token: token,
		User:  user,
	}, nil
}
