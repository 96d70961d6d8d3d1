package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pixelgram/internal/middleware"
	"pixelgram/internal/models"
	"pixelgram/internal/repository"
	"pixelgram/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 7 * 24 * time.Hour

var errJWTSecretMissing = errors.New("JWT secret not configured")

// AuthService registers accounts and issues access tokens.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtSecret  string
	bcryptCost int
}

// SignupInput is the input for creating an account.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Avatar   string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

// NewAuthService returns a new AuthService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: jwtSecret, bcryptCost: bcrypt.DefaultCost}
}

// Signup validates credentials, stores the account and returns a token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    strings.ToLower(in.Email),
		Password: string(hashed),
		Avatar:   strings.TrimSpace(in.Avatar),
	}
	// The unique indexes decide duplicates; Create reports them as Conflict.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login checks credentials and returns a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	if s.jwtSecret == "" {
		return nil, models.NewInternalError(errJWTSecretMissing)
	}
	token, err := middleware.IssueToken(s.jwtSecret, user.ID, TokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user.Summary()}, nil
}
