package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskboard/taskboard-go/internal/config"
	"github.com/taskboard/taskboard-go/internal/crypto"
	"github.com/taskboard/taskboard-go/internal/model"
	"github.com/taskboard/taskboard-go/internal/repository"
)

// UserStore is the credential store the auth service depends on.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput is the payload of a login. The password is only compared, never validated.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

// AuthService handles authentication business logic.
type AuthService struct {
	users UserStore
	cfg   config.AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, cfg config.AuthConfig) *AuthService {
	return &AuthService{users: users, cfg: cfg}
}

// TokenConfig is the signing setup shared with the auth middleware.
func (s *AuthService) TokenConfig() crypto.TokenConfig {
	return crypto.TokenConfig{
		Algorithm:  s.cfg.JWTAlgorithm,
		Secret:     s.cfg.JWTSecret,
		Expiration: s.cfg.JWTExpiration,
	}
}

// Register creates a new account. The returned user still carries its
// password hash; callers must not expose it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if s.cfg.PasswordCost <= 0 {
		return nil, fmt.Errorf("%w: password hashing cost is not set", ErrConfiguration)
	}
	hash, err := crypto.HashPassword(in.Password, s.cfg.PasswordCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, in.Email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and mints a session token.
// Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (model.AuthResponse, error) {
	if err := validateInput(in); err != nil {
		return model.AuthResponse{}, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, fmt.Errorf("looking up user: %w", err)
	}
	if user.PasswordHash == "" {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	match, err := crypto.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("verifying password: %w", err)
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  user.Response(),
	}, nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	tc := s.TokenConfig()
	if tc.Algorithm == "" || tc.Secret == "" || tc.Expiration <= 0 {
		return "", fmt.Errorf("%w: token signing settings are incomplete", ErrConfiguration)
	}

	token, err := crypto.GenerateToken(user.ID, user.Email, tc)
	if err != nil {
		if errors.Is(err, crypto.ErrUnsupportedAlg) || errors.Is(err, crypto.ErrTokenNotConfigured) {
			return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// CurrentUser returns the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.UserResponse, error) {
	if userID == "" {
		return model.UserResponse{}, ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return user.Response(), nil
}
