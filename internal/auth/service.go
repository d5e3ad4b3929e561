package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidUser        = errors.New("invalid registration")
)

type AuthService struct {
	users  UserRepository
	tokens *TokenService
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthConfig struct {
	JWTSecret       string        `json:"jwt_secret"`
	SessionDuration time.Duration `json:"session_duration"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func NewAuthService(users UserRepository, config AuthConfig) *AuthService {
	duration := config.SessionDuration
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &AuthService{
		users:  users,
		tokens: NewTokenService(config.JWTSecret, duration),
	}
}

// Register creates a regular user and signs them in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	user, err := s.CreateUser(ctx, req.Email, req.DisplayName, req.Password, false)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateUser stores a new user with a hashed password.
func (s *AuthService) CreateUser(ctx context.Context, email, displayName, password string, admin bool) (*models.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user, err := models.NewUser(email, displayName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	user.IsAdmin = admin

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ValidateToken verifies a session token. The admin flag comes from the
// token itself.
func (s *AuthService) ValidateToken(token string) (*TokenClaims, error) {
	return s.tokens.ValidateToken(token)
}

// CurrentUser loads the user a token was issued to.
func (s *AuthService) CurrentUser(ctx context.Context, claims *TokenClaims) (*models.User, error) {
	return s.users.GetByID(ctx, claims.UserID)
}

func (s *AuthService) issue(user *models.User) (*LoginResponse, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
	}, nil
}
