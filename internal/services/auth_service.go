package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/repositories"
	"github.com/anonto42/litreview/pkg/apperror"
	"github.com/anonto42/litreview/pkg/config"
)

const badCredentials = "Please enter a correct username and password."

// AuthService registers users, checks credentials and issues session tokens.
type AuthService struct {
	users    repositories.UserRepository
	cfg      config.AuthConfig
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(users repositories.UserRepository, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:    users,
		cfg:      cfg,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account from the sign-up form.
func (s *AuthService) Register(ctx context.Context, form models.RegistrationForm) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByUsername(ctx, form.Username); err == nil {
		return nil, apperror.NewConflict("A user with that username already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NewInternalError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperror.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{Username: form.Username, Password: string(hashed)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewConflict("A user with that username already exists.")
		}
		return nil, apperror.NewInternalError(err)
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate checks a username/password pair.
func (s *AuthService) Authenticate(ctx context.Context, form models.LoginForm) (*models.User, error) {
	if err := validateForm(s.validate, form); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(form.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewUnauthorized(badCredentials)
		}
		return nil, apperror.NewInternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		return nil, apperror.NewUnauthorized(badCredentials)
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := &models.SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.NewUnauthorized("Your session has expired, please log in again.")
	}
	return claims, nil
}

// SessionTTL is the lifetime of issued tokens.
func (s *AuthService) SessionTTL() time.Duration {
	return s.cfg.SessionTTL()
}
