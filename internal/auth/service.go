// Package auth registers users, issues tokens and resolves bearer tokens to users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/config"
	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	TokenType         = "bearer"
)

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionStore keeps refresh tokens. ConsumeSession must be atomic and report
// unknown tokens as errs.ErrNotFound.
type SessionStore interface {
	SetSession(ctx context.Context, token string, userID int64, ttl time.Duration) error
	ConsumeSession(ctx context.Context, token string) (int64, error)
	DeleteSession(ctx context.Context, token string) error
}

type Service struct {
	users      UserStore
	sessions   SessionStore
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates the auth service. sessions may be nil, in which case no
// refresh tokens are issued. An empty signing secret is rejected.
func NewService(users UserStore, sessions SessionStore, cfg config.AuthConfig) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("auth secret must not be empty: %w", errs.ErrInvalidArgument)
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}, nil
}

// Signup registers a new account
func (s *Service) Signup(ctx context.Context, email, username, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("a valid email is required: %w", errs.ErrInvalidArgument)
	}
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", errs.ErrInvalidArgument)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, errs.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Login exchanges credentials for tokens. Unknown emails and wrong passwords
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("incorrect email or password: %w", errs.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("incorrect email or password: %w", errs.ErrUnauthorized)
	}

	return s.issue(ctx, u.ID)
}

// Refresh rotates a refresh token into a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if s.sessions == nil || refreshToken == "" {
		return nil, fmt.Errorf("invalid refresh token: %w", errs.ErrUnauthorized)
	}

	userID, err := s.sessions.ConsumeSession(ctx, refreshToken)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("invalid refresh token: %w", errs.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	// the account may have been removed since the token was issued
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("invalid refresh token: %w", errs.ErrUnauthorized)
		}
		return nil, err
	}

	return s.issue(ctx, userID)
}

// Logout revokes a refresh token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if s.sessions == nil || refreshToken == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, refreshToken)
}

// Me returns the account behind userID
func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// Authenticate validates an access token and returns its user ID
func (s *Service) Authenticate(accessToken string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(s.secret) == 0 {
			return nil, errors.New("signing secret is not configured")
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", errs.ErrUnauthorized)
	}
	return userID, nil
}

func (s *Service) issue(ctx context.Context, userID int64) (*models.TokenPair, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	pair := &models.TokenPair{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}

	if s.sessions != nil {
		refresh := uuid.NewString()
		if err := s.sessions.SetSession(ctx, refresh, userID, s.refreshTTL); err != nil {
			return nil, err
		}
		pair.RefreshToken = refresh
	}
	return pair, nil
}
