package service

import (
	"context"
	"strings"
	"time"

	"leadscout_backend/internal/auth/password"
	"leadscout_backend/internal/auth/repository"
	"leadscout_backend/internal/auth/token"
	"leadscout_backend/internal/auth/transport"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgTokenInvalid       = "refresh token invalid"
	msgTokenExpired       = "refresh token expired"

	refreshTokenBytes = 48
)

type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SignUp(ctx context.Context, req transport.SignUpRequest) (transport.ProfileResponse, error) {
	email := normalizeEmail(req.Email)

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	user, err := s.repo.CreateUser(ctx, email, hash)
	if err != nil {
		s.log.AuthEvent("sign_up", email, false, err.Error())
		return transport.ProfileResponse{}, err
	}

	s.log.AuthEvent("sign_up", email, true, "")
	return toProfile(user), nil
}

func (s *Service) SignIn(ctx context.Context, req transport.SignInRequest) (transport.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.AuthEvent("sign_in", email, false, "unknown email")
			return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return transport.AuthResponse{}, err
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("sign_in", email, false, "password mismatch")
		return transport.AuthResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	s.log.AuthEvent("sign_in", email, true, "")
	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (transport.AuthResponse, error) {
	if refreshToken == "" {
		return transport.AuthResponse{}, apperr.Unauthorized(msgTokenInvalid)
	}

	hash := token.HashSHA256(refreshToken)
	stored, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.AuthResponse{}, apperr.Unauthorized(msgTokenInvalid)
		}
		return transport.AuthResponse{}, err
	}

	if stored.RevokedAt != nil {
		// A revoked token being replayed means the chain leaked.
		_ = s.repo.RevokeAllRefreshTokens(ctx, stored.UserID)
		s.log.AuthEvent("refresh", stored.UserID.String(), false, "revoked token reused")
		return transport.AuthResponse{}, apperr.Unauthorized(msgTokenInvalid)
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return transport.AuthResponse{}, err
	}

	if s.now().After(stored.ExpiresAt) {
		return transport.AuthResponse{}, apperr.Unauthorized(msgTokenExpired)
	}

	user, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return transport.AuthResponse{}, err
	}
	return s.issueTokens(ctx, user)
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(refreshToken))
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return toProfile(user), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]transport.ProfileResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]transport.ProfileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toProfile(u))
	}
	return out, nil
}

// RefreshTTL is the lifetime of issued refresh tokens.
func (s *Service) RefreshTTL() time.Duration {
	return s.cfg.GetRefreshTokenTTL()
}

func (s *Service) issueTokens(ctx context.Context, user repository.User) (transport.AuthResponse, error) {
	now := s.now()
	ttl := s.cfg.GetAccessTokenTTL()

	access, err := token.SignAccess(s.cfg.GetJWTAccessSecret(), user.ID, user.Roles, now, ttl)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	refresh, err := token.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return transport.AuthResponse{}, err
	}

	expiresAt := now.Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, user.ID, token.HashSHA256(refresh), expiresAt); err != nil {
		return transport.AuthResponse{}, err
	}

	return transport.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(ttl),
	}, nil
}

func toProfile(u repository.User) transport.ProfileResponse {
	return transport.ProfileResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
