package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadscout_backend/internal/auth/repository"
	"leadscout_backend/internal/auth/transport"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string         { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }

type memRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]repository.User
	tokens map[string]repository.RefreshToken
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:  make(map[uuid.UUID]repository.User),
		tokens: make(map[string]repository.RefreshToken),
	}
}

func (r *memRepo) CreateUser(_ context.Context, email, passwordHash string) (repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return repository.User{}, apperr.Conflict("email already registered")
		}
	}
	roles := []string{repository.RoleUser}
	if len(r.users) == 0 {
		roles = []string{repository.RoleAdmin, repository.RoleUser}
	}
	u := repository.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, Roles: roles, CreatedAt: time.Now()}
	r.users[u.ID] = u
	return u, nil
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (r *memRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (r *memRepo) ListUsers(context.Context) ([]repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memRepo) CreateRefreshToken(_ context.Context, userID uuid.UUID, hash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[hash] = repository.RefreshToken{UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (r *memRepo) GetRefreshToken(_ context.Context, hash string) (repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.tokens[hash]
	if !ok {
		return repository.RefreshToken{}, apperr.NotFound("refresh token not found")
	}
	return tok, nil
}

func (r *memRepo) RevokeRefreshToken(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.tokens[hash]; ok && tok.RevokedAt == nil {
		now := time.Now()
		tok.RevokedAt = &now
		r.tokens[hash] = tok
	}
	return nil
}

func (r *memRepo) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for hash, tok := range r.tokens {
		if tok.UserID == userID && tok.RevokedAt == nil {
			tok.RevokedAt = &now
			r.tokens[hash] = tok
		}
	}
	return nil
}

func newService(now func() time.Time) (*Service, *memRepo) {
	repo := newMemRepo()
	return New(repo, testConfig{}, logger.Nop(), WithClock(now)), repo
}

func TestSignUpFirstUserIsAdmin(t *testing.T) {
	svc, _ := newService(time.Now)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, transport.SignUpRequest{Email: " Owner@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", first.Email)
	assert.Contains(t, first.Roles, repository.RoleAdmin)

	second, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "analyst@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, []string{repository.RoleUser}, second.Roles)

	_, err = svc.SignUp(ctx, transport.SignUpRequest{Email: "OWNER@example.com", Password: "password123"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestSignInIssuesAccessToken(t *testing.T) {
	svc, _ := newService(time.Now)
	ctx := context.Background()

	profile, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)

	tokens, err := svc.SignIn(ctx, transport.SignInRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.RefreshToken)

	parsed, err := jwt.Parse(tokens.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, profile.ID, claims["sub"])
	assert.Equal(t, "access", claims["type"])
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc, _ := newService(time.Now)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, transport.SignInRequest{Email: "owner@example.com", Password: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.SignIn(ctx, transport.SignInRequest{Email: "ghost@example.com", Password: "password123"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newService(time.Now)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)
	first, err := svc.SignIn(ctx, transport.SignInRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-out token is dead and replaying it kills the new one too.
	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestRefreshExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newService(func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)
	tokens, err := svc.SignIn(ctx, transport.SignInRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestSignOutRevokes(t *testing.T) {
	svc, _ := newService(time.Now)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)
	tokens, err := svc.SignIn(ctx, transport.SignInRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, tokens.RefreshToken))
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	assert.NoError(t, svc.SignOut(ctx, ""))
}

func TestGetMe(t *testing.T) {
	svc, _ := newService(time.Now)
	ctx := context.Background()

	profile, err := svc.SignUp(ctx, transport.SignUpRequest{Email: "owner@example.com", Password: "password123"})
	require.NoError(t, err)

	me, err := svc.GetMe(ctx, uuid.MustParse(profile.ID))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", me.Email)

	_, err = svc.GetMe(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
