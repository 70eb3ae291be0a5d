package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/portfolio-service/internal/config"
	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/models"
)

// ---------------------------------------------------------------------------
// Mock stores
// ---------------------------------------------------------------------------

type mockUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[int64]*models.User)}
}

func (m *mockUserStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return fmt.Errorf("user %s: %w", u.Email, errs.ErrAlreadyExists)
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *mockUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]int64
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]int64)}
}

func (m *mockSessionStore) SetSession(_ context.Context, token string, userID int64, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = userID
	return nil
}

func (m *mockSessionStore) ConsumeSession(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions[token]
	if !ok {
		return 0, errs.ErrNotFound
	}
	delete(m.sessions, token)
	return id, nil
}

func (m *mockSessionStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

var testAuthConfig = config.AuthConfig{
	Secret:          "test-secret",
	AccessTokenTTL:  30 * time.Minute,
	RefreshTokenTTL: time.Hour,
}

func newTestService(t *testing.T) (*Service, *mockUserStore, *mockSessionStore) {
	t.Helper()
	users := newMockUserStore()
	sessions := newMockSessionStore()
	svc, err := NewService(users, sessions, testAuthConfig)
	require.NoError(t, err)
	return svc, users, sessions
}

// ---------------------------------------------------------------------------
// Signup / Login
// ---------------------------------------------------------------------------

func TestSignup_Success(t *testing.T) {
	svc, users, _ := newTestService(t)

	u, err := svc.Signup(context.Background(), " Ada@Example.com ", "ada", "correct horse")
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "correct horse", users.users[1].PasswordHash)
	assert.True(t, strings.HasPrefix(users.users[1].PasswordHash, "$2"))
}

func TestSignup_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		username string
		password string
	}{
		{"bad email", "not-an-email", "ada", "longenough"},
		{"missing username", "ada@example.com", " ", "longenough"},
		{"short password", "ada@example.com", "ada", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			_, err := svc.Signup(context.Background(), tt.email, tt.username, tt.password)
			assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
		})
	}
}

func TestSignup_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Signup(context.Background(), "ada@example.com", "ada", "longenough")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "ada@example.com", "ada2", "longenough")
	assert.True(t, errors.Is(err, errs.ErrAlreadyExists))
}

func TestLogin_IssuesTokens(t *testing.T) {
	svc, _, sessions := newTestService(t)
	_, err := svc.Signup(context.Background(), "ada@example.com", "ada", "longenough")
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), "ADA@example.com", "longenough")
	require.NoError(t, err)

	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(1800), pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(1), sessions.sessions[pair.RefreshToken])

	userID, err := svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)
}

func TestLogin_WrongCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Signup(context.Background(), "ada@example.com", "ada", "longenough")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ada@example.com", "wrong-password")
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	_, err = svc.Login(context.Background(), "nobody@example.com", "longenough")
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestLogin_WithoutSessionStoreOmitsRefreshToken(t *testing.T) {
	users := newMockUserStore()
	svc, err := NewService(users, nil, testAuthConfig)
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), "ada@example.com", "ada", "longenough")
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), "ada@example.com", "longenough")
	require.NoError(t, err)
	assert.Empty(t, pair.RefreshToken)

	_, err = svc.Refresh(context.Background(), "anything")
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
	assert.NoError(t, svc.Logout(context.Background(), "anything"))
}

// ---------------------------------------------------------------------------
// Refresh / Logout
// ---------------------------------------------------------------------------

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _, sessions := newTestService(t)
	_, err := svc.Signup(context.Background(), "ada@example.com", "ada", "longenough")
	require.NoError(t, err)
	pair, err := svc.Login(context.Background(), "ada@example.com", "longenough")
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.NotContains(t, sessions.sessions, pair.RefreshToken)

	// the old token is single use
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestRefresh_DeletedUser(t *testing.T) {
	svc, _, sessions := newTestService(t)
	sessions.sessions["orphan"] = 99

	_, err := svc.Refresh(context.Background(), "orphan")
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestLogout(t *testing.T) {
	svc, _, sessions := newTestService(t)
	sessions.sessions["tok"] = 1

	require.NoError(t, svc.Logout(context.Background(), "tok"))
	assert.Empty(t, sessions.sessions)
	require.NoError(t, svc.Logout(context.Background(), "unknown"))
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Signup(context.Background(), "ada@example.com", "ada", "longenough")
	require.NoError(t, err)

	u, err := svc.Me(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	_, err = svc.Me(context.Background(), 404)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func TestAuthenticate_Expired(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := svc.issue(context.Background(), 1)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Authenticate(pair.AccessToken)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	svc, _, _ := newTestService(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.Authenticate(token)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestAuthenticate_RejectsNoneAlgorithm(t *testing.T) {
	svc, _, _ := newTestService(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Authenticate(token)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestAuthenticate_MissingExpiry(t *testing.T) {
	svc, _, _ := newTestService(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).
		SignedString([]byte(testAuthConfig.Secret))
	require.NoError(t, err)

	_, err = svc.Authenticate(token)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestAuthenticate_Malformed(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Authenticate("not.a.jwt")
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestNewService_RejectsEmptySecret(t *testing.T) {
	for _, secret := range []string{"", "  "} {
		cfg := testAuthConfig
		cfg.Secret = secret
		svc, err := NewService(newMockUserStore(), nil, cfg)
		assert.Nil(t, svc)
		assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
	}
}

func TestAuthenticate_EmptyKeyTokenRejected(t *testing.T) {
	svc := &Service{users: newMockUserStore(), now: time.Now}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(""))
	require.NoError(t, err)

	_, err = svc.Authenticate(token)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}
