package service

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(env *testEnv, sessions *SessionService) *AuthService {
	registry := auth.NewRegistry(
		auth.NewLocalStrategy(env.store.Users),
		auth.NewFederatedStrategy(model.ProviderGoogle, env.store.Users),
	)
	return NewAuthService(env.store.Users, registry, sessions, env.email)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	sessions := NewSessionService(env.store.Sessions, env.store.Users, time.Hour, false)
	svc := newAuthService(env, sessions)

	user, err := svc.Register(env.ctx, RegisterInput{Email: " Julia@Example.com", Password: "tarte-tatin-42", FullName: "Julia Child"})
	require.NoError(t, err)
	assert.Equal(t, "julia@example.com", user.Email)
	assert.Equal(t, "julia", user.Username)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.True(t, user.HasPassword())

	_, err = svc.Register(env.ctx, RegisterInput{Email: "julia@example.com", Password: "tarte-tatin-42", FullName: "Other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Register(env.ctx, RegisterInput{Email: "other@example.com", Username: "julia", Password: "tarte-tatin-42", FullName: "Other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	loggedIn, session, err := svc.Login(env.ctx, model.ProviderLocal, auth.LocalCredentials{Email: "julia@example.com", Password: "tarte-tatin-42"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	resolved, err := sessions.Resolve(env.ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, user.ID, resolved.ID)

	_, _, err = svc.Login(env.ctx, model.ProviderLocal, auth.LocalCredentials{Email: "julia@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(env.ctx, "github", auth.LocalCredentials{Email: "julia@example.com", Password: "tarte-tatin-42"})
	assert.ErrorIs(t, err, auth.ErrUnknownStrategy)

	require.NoError(t, svc.Logout(env.ctx, session.Token))
	resolved, err = sessions.Resolve(env.ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env, NewSessionService(env.store.Sessions, env.store.Users, time.Hour, false))

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "tarte-tatin-42", FullName: "A"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", FullName: "A"}},
		{"common password", RegisterInput{Email: "a@example.com", Password: "mypassword1", FullName: "A"}},
		{"missing name", RegisterInput{Email: "a@example.com", Password: "tarte-tatin-42"}},
		{"bad username", RegisterInput{Email: "a@example.com", Username: "A!", Password: "tarte-tatin-42", FullName: "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(env.ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSessionService_LazyExpiry(t *testing.T) {
	env := newTestEnv(t)
	sessions := NewSessionService(env.store.Sessions, env.store.Users, time.Hour, true)
	user := env.user(t)

	session, err := sessions.Create(env.ctx, user, model.ProviderLocal)
	require.NoError(t, err)
	assert.Len(t, session.Token, 64)

	other, err := sessions.Create(env.ctx, user, model.ProviderLocal)
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, other.Token)

	resolved, err := sessions.Resolve(env.ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, resolved)

	resolved, err = sessions.Resolve(env.ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, resolved)

	later := time.Now().Add(2 * time.Hour)
	sessions.now = func() time.Time { return later }

	resolved, err = sessions.Resolve(env.ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	removed, err := sessions.Sweep(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestSessionService_DestroyAll(t *testing.T) {
	env := newTestEnv(t)
	sessions := NewSessionService(env.store.Sessions, env.store.Users, time.Hour, false)
	user := env.user(t)

	first, err := sessions.Create(env.ctx, user, model.ProviderLocal)
	require.NoError(t, err)
	second, err := sessions.Create(env.ctx, user, model.ProviderGoogle)
	require.NoError(t, err)

	require.NoError(t, sessions.DestroyAll(env.ctx, user.ID))

	for _, token := range []string{first.Token, second.Token} {
		resolved, err := sessions.Resolve(env.ctx, token)
		require.NoError(t, err)
		assert.Nil(t, resolved)
	}
}

func TestSessionService_Cookies(t *testing.T) {
	sessions := NewSessionService(nil, nil, time.Hour, true)
	rec := httptest.NewRecorder()
	sessions.SetCookie(rec, &model.Session{Token: "abc", ExpiresAt: time.Now().Add(time.Hour)})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	assert.Equal(t, "abc", TokenFromRequest(req))
	assert.Equal(t, "", TokenFromRequest(httptest.NewRequest("GET", "/", nil)))
}
