package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/repository"
)

const SessionCookieName = "session_id"

// SessionService maps opaque cookie tokens to users. Sessions expire lazily:
// an expired row resolves to no user until the sweeper removes it.
type SessionService struct {
	sessions     repository.SessionRepository
	users        repository.UserRepository
	ttl          time.Duration
	isProduction bool
	now          func() time.Time
}

func NewSessionService(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration, isProduction bool) *SessionService {
	return &SessionService{
		sessions:     sessions,
		users:        users,
		ttl:          ttl,
		isProduction: isProduction,
		now:          time.Now,
	}
}

// Create issues a new session for user. Users may hold any number of sessions.
func (s *SessionService) Create(ctx context.Context, user *model.User, provider string) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	data, err := json.Marshal(model.SessionIdentity{UserID: user.ID, Provider: provider})
	if err != nil {
		return nil, fmt.Errorf("encode session identity: %w", err)
	}

	session, err := s.sessions.Create(ctx, &model.Session{
		Token:     token,
		UserID:    user.ID,
		Data:      string(data),
		ExpiresAt: s.now().UTC().Add(s.ttl),
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Resolve returns the session's user, or nil when the token is unknown or expired.
func (s *SessionService) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.ByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsExpired(s.now()) {
		return nil, nil
	}

	var identity model.SessionIdentity
	err = json.Unmarshal([]byte(session.Data), &identity)
	if err != nil || identity.UserID != session.UserID {
		slog.Warn("discarding malformed session", "session_id", session.ID, "error", err)
		return nil, nil
	}

	return s.users.ByID(ctx, identity.UserID)
}

func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := s.sessions.Delete(ctx, token)
	return err
}

func (s *SessionService) DestroyAll(ctx context.Context, userID int64) error {
	_, err := s.sessions.DeleteByUser(ctx, userID)
	return err
}

// Sweep deletes expired sessions and returns how many were removed.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// RunSweeper sweeps every interval until ctx is cancelled.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}

func (s *SessionService) SetCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the session cookie, returning "" when absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// generateToken returns 256 bits of randomness, hex-encoded.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
