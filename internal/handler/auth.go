package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chezmoi-app/chezmoi/internal/config"
	"github.com/chezmoi-app/chezmoi/internal/ctxkeys"
	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/service"
	"github.com/chezmoi-app/chezmoi/internal/service/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie  = "oauth_state"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthFailurePath  = "/login?error=oauth"
	oauthSuccessPath  = "/"
)

type userResponse struct {
	User *model.User `json:"user"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthHandler struct {
	authService       *service.AuthService
	sessions          *service.SessionService
	googleOAuthConfig *oauth2.Config
	googleUserInfoURL string
	isProduction      bool
}

func NewAuthHandler(authService *service.AuthService, sessions *service.SessionService, cfg *config.Config) *AuthHandler {
	h := &AuthHandler{
		authService:       authService,
		sessions:          sessions,
		googleUserInfoURL: googleUserInfoURL,
		isProduction:      cfg.IsProduction(),
	}
	if cfg.GoogleEnabled() {
		h.googleOAuthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/api/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}
	return h
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.authService.StartSession(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.sessions.SetCookie(w, session)

	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	err := decodeJSON(w, r, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if in.Email == "" || in.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, session, err := h.authService.Login(r.Context(), model.ProviderLocal, auth.LocalCredentials{
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.sessions.SetCookie(w, session)

	writeJSON(w, http.StatusOK, loginResponse{Success: true, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.authService.Logout(r.Context(), service.TokenFromRequest(r))
	if err != nil {
		slog.Error("failed to destroy session", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	h.sessions.ClearCookie(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// CSRFToken returns the double-submit token for clients that cannot read cookies.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": ctxkeys.CSRFToken(r.Context())})
}

// GoogleAuth redirects user to Google OAuth consent screen
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuthConfig == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	state := generateOAuthState()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	url := h.googleOAuthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// credentials drops an unverified address so it can never link to an existing account.
func (info *googleUserInfo) credentials() auth.FederatedCredentials {
	creds := auth.FederatedCredentials{
		Provider:    model.ProviderGoogle,
		Subject:     info.ID,
		DisplayName: info.Name,
		PictureURL:  info.Picture,
	}
	if info.VerifiedEmail {
		creds.Email = info.Email
	}
	return creds
}

// GoogleCallback exchanges the code, resolves the federated identity and opens a session.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuthConfig == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("google oauth state validation failed", "error", err)
		http.Redirect(w, r, oauthFailurePath, http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		http.Redirect(w, r, oauthFailurePath, http.StatusSeeOther)
		return
	}

	info, err := h.fetchGoogleUser(r, code)
	if err != nil {
		slog.Error("google oauth failed", "error", err)
		http.Redirect(w, r, oauthFailurePath, http.StatusSeeOther)
		return
	}

	if !info.VerifiedEmail {
		slog.Warn("google account email not verified", "subject", info.ID)
	}

	user, session, err := h.authService.Login(r.Context(), model.ProviderGoogle, info.credentials())
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "subject", info.ID)
		http.Redirect(w, r, oauthFailurePath, http.StatusSeeOther)
		return
	}
	h.sessions.SetCookie(w, session)

	slog.Info("user logged in with google oauth", "user_id", user.ID)
	http.Redirect(w, r, oauthSuccessPath, http.StatusSeeOther)
}

func (h *AuthHandler) fetchGoogleUser(r *http.Request, code string) (*googleUserInfo, error) {
	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	client := h.googleOAuthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned %s", resp.Status)
	}

	var info googleUserInfo
	err = json.NewDecoder(resp.Body).Decode(&info)
	if err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("user info has no subject id")
	}
	return &info, nil
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
