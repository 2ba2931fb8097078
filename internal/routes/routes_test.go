package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/app"
	"github.com/chezmoi-app/chezmoi/internal/config"
	"github.com/chezmoi-app/chezmoi/internal/middleware"
	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/chezmoi-app/chezmoi/internal/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const privacyPage = `---
title: Privacy Policy
lastUpdated: 2025-03-01
---

# Privacy

We keep your data in France.
`

func newTestApp(t *testing.T) (*httptest.Server, *app.App) {
	t.Helper()

	content := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(content, "legal"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "legal", "privacy.md"), []byte(privacyPage), 0o644))

	cfg := &config.Config{
		AppName:         "ChezMoi",
		AppEnv:          "development",
		AppURL:          "http://localhost:5000",
		AppVersion:      "test",
		ContentPath:     content,
		DBDriver:        "sqlite",
		DBConnection:    filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite",
		SessionTTL:      time.Hour,
		JWTSecret:       "test-secret",
		EmailFrom:       "noreply@chezmoi.test",
		PaymentCurrency: "eur",
		OpenAIModel:     "gpt-4o",
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(routes.SetupRoutes(a))
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return srv, a
}

// client keeps cookies between requests and echoes the CSRF token like the browser app does.
type client struct {
	t    *testing.T
	base string
	http *http.Client
	csrf string
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	c := &client{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	status := c.do(http.MethodGet, "/api/auth/csrf", nil, &body)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body.CSRFToken)
	c.csrf = body.CSRFToken

	return c
}

func (c *client) do(method, path string, in any, out any) int {
	c.t.Helper()

	var reader *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set(middleware.CSRFHeader, c.csrf)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *client) register(email, name string) model.User {
	c.t.Helper()

	var body struct {
		User model.User `json:"user"`
	}
	status := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "s3cure-pass-42",
		"fullName": name,
	}, &body)
	require.Equal(c.t, http.StatusCreated, status)
	return body.User
}

type messageBody struct {
	Message string `json:"message"`
}

func TestHealth(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, srv)

	var body map[string]string
	status := c.do(http.MethodGet, "/api/health", nil, &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "development", body["environment"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, srv)

	user := c.register("Camille@Example.com", "Camille Durand")
	assert.Equal(t, "camille@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)

	var me struct {
		User model.User `json:"user"`
	}
	status := c.do(http.MethodGet, "/api/auth/me", nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, user.ID, me.User.ID)

	var msg messageBody
	status = c.do(http.MethodPost, "/api/auth/logout", nil, &msg)
	assert.Equal(t, http.StatusOK, status)

	status = c.do(http.MethodGet, "/api/auth/me", nil, &msg)
	assert.Equal(t, http.StatusUnauthorized, status)

	t.Run("wrong password", func(t *testing.T) {
		status := c.do(http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "camille@example.com",
			"password": "not-the-one-99",
		}, &msg)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid credentials", msg.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		status := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "camille@example.com"}, &msg)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("login", func(t *testing.T) {
		var body struct {
			Success bool       `json:"success"`
			User    model.User `json:"user"`
		}
		status := c.do(http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "camille@example.com",
			"password": "s3cure-pass-42",
		}, &body)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, body.Success)
		assert.Equal(t, user.ID, body.User.ID)

		status = c.do(http.MethodGet, "/api/auth/me", nil, &me)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("duplicate email", func(t *testing.T) {
		other := newClient(t, srv)
		status := other.do(http.MethodPost, "/api/auth/register", map[string]string{
			"email":    "camille@example.com",
			"password": "another-pass-77",
			"fullName": "Someone Else",
		}, &msg)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		other := newClient(t, srv)
		status := other.do(http.MethodPost, "/api/auth/register", map[string]any{
			"email":    "lea@example.com",
			"password": "s3cure-pass-42",
			"fullName": "Lea",
			"role":     "admin",
		}, &msg)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestCSRFRequiredForMutations(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, srv)
	c.csrf = "forged"

	var msg messageBody
	status := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "a@example.com",
		"password": "whatever-123",
	}, &msg)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Invalid CSRF token", msg.Message)
}

func TestProtectedRoutes(t *testing.T) {
	srv, _ := newTestApp(t)
	anon := newClient(t, srv)

	var msg messageBody
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/bookings", nil, &msg))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/api/reviews", map[string]any{}, &msg))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/messages/unread-count", nil, &msg))
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPut, "/api/admin/chefs/1/approval", map[string]bool{"approved": true}, &msg))

	user := newClient(t, srv)
	user.register("hugo@example.com", "Hugo Martin")
	assert.Equal(t, http.StatusForbidden, user.do(http.MethodPut, "/api/admin/chefs/1/approval", map[string]bool{"approved": true}, &msg))

	var bookings struct {
		AsCustomer []model.BookingWithDetails `json:"asCustomer"`
		AsChef     []model.BookingWithDetails `json:"asChef"`
	}
	assert.Equal(t, http.StatusOK, user.do(http.MethodGet, "/api/bookings", nil, &bookings))
	assert.Empty(t, bookings.AsCustomer)
}

func TestChefListing(t *testing.T) {
	srv, a := newTestApp(t)
	anon := newClient(t, srv)

	var chefs []model.ChefWithUser
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/chefs", nil, &chefs))
	assert.Empty(t, chefs)

	var msg messageBody
	assert.Equal(t, http.StatusBadRequest, anon.do(http.MethodGet, "/api/chefs?maxPrice=cheap", nil, &msg))
	assert.Equal(t, http.StatusNotFound, anon.do(http.MethodGet, "/api/chefs/999", nil, &msg))
	assert.Equal(t, http.StatusBadRequest, anon.do(http.MethodGet, "/api/chefs/abc", nil, &msg))

	chefClient := newClient(t, srv)
	chefClient.register("julie@example.com", "Julie Bernard")

	var created model.ChefWithUser
	status := chefClient.do(http.MethodPost, "/api/chefs", map[string]any{
		"bio":             "Cuisine lyonnaise",
		"location":        "Lyon",
		"pricePerPerson":  4500,
		"yearsExperience": 12,
		"specialties":     []string{"french", "bistro"},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.False(t, created.IsApproved)

	// Unapproved chefs stay out of the public listing
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/chefs", nil, &chefs))
	assert.Empty(t, chefs)

	adminClient := newClient(t, srv)
	admin := adminClient.register("admin@example.com", "Site Admin")
	role := model.RoleAdmin
	_, err := a.Store.Users.Update(context.Background(), admin.ID, model.UserUpdate{Role: &role})
	require.NoError(t, err)

	var approved model.ChefWithUser
	status = adminClient.do(http.MethodPut, "/api/admin/chefs/"+itoa(created.ID)+"/approval", map[string]bool{"approved": true}, &approved)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, approved.IsApproved)

	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/chefs?location=lyon&specialties=bistro", nil, &chefs))
	require.Len(t, chefs, 1)
	assert.Equal(t, created.ID, chefs[0].ID)

	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/chefs?maxPrice=4000", nil, &chefs))
	assert.Empty(t, chefs)

	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/chefs/featured", nil, &chefs))
	assert.Len(t, chefs, 1)
}

func TestPaymentWebhookWithoutProvider(t *testing.T) {
	srv, _ := newTestApp(t)

	resp, err := http.Post(srv.URL+"/webhooks/payment", "application/json", bytes.NewBufferString(`{"type":"payment_intent.succeeded"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLegalPages(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, srv)

	var list map[string][]string
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/legal", nil, &list))
	assert.Equal(t, []string{"privacy"}, list["pages"])

	var page struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		LastUpdated string `json:"lastUpdated"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/legal/privacy", nil, &page))
	assert.Equal(t, "Privacy Policy", page.Title)
	assert.Equal(t, "March 1, 2025", page.LastUpdated)
	assert.Contains(t, page.Content, "<h1")

	var msg messageBody
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/legal/cookies", nil, &msg))
}

func TestAssistantWithoutProvider(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, srv)

	var help map[string]string
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/assistant/help?page=/chefs", nil, &help))
	assert.NotEmpty(t, help["help"])

	var answer map[string]string
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/assistant/ask", map[string]string{"question": "How do I book?"}, &answer))
	assert.NotEmpty(t, answer["response"])

	var msg messageBody
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/assistant/ask", map[string]string{"question": "  "}, &msg))
}

func itoa(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
