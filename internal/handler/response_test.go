package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chezmoi-app/chezmoi/internal/repository"
	"github.com/chezmoi-app/chezmoi/internal/service"
	"github.com/chezmoi-app/chezmoi/internal/service/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("chef: %w", service.ErrNotFound), http.StatusNotFound},
		{"invalid input", fmt.Errorf("%w: guest count", service.ErrInvalidInput), http.StatusBadRequest},
		{"duplicate", fmt.Errorf("email %w", service.ErrDuplicate), http.StatusConflict},
		{"transition", service.ErrInvalidTransition, http.StatusConflict},
		{"constraint", fmt.Errorf("insert: %w", repository.ErrConstraintViolation), http.StatusBadRequest},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"payments off", payment.ErrNotConfigured, http.StatusServiceUnavailable},
		{"provider", fmt.Errorf("%w: card declined", payment.ErrProvider), http.StatusBadGateway},
		{"assistant", fmt.Errorf("%w: timeout", service.ErrAssistantUnavailable), http.StatusBadGateway},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/test", nil)

			writeError(w, r, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body messageResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body.Message)
		})
	}

	t.Run("internal details are hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"name":"Julie"}`, true},
		{"unknown field", `{"name":"Julie","admin":true}`, false},
		{"malformed", `{"name":`, false},
		{"trailing object", `{"name":"a"}{"name":"b"}`, false},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var p payload
			err := decodeJSON(w, r, &p)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, "Julie", p.Name)
				return
			}
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	var gotErr error
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = pathID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	for _, raw := range []string{"0", "-3", "abc"} {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+raw, nil))
		assert.ErrorIs(t, gotErr, service.ErrInvalidInput, raw)
	}
}
