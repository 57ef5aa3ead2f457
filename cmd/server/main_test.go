package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance-tracker/internal/handlers"
	"finance-tracker/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouter(t *testing.T) {
	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	h := handlers.NewHandlers(db, zerolog.Nop())

	// Create router - this triggers the panic if routing conflict exists
	mux := setupRouter(h, []string{"http://localhost:5173"})

	// Verify routes
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "Health check",
			method:     "GET",
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Login with unknown user",
			method:     "POST",
			path:       "/login",
			body:       `{"email":"nobody@example.com","password":"x"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Transactions require auth",
			method:     "GET",
			path:       "/transactions",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Analytics require auth",
			method:     "GET",
			path:       "/analytics/spending-time-series",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Unknown route",
			method:     "GET",
			path:       "/expenses",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code,
				"%s %s returned unexpected status", tt.method, tt.path)
		})
	}
}

func TestSetupRouterCORS(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	mux := setupRouter(handlers.NewHandlers(db, zerolog.Nop()), []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/categories", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBootstrapAdmin(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, bootstrapAdmin(db, "", "", zerolog.Nop()))
	count, err := db.UserCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no admin without credentials")

	require.NoError(t, bootstrapAdmin(db, "admin@example.com", "secret", zerolog.Nop()))
	require.NoError(t, bootstrapAdmin(db, "admin@example.com", "secret", zerolog.Nop()))
	count, err = db.UserCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "admin is only created once")

	user, err := db.GetUserByEmail("admin@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
}
