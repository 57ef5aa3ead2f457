package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour

	maxBodyBytes = 1 << 20
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db  *storage.DB
	log zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, logger zerolog.Logger) *Handlers {
	return &Handlers{db: db, log: logger}
}

// Router builds the HTTP API. allowedOrigins configures CORS; empty means any origin.
func (h *Handlers) Router(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Post("/users", h.SignUp)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Post("/logout", h.Logout)

		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.CreateCategory)
		r.Get("/products", h.ListProducts)
		r.Post("/products", h.CreateProduct)
		r.Get("/product_prices", h.ListProductPrices)
		r.Get("/product_prices/current", h.CurrentProductPrice)
		r.Post("/product_prices", h.CreateProductPrice)
		r.Get("/tags", h.ListTags)
		r.Post("/tags", h.CreateTag)
		r.Get("/transactions", h.ListTransactions)
		r.Post("/transactions", h.CreateTransaction)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/spending-time-series", h.SpendingTimeSeries)
			r.Get("/category-spending", h.CategorySpending)
			r.Get("/product-price-data", h.ProductPriceData)
		})
	})

	return r
}

func (h *Handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require a bearer session token.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(token)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				h.log.Error().Err(err).Msg("validate session")
			}
			writeError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		// Rolling session: renew if past halfway point
		now := time.Now()
		if sessionInfo.ExpiresAt.Sub(now) < SessionDuration/2 {
			if err := h.db.RenewSession(token, now.Add(SessionDuration)); err != nil {
				// If renewal fails, just continue with the current session
				h.log.Warn().Err(err).Msg("renew session")
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Health reports that the server is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SignUp creates a user account.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !h.decode(w, r, &creds) {
		return
	}
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	email, err := auth.NormalizeEmail(email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		h.internalError(w, "hash password", err)
		return
	}

	user, err := h.db.CreateUser(email, hash)
	if errors.Is(err, storage.ErrDuplicate) {
		writeError(w, http.StatusConflict, "A user with that email already exists")
		return
	}
	if err != nil {
		h.internalError(w, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login checks credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !h.decode(w, r, &creds) {
		return
	}
	email := strings.TrimSpace(creds.Email)
	if email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.db.GetUserByEmail(email)
	if err != nil || !auth.CheckPassword(creds.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.internalError(w, "generate session token", err)
		return
	}

	if err := h.db.CreateSession(token, user.ID, time.Now().Add(SessionDuration)); err != nil {
		h.internalError(w, "create session", err)
		return
	}

	h.log.Info().Int64("user_id", user.ID).Msg("login")
	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}

// Logout ends the caller's session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if err := h.db.DeleteSession(token); err != nil {
		h.internalError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// storeError answers a storage failure with the matching status.
func (h *Handlers) storeError(w http.ResponseWriter, op string, err error, notFound, duplicate string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, storage.ErrDuplicate):
		writeError(w, http.StatusConflict, duplicate)
	case errors.Is(err, storage.ErrMismatch):
		writeError(w, http.StatusBadRequest, "The selected price belongs to another product")
	default:
		h.internalError(w, op, err)
	}
}

func (h *Handlers) internalError(w http.ResponseWriter, op string, err error) {
	h.log.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
