package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/buildinfo"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/storage"

	"github.com/rs/zerolog"
)

const sessionCleanupInterval = time.Hour

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	db, err := storage.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	defer db.Close()

	if err := bootstrapAdmin(db, cfg.AdminUser, cfg.AdminPassword, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to create admin user")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go cleanSessions(ctx, db, logger)

	h := handlers.NewHandlers(db, logger)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("driver", db.Driver()).
			Str("version", buildinfo.Version).
			Msg("finance tracker listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve error")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

func setupRouter(h *handlers.Handlers, origins []string) http.Handler {
	return h.Router(origins)
}

// bootstrapAdmin creates the first user from ADMIN_USER/ADMIN_PASSWORD when
// the database has no users yet.
func bootstrapAdmin(db *storage.DB, email, password string, logger zerolog.Logger) error {
	if email == "" || password == "" {
		return nil
	}
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user, err := db.CreateUser(email, hash)
	if err != nil {
		return err
	}
	logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("created admin user")
	return nil
}

func cleanSessions(ctx context.Context, db *storage.DB, logger zerolog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CleanExpiredSessions()
			if err != nil {
				logger.Warn().Err(err).Msg("clean expired sessions")
				continue
			}
			if n > 0 {
				logger.Debug().Int64("removed", n).Msg("cleaned expired sessions")
			}
		}
	}
}
