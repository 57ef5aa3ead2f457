package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Server holds the settings of the API server, read from the environment.
type Server struct {
	Port          string
	DBDriver      string
	DBPath        string
	DatabaseURL   string
	AdminUser     string
	AdminPassword string
	CORSOrigins   []string
	LogLevel      zerolog.Level
}

// FromEnv reads the server settings, applying defaults for unset variables.
func FromEnv() (*Server, error) {
	cfg := &Server{
		Port:          env("PORT", "8080"),
		DBDriver:      env("DB_DRIVER", "sqlite"),
		DBPath:        env("DB_PATH", "expenses.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminUser:     os.Getenv("ADMIN_USER"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	for _, o := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(env("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	switch cfg.DBDriver {
	case "sqlite":
	case "pgx":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=pgx")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// DSN returns the data source name for the configured driver.
func (s *Server) DSN() string {
	if s.DBDriver == "pgx" {
		return s.DatabaseURL
	}
	return s.DBPath
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return ":" + s.Port
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
