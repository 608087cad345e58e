/*
Package configs loads the relay's configuration from environment variables.

A .env file in the working directory, when present, is loaded first; variables already set in
the environment take precedence over it.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Room Settings
	RoomIdleTimeout time.Duration

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string
	CookieSecure   bool

	// Journal Settings; an empty DSN disables the room journal.
	DatabaseDSN string
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads .env (if any) and then parses the configuration from the environment.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv parses the configuration from environment variables, applying defaults and validation.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Room Settings ---
	idleStr := os.Getenv("ROOM_IDLE_TIMEOUT")
	if idleStr == "" {
		idleStr = "5m"
	}
	idle, err := time.ParseDuration(idleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ROOM_IDLE_TIMEOUT environment variable: %w", err)
	}
	if idle <= 0 {
		return nil, fmt.Errorf("ROOM_IDLE_TIMEOUT must be positive, got %s", idle)
	}
	cfg.RoomIdleTimeout = idle

	// --- Security Settings ---
	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		jwtSecret = "your_default_insecure_secret_key_change_me"
	}
	cfg.JWTSecret = jwtSecret

	cfg.CookieSecure = !cfg.IsDevelopment()
	if secureStr := os.Getenv("COOKIE_SECURE"); secureStr != "" {
		secure, err := strconv.ParseBool(secureStr)
		if err != nil {
			return nil, fmt.Errorf("invalid COOKIE_SECURE environment variable: %w", err)
		}
		cfg.CookieSecure = secure
	}

	// --- Journal Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	return cfg, nil
}
