package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config.toml values.
const (
	EnvAPIURL       = "FLIX_API_URL"
	EnvDatabasePath = "FLIX_DATABASE_PATH"
	EnvSessionStore = "FLIX_SESSION_STORE"
	EnvLogLevel     = "FLIX_LOG_LEVEL"
	EnvJWTSecret    = "FLIX_JWT_SECRET"
	EnvServerPort   = "FLIX_SERVER_PORT"
)

// LoadEnv loads variables from the given dotenv files (default ".env") into the process environment.
//
// Missing files are ignored; variables already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with any FLIX_* variables present in the environment.
func ApplyEnv(config *Config) error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv(EnvSessionStore); v != "" {
		config.Session.Store = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		config.Server.JWTSecret = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvServerPort, v)
		}
		config.Server.Port = port
	}
	return nil
}
