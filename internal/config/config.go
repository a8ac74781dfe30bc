// Package config reads the server settings from the environment.
//
// A .env file in the working directory (or the files passed to Load) is
// loaded first. Real environment variables always win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	GitHub   GitHubConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	// Path is a SQLite file path, or ":memory:".
	Path string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// GitHubConfig is optional. Sign-in with GitHub is only offered when both
// the client ID and secret are set.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether the GitHub routes should be mounted.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads .env files (default ".env", missing files are fine) and then
// the environment.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %q", os.Getenv("PORT"))
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("config: invalid TOKEN_TTL %q", os.Getenv("TOKEN_TTL"))
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", "12"))
	if err != nil || cost < 4 || cost > 31 {
		return nil, fmt.Errorf("config: invalid BCRYPT_COST %q (want 4-31)", os.Getenv("BCRYPT_COST"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Server:   ServerConfig{Port: port},
		Database: DatabaseConfig{Path: getEnv("DB_PATH", "data/auctions.db")},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   ttl,
			BcryptCost: cost,
		},
		GitHub: GitHubConfig{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			CallbackURL:  getEnv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", port)),
		},
		LogLevel: level,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if (c.GitHub.ClientID == "") != (c.GitHub.ClientSecret == "") {
		return errors.New("config: set both GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET, or neither")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
