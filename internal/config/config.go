// Package config loads process configuration once at startup. The resulting
// Config is immutable and passed by reference to the components that need it;
// nothing outside this package reads environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AccessTokenTTL is the fixed lifetime of access tokens.
const AccessTokenTTL = time.Hour

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Access and refresh tokens are signed with distinct secrets so a leaked
	// refresh token can never pass access-token verification.
	JWTSecret        string
	JWTRefreshSecret string
	RefreshTokenDays int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	CORSOrigins []string
}

// Load reads configs/.env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		// Missing .env is fine in containerized deployments
	}

	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/redirect"),

		CORSOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:5173")},
	}

	days, err := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))
	if err != nil || days < 1 {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_DAYS: %q", os.Getenv("REFRESH_TOKEN_DAYS"))
	}
	cfg.RefreshTokenDays = days

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "default_super_secret_key" // Development fallback only
	}
	if cfg.JWTRefreshSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_REFRESH_SECRET is required in production")
		}
		cfg.JWTRefreshSecret = "default_refresh_secret_key"
	}

	return cfg, nil
}

// DSN renders the postgres connection string.
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// RefreshTokenTTL converts the configured day count to a duration.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
