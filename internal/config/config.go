// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Store profiles selectable via COMMITDIGEST_STORE.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	Store      string // StoreSQLite or StoreMemory.

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	JWTSecret       string
	SessionLifetime time.Duration

	EncryptionKey []byte // 32 raw bytes decoded from 64 hex chars.

	FrontendURL string

	LLMProvider  string
	GeminiModel  string
	GeminiAPIKey string
}

// Load reads configuration from environment variables and returns a
// validated Config. Required variables: COMMITDIGEST_GITHUB_CLIENT_ID,
// COMMITDIGEST_GITHUB_CLIENT_SECRET, COMMITDIGEST_JWT_SECRET (min 32 chars),
// COMMITDIGEST_ENCRYPTION_KEY (64 hex chars), COMMITDIGEST_GEMINI_API_KEY.
// Everything else has a default. Load fails fast on the first missing or
// malformed value; no request is ever served with a bad configuration.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   envOrDefault("COMMITDIGEST_LISTEN_ADDR", "127.0.0.1:3000"),
		DBPath:       envOrDefault("COMMITDIGEST_DB_PATH", "commitdigest.db"),
		Store:        envOrDefault("COMMITDIGEST_STORE", StoreSQLite),
		FrontendURL:  envOrDefault("COMMITDIGEST_FRONTEND_URL", "http://localhost:5173"),
		LLMProvider:  envOrDefault("COMMITDIGEST_LLM_PROVIDER", "gemini"),
		GeminiModel:  envOrDefault("COMMITDIGEST_GEMINI_MODEL", "gemini-2.5-flash-lite"),
		GeminiAPIKey: os.Getenv("COMMITDIGEST_GEMINI_API_KEY"),
	}

	if cfg.Store != StoreSQLite && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("COMMITDIGEST_STORE must be %q or %q, got %q", StoreSQLite, StoreMemory, cfg.Store)
	}

	if _, err := url.ParseRequestURI(cfg.FrontendURL); err != nil {
		return nil, fmt.Errorf("COMMITDIGEST_FRONTEND_URL is not a valid URL: %w", err)
	}

	cfg.GitHubClientID = os.Getenv("COMMITDIGEST_GITHUB_CLIENT_ID")
	if cfg.GitHubClientID == "" {
		return nil, fmt.Errorf("COMMITDIGEST_GITHUB_CLIENT_ID is required")
	}
	cfg.GitHubClientSecret = os.Getenv("COMMITDIGEST_GITHUB_CLIENT_SECRET")
	if cfg.GitHubClientSecret == "" {
		return nil, fmt.Errorf("COMMITDIGEST_GITHUB_CLIENT_SECRET is required")
	}
	cfg.GitHubCallbackURL = envOrDefault("COMMITDIGEST_GITHUB_CALLBACK_URL", "http://localhost:3000/auth/github/callback")
	if _, err := url.ParseRequestURI(cfg.GitHubCallbackURL); err != nil {
		return nil, fmt.Errorf("COMMITDIGEST_GITHUB_CALLBACK_URL is not a valid URL: %w", err)
	}

	cfg.JWTSecret = os.Getenv("COMMITDIGEST_JWT_SECRET")
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("COMMITDIGEST_JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}

	cfg.SessionLifetime = 7 * 24 * time.Hour
	if v, ok := os.LookupEnv("COMMITDIGEST_SESSION_LIFETIME"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("COMMITDIGEST_SESSION_LIFETIME has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("COMMITDIGEST_SESSION_LIFETIME must be positive, got %q", v)
		}
		cfg.SessionLifetime = parsed
	}

	// The encryption key is 32 raw bytes supplied as hex, not a passphrase:
	// no KDF, no salt, full keyspace.
	rawKey := os.Getenv("COMMITDIGEST_ENCRYPTION_KEY")
	if len(rawKey) != 64 {
		return nil, fmt.Errorf("COMMITDIGEST_ENCRYPTION_KEY must be 64 hex characters (32 bytes), got %d characters", len(rawKey))
	}
	key, err := hex.DecodeString(rawKey)
	if err != nil {
		return nil, fmt.Errorf("COMMITDIGEST_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	cfg.EncryptionKey = key

	if cfg.LLMProvider != "gemini" {
		return nil, fmt.Errorf("LLM provider %q not supported", cfg.LLMProvider)
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("COMMITDIGEST_GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
