// Package config loads runtime configuration from the environment (and an
// optional .env file) into a typed Config.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the backend.
type Config struct {
	AppEnv     string
	ListenAddr string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret        string
	TelegramBotToken string

	Library LibraryConfig
}

// LibraryConfig configures the external library availability API.
type LibraryConfig struct {
	APIKey        string
	BaseURL       string
	LookupTimeout time.Duration
	CacheTTL      time.Duration
	// RatePerSecond <= 0 disables throttling.
	RatePerSecond float64
	Burst         int
}

// IsDevelopment reports whether the app runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine: production injects plain environment variables.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("DATABASE_DSN", "host=localhost user=user password=password dbname=seogaeum port=5432 sslmode=disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LIBRARY_API_BASE_URL", DefaultLibraryAPIBaseURL)
	v.SetDefault("LIBRARY_LOOKUP_TIMEOUT", DefaultLookupTimeout)
	v.SetDefault("LIBRARY_CACHE_TTL", DefaultLookupCacheTTL)
	v.SetDefault("LIBRARY_RATE_PER_SECOND", 10.0)
	v.SetDefault("LIBRARY_RATE_BURST", 5)

	cfg := &Config{
		AppEnv:           v.GetString("APP_ENV"),
		ListenAddr:       v.GetString("LISTEN_ADDR"),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		Library: LibraryConfig{
			APIKey:        v.GetString("LIBRARY_API_KEY"),
			BaseURL:       v.GetString("LIBRARY_API_BASE_URL"),
			LookupTimeout: v.GetDuration("LIBRARY_LOOKUP_TIMEOUT"),
			CacheTTL:      v.GetDuration("LIBRARY_CACHE_TTL"),
			RatePerSecond: v.GetFloat64("LIBRARY_RATE_PER_SECOND"),
			Burst:         v.GetInt("LIBRARY_RATE_BURST"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.Library.LookupTimeout <= 0 || cfg.Library.LookupTimeout > DefaultLookupTimeout {
		cfg.Library.LookupTimeout = DefaultLookupTimeout
	}
	return cfg, nil
}
