package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	SessionTTL     time.Duration
	AllowedOrigins []string
	AppEnv         string
	StaticDir      string // Built frontend, served in production only
	UploadDir      string // Profile pictures and message images
	MaxImageBytes  int64
	LogLevel       string
	LogFile        string
	StatsSchedule  string // Cron expression for the stats reporter
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Load loads configuration from an optional .env file and environment variables,
// falling back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using system environment")
	}

	port, err := strconv.Atoi(getEnv("PORT", "5001"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	maxImage, err := strconv.ParseInt(getEnv("MAX_IMAGE_BYTES", "5242880"), 10, 64)
	if err != nil || maxImage <= 0 {
		return nil, fmt.Errorf("invalid MAX_IMAGE_BYTES %q", os.Getenv("MAX_IMAGE_BYTES"))
	}

	cfg := &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./chat.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		SessionTTL:     ttl,
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		AppEnv:         getEnv("APP_ENV", EnvDevelopment),
		StaticDir:      getEnv("STATIC_DIR", "../frontend/dist"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxImageBytes:  maxImage,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		StatsSchedule:  getEnv("STATS_SCHEDULE", "*/5 * * * *"),
	}

	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction {
		return nil, fmt.Errorf("invalid APP_ENV %q", cfg.AppEnv)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Warn().Msg("JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
