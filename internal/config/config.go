package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultDatabasePath    = "data/nutrision.db"
	defaultPort            = "8080"
	defaultStaticPlanDelay = 800 * time.Millisecond
	defaultPortions        = 2
	defaultJWTIssuer       = "nutrision"
)

// Config holds the configuration for the application.
type Config struct {
	Env string

	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string

	DatabasePath string
	Port         string

	// StaticPlanDelay paces the static plan so it feels like a generation.
	StaticPlanDelay     time.Duration
	DefaultPortions     int
	AIRequestsPerMinute int
	AIBurst             int

	// HTTP API
	JWTSecret      string
	JWTIssuer      string
	AllowedOrigins []string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
// Every key is optional: without GEMINI_API_KEY the planner only serves the
// static plan.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		Env:                getEnv("APP_ENV", "production"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", defaultGeminiModel),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		DatabasePath:       getEnv("DATABASE_PATH", defaultDatabasePath),
		Port:               getEnv("PORT", defaultPort),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTIssuer:          getEnv("JWT_ISSUER", defaultJWTIssuer),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	var err error
	if cfg.StaticPlanDelay, err = getDuration("STATIC_PLAN_DELAY", defaultStaticPlanDelay); err != nil {
		return nil, err
	}
	if cfg.DefaultPortions, err = getInt("DEFAULT_PORTIONS", defaultPortions); err != nil {
		return nil, err
	}
	if cfg.DefaultPortions < 1 {
		return nil, fmt.Errorf("DEFAULT_PORTIONS must be at least 1, got %d", cfg.DefaultPortions)
	}
	if cfg.AIRequestsPerMinute, err = getInt("AI_REQUESTS_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.AIBurst, err = getInt("AI_BURST", 2); err != nil {
		return nil, err
	}
	if cfg.AdminTelegramID, err = getInt64("ADMIN_TELEGRAM_ID", 0); err != nil {
		return nil, err
	}
	for _, raw := range splitList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", raw, err)
		}
		cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
	}

	return cfg, nil
}

// IsLocal reports whether the app runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == "development"
}

// AIEnabled reports whether a Gemini key is configured.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

// IsTelegramUserAllowed reports whether id may talk to the bot. An empty
// allow list admits everyone.
func (c *Config) IsTelegramUserAllowed(id int64) bool {
	if len(c.TelegramAllowedUserIDs) == 0 || id == c.AdminTelegramID {
		return true
	}
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
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
