package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	AppBaseURL      string
	Timezone        string
	SessionDuration time.Duration
	CSRFSecret      string
	StaticFilesPath string

	DatabaseType string
	DatabaseURL  string
	DatabasePath string
	DatabaseTLS  string

	LogMode  string
	LogLevel string

	LLMProvider     string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMFastModel    string
	LLMPremiumModel string
	LLMTimeout      time.Duration
	LLMCacheSize    int

	FlashDailyLimit   int
	PremiumDailyLimit int

	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RedisAddr          string
	CORSAllowedOrigins []string

	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	EmailDebug   bool

	VisitorBeaconURL string
}

// Load reads configuration from the environment and an optional portal.yaml
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("portal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		ServerPort:      v.GetString("PORT"),
		AppBaseURL:      v.GetString("APP_BASE_URL"),
		Timezone:        v.GetString("TIMEZONE"),
		SessionDuration: v.GetDuration("SESSION_DURATION"),
		CSRFSecret:      v.GetString("CSRF_SECRET"),
		StaticFilesPath: v.GetString("STATIC_PATH"),

		DatabaseType: v.GetString("DATABASE_TYPE"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		DatabasePath: v.GetString("DB_PATH"),
		DatabaseTLS:  v.GetString("DB_TLS"),

		LogMode:  v.GetString("LOG_MODE"),
		LogLevel: v.GetString("LOG_LEVEL"),

		LLMProvider:     strings.ToLower(v.GetString("LLM_PROVIDER")),
		LLMBaseURL:      v.GetString("LLM_BASE_URL"),
		LLMFastModel:    v.GetString("LLM_FAST_MODEL"),
		LLMPremiumModel: v.GetString("LLM_PREMIUM_MODEL"),
		LLMTimeout:      v.GetDuration("LLM_TIMEOUT"),
		LLMCacheSize:    v.GetInt("LLM_CACHE_SIZE"),

		FlashDailyLimit:   v.GetInt("FLASH_DAILY_LIMIT"),
		PremiumDailyLimit: v.GetInt("PREMIUM_DAILY_LIMIT"),

		RateLimitRequests:  v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindow:    v.GetDuration("RATE_LIMIT_WINDOW"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		GoogleClientID:       v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   v.GetString("GOOGLE_CLIENT_SECRET"),
		OAuthRedirectBaseURL: v.GetString("OAUTH_REDIRECT_BASE_URL"),

		AWSRegion:    v.GetString("AWS_REGION"),
		SESFromEmail: v.GetString("SES_FROM_EMAIL"),
		SESFromName:  v.GetString("SES_FROM_NAME"),
		EmailDebug:   v.GetBool("EMAIL_DEBUG"),

		VisitorBeaconURL: v.GetString("VISITOR_BEACON_URL"),
	}

	cfg.LLMAPIKey = v.GetString("LLM_API_KEY")
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = providerKey(cfg.LLMProvider)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("SESSION_DURATION", 24*time.Hour)
	v.SetDefault("CSRF_SECRET", "change-me-in-production")
	v.SetDefault("STATIC_PATH", "./static")

	v.SetDefault("DATABASE_TYPE", "sqlite")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_PATH", "./sorokin.db")
	v.SetDefault("DB_TLS", "")

	v.SetDefault("LOG_MODE", "dev")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("LLM_API_KEY", "")
	v.SetDefault("LLM_BASE_URL", "")
	v.SetDefault("LLM_FAST_MODEL", "gemini-2.0-flash")
	v.SetDefault("LLM_PREMIUM_MODEL", "gemini-1.5-pro")
	v.SetDefault("LLM_TIMEOUT", 60*time.Second)
	v.SetDefault("LLM_CACHE_SIZE", 256)

	v.SetDefault("FLASH_DAILY_LIMIT", 100)
	v.SetDefault("PREMIUM_DAILY_LIMIT", 5)

	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_REDIRECT_BASE_URL", "")

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SES_FROM_EMAIL", "")
	v.SetDefault("SES_FROM_NAME", "Sorokin Portal")
	v.SetDefault("EMAIL_DEBUG", false)

	v.SetDefault("VISITOR_BEACON_URL", "")
}

// Location resolves the configured timezone, falling back to the local zone
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// providerKey reads the vendor-specific API key variable for a provider
func providerKey(provider string) string {
	switch provider {
	case "gemini", "google":
		return getEnv("GEMINI_API_KEY", "")
	case "openai":
		return getEnv("OPENAI_API_KEY", "")
	case "anthropic":
		return getEnv("ANTHROPIC_API_KEY", "")
	}
	return ""
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

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
