package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds all configuration for the application
type Config struct {
	Port     string
	LogLevel string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqBaseURL  string
	GroqModel    string
	PromptFile   string

	RedisAddr     string
	RedisPassword string
	TranscriptTTL time.Duration
	TokenCacheTTL time.Duration

	DatabaseURL     string
	JWTSecret       string
	SessionDuration time.Duration
	AdminUsername   string
	AdminPassword   string

	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitInterval  time.Duration
	MaxQueryTokens     int
	IdleTimeout        time.Duration
}

// ------------------------------------------------------------------------------------------------------
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:  getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:    getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		PromptFile:   getEnv("PROMPT_FILE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		TranscriptTTL: getEnvAsDuration("TRANSCRIPT_TTL", 24*time.Hour),
		TokenCacheTTL: getEnvAsDuration("TOKEN_CACHE_TTL", time.Hour),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionDuration: getEnvAsDuration("SESSION_DURATION", 8*time.Hour),
		AdminUsername:   getEnv("ADMIN_USERNAME", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),

		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitInterval:  getEnvAsDuration("RATE_LIMIT_INTERVAL", time.Second),
		MaxQueryTokens:     getEnvAsInt("MAX_QUERY_TOKENS", 512),
		IdleTimeout:        getEnvAsDuration("CONVERSATION_IDLE_TIMEOUT", 2*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want %s or %s)", c.LLMProvider, ProviderGemini, ProviderGroq)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ------------------------------------------------------------------------------------------------------
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ------------------------------------------------------------------------------------------------------
// getEnvAsDuration accepts Go duration strings ("90s", "8h")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ------------------------------------------------------------------------------------------------------
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
