package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	DBUrl                string
	DBMaxConns           int
	JWTSecret            string
	AppEnv               string
	EnableDocs           bool
	LogLevel             string
	OpenRouterAPIKey     string
	AIBaseURL            string
	AIModel              string
	AITimeout            time.Duration
	AnalyzeRatePerMinute int
	SupabaseURL          string
	SupabaseBucket       string
	SupabaseServiceKey   string
	S3Bucket             string
	S3Region             string
	S3PublicURL          string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:                 getEnv("PORT", "8001"),
		DBUrl:                getEnv("DB_URL", ""),
		DBMaxConns:           getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:            jwtSecret,
		AppEnv:               normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:           getEnvBool("ENABLE_API_DOCS", false),
		LogLevel:             strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		OpenRouterAPIKey:     getEnv("OPENROUTER_API_KEY", ""),
		AIBaseURL:            strings.TrimRight(getEnv("AI_BASE_URL", "https://openrouter.ai/api/v1"), "/"),
		AIModel:              getEnv("AI_MODEL", "openai/gpt-4o"),
		AITimeout:            getEnvDuration("AI_TIMEOUT", 30*time.Second),
		AnalyzeRatePerMinute: getEnvInt("ANALYZE_RATE_PER_MINUTE", 10),
		SupabaseURL:          getEnv("SUPABASE_URL", ""),
		SupabaseBucket:       getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey:   getEnv("SUPABASE_SERVICE_KEY", ""),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Region:             getEnv("S3_REGION", getEnv("AWS_REGION", "")),
		S3PublicURL:          strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseBucket != "" && c.SupabaseServiceKey != ""
}

func (c *Config) S3Configured() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}
