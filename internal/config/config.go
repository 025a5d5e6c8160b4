package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-only-secret-change-me-in-production-0123"

type Config struct {
	Environment       string
	HTTPPort          string
	CORSOrigins       string
	JWTSecret         string
	JWTTTLHours       int
	LogLevel          string
	LowStockThreshold int
	StrictStock       bool   // oversell becomes InsufficientStock instead of clamping at 0
	DatabaseDSN       string // empty: audit trail stays in memory
	RedisAddr         string // empty: stock alerts are only logged
	RedisPassword     string
	RedisDB           int
	RateLimitRPS      int
	RateLimitBurst    int
	SeedDemo          bool
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		JWTSecret:         getEnv("JWT_SECRET", devJWTSecret),
		JWTTTLHours:       getEnvAsInt("JWT_TTL_HOURS", 12),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LowStockThreshold: getEnvAsInt("LOW_STOCK_THRESHOLD", 10),
		StrictStock:       getEnvAsBool("STRICT_STOCK", false),
		DatabaseDSN:       getEnv("DATABASE_DSN", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		RateLimitRPS:      getEnvAsInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 40),
		SeedDemo:          getEnvAsBool("SEED_DEMO", false),
	}

	return cfg, cfg.Validate()
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters")
		}
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD cannot be negative")
	}
	if c.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// CORSOriginList splits the comma separated CORS_ALLOWED_ORIGINS value.
func (c *Config) CORSOriginList() []string {
	origins := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}
