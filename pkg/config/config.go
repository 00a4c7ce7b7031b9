package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. It is loaded once at startup and
// passed explicitly into every constructor; nothing reads the environment
// after Load returns.
type Config struct {
	Environment string
	Port        string

	// Database
	UseLocalDB  bool
	PostgresDSN string

	// Auth
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// Uploads
	UploadDir     string
	MaxUploadSize int64

	// CORS
	AllowedOrigins []string

	Debug bool
}

const defaultTokenTTL = 7 * 24 * time.Hour

// Load reads configuration from the environment, with .env support for
// local development.
func Load() *Config {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment:   getEnvWithDefault("ENVIRONMENT", "development"),
		Port:          getEnvWithDefault("PORT", "3001"),
		UseLocalDB:    getEnvBool("USE_LOCAL_DB", false),
		PostgresDSN:   strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		JWTSecret:     getEnvWithDefault("JWT_SECRET", "your-secret-key"),
		TokenTTL:      getEnvDuration("TOKEN_TTL", defaultTokenTTL),
		BcryptCost:    getEnvInt("BCRYPT_COST", 10),
		UploadDir:     getEnvWithDefault("UPLOAD_DIR", "./uploads"),
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_SIZE", 5*1024*1024)),
		Debug:         getEnvBool("DEBUG", false),
	}

	allowedOrigins := getEnvWithDefault("ALLOWED_ORIGINS", "*")
	if allowedOrigins == "*" {
		cfg.AllowedOrigins = []string{"*"}
	} else {
		origins := strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.AllowedOrigins = origins
	}

	if cfg.Environment == "production" {
		cfg.Debug = false
	}

	return cfg
}

// Validate checks that the configuration is usable before the server starts.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.JWTSecret == "" || c.JWTSecret == "your-secret-key" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	if !c.UseLocalDB && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required unless USE_LOCAL_DB=true")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	return nil
}

// IsProduction checks whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment checks whether the environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
