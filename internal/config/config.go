package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DB           DatabaseConfig
	Redis        RedisConfig
	Storage      StorageConfig
	SMTP         SMTPConfig
	Verification VerificationConfig
	CORS         CORSConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig contains parameters for the S3-compatible media store.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Configured reports whether real storage credentials are present. Placeholder
// values copied from an example .env count as unconfigured.
func (c *StorageConfig) Configured() bool {
	if c.Endpoint == "" || c.AccessKey == "" || c.SecretKey == "" {
		return false
	}
	return !strings.Contains(c.AccessKey, "YOUR_") && !strings.Contains(c.SecretKey, "YOUR_")
}

// SMTPConfig contains parameters for outbound verification email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether SMTP delivery can be attempted.
func (c *SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// VerificationConfig contains the subscription verification parameters.
type VerificationConfig struct {
	CodeTTL time.Duration
	// ExposeCodes echoes raw verification codes in API responses. Development
	// convenience only; must stay off in production.
	ExposeCodes bool
}

// CORSConfig contains the hosts allowed to call the API from a browser.
type CORSConfig struct {
	AllowedHosts []string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "3000")
	cfg.Env = getEnv("ENV", "development")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Media storage (S3-compatible)
	cfg.Storage = StorageConfig{
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		Bucket:    getEnv("STORAGE_BUCKET", "user-photo-video"),
		UseSSL:    getEnvBool("STORAGE_USE_SSL", true),
	}

	// SMTP
	cfg.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("EMAIL_FROM", "onboarding@pi-directory.dev"),
	}

	// Verification
	var err error
	cfg.Verification.CodeTTL, err = parseDurationEnv("VERIFICATION_CODE_TTL", "15m")
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFICATION_CODE_TTL: %w", err)
	}
	cfg.Verification.ExposeCodes = getEnvBool("DEBUG_EXPOSE_CODES", false)

	// CORS
	hosts := getEnv("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000")
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			cfg.CORS.AllowedHosts = append(cfg.CORS.AllowedHosts, strings.ToLower(h))
		}
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvBool returns the value of an environment variable as a boolean or a default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be > 0")
	}
	return d, nil
}
