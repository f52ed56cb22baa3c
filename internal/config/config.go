package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL registry connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds settings for the upstream S3-compatible blob store.
type MinIOConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
	// RefreshSkew is how far ahead of credential expiry a refresh is triggered.
	RefreshSkew time.Duration
}

// AuthConfig holds bearer-token verification settings.
// The service only verifies tokens; it is not an identity provider.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// HandleConfig tunes handle issuance and the upstream retry budget.
type HandleConfig struct {
	// TTL is the validity window for issued handles. Values outside the
	// 5-15 minute window are clamped at client construction.
	TTL            time.Duration
	MaxAttempts    int
	AttemptTimeout time.Duration
	BackoffInitial time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	LogLevel  string
	LogFormat string
	Auth      AuthConfig
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Handle    HandleConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:   getEnv("APP_HOST", "localhost:8080"),
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:     getEnv("MINIO_ENDPOINT", ""),
			AccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:    getEnv("MINIO_SECRET_KEY", ""),
			SessionToken: getEnv("MINIO_SESSION_TOKEN", ""),
			UseSSL:       getEnvBool("MINIO_USE_SSL", false),
			RefreshSkew:  getEnvDuration("MINIO_CRED_REFRESH_SKEW_SEC", time.Second, 60*time.Second),
		},
		Handle: HandleConfig{
			TTL:            getEnvDuration("HANDLE_TTL_SEC", time.Second, 10*time.Minute),
			MaxAttempts:    getEnvInt("UPSTREAM_MAX_ATTEMPTS", 3),
			AttemptTimeout: getEnvDuration("UPSTREAM_ATTEMPT_TIMEOUT_SEC", time.Second, 5*time.Second),
			BackoffInitial: getEnvDuration("UPSTREAM_BACKOFF_INITIAL_MS", time.Millisecond, 200*time.Millisecond),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration reads a non-negative integer env var and scales it by unit.
// The unit is explicit so it always matches the key's documented suffix.
func getEnvDuration(key string, unit, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return time.Duration(i) * unit
}
