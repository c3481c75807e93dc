package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultRecognizerURL is the hosted Plate Recognizer reader endpoint.
	DefaultRecognizerURL = "https://api.platerecognizer.com/v1/plate-reader/"
	// RecognizerTokenEnv names the environment variable holding the upstream API token.
	RecognizerTokenEnv = "PLATE_RECOGNIZER_TOKEN"
	// DefaultMaxUploadBytes mirrors the client-side 8 MiB limit.
	DefaultMaxUploadBytes = 8 * 1024 * 1024
)

// DatabaseConfig holds PostgreSQL settings for the optional recognition audit log.
// The audit log is disabled when Host is empty. Zero pool values select the
// audit pool defaults in package database.
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

// Enabled reports whether an audit database was configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// RecognizerConfig holds settings for the upstream plate recognition API.
// The token is deliberately absent: it is read per request via RecognizerToken.
type RecognizerConfig struct {
	URL string
}

// UploadConfig holds limits applied to incoming images.
type UploadConfig struct {
	MaxFileSize int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost         string
	Port            string
	Timezone        string
	SwaggerEnabled  bool
	ShutdownTimeout time.Duration
	Recognizer      RecognizerConfig
	Upload          UploadConfig
	Database        DatabaseConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),

		SwaggerEnabled:  getEnvBool("SWAGGER_ENABLED", true),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		Recognizer: RecognizerConfig{
			URL: getEnv("PLATE_RECOGNIZER_URL", DefaultRecognizerURL),
		},
		Upload: UploadConfig{
			MaxFileSize: int64(getEnvInt("UPLOAD_MAX_FILE_SIZE", DefaultMaxUploadBytes)),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 0),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 0),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 0),
		},
	}
}

// RecognizerToken returns the upstream API token from the process environment.
// It is called on every request so a rotated token is picked up without a restart.
func RecognizerToken() string {
	return os.Getenv(RecognizerTokenEnv)
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
