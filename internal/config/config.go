package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Inbox    InboxConfig
	Auth     AuthConfig
	S3       S3Config
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig controls the preview cache. The cache is a pure accelerator:
// disabling it changes latency, never output.
type CacheConfig struct {
	Enabled        bool
	TTL            time.Duration
	JitterFraction float64
}

// InboxConfig tunes the inbox read paths and the push stream.
type InboxConfig struct {
	StoreConcurrency  int64
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	DefaultPageSize   int
	MaxPageSize       int
}

type AuthConfig struct {
	JWTSecret string
}

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PresignTTL time.Duration
}

// LoadConfig loads configuration from environment variables.
// Defaults can be set here if needed.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "bookline"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 100),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled:        getEnvAsBool("PREVIEW_CACHE_ENABLED", true),
			TTL:            time.Duration(getEnvAsInt("PREVIEW_CACHE_TTL_SECONDS", 20)) * time.Second,
			JitterFraction: getEnvAsFloat("PREVIEW_CACHE_JITTER", 0.2),
		},
		Inbox: InboxConfig{
			StoreConcurrency:  int64(getEnvAsInt("INBOX_STORE_CONCURRENCY", 32)),
			PollInterval:      time.Duration(getEnvAsInt("INBOX_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
			HeartbeatInterval: time.Duration(getEnvAsInt("INBOX_HEARTBEAT_SECONDS", 25)) * time.Second,
			DefaultPageSize:   getEnvAsInt("INBOX_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:       getEnvAsInt("INBOX_MAX_PAGE_SIZE", 100),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me"),
		},
		S3: S3Config{
			Region:     getEnv("S3_REGION", ""),
			Bucket:     getEnv("S3_BUCKET", ""),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			PresignTTL: time.Duration(getEnvAsInt("S3_PRESIGN_TTL_SECONDS", 900)) * time.Second,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
