package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort       string
	Environment      string
	DatabaseURL      string
	NatsURL          string
	RedisURL         string
	StorageBucket    string
	PublicBucket     string
	GCPCredentials   string
	JWTSecret        string
	SessionCacheTTL  time.Duration
	DirectHistory    int
	ListingHistory   int
	MaxAttachmentMB  int64
	MaxAttachments   int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		DatabaseURL:     getEnv("DATABASE_URL", "postgres://localhost:5432/rently"),
		NatsURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StorageBucket:   getEnv("STORAGE_BUCKET", "attachments"),
		PublicBucket:    getEnv("PUBLIC_BUCKET", "public"),
		GCPCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key"),
		SessionCacheTTL: time.Duration(getEnvAsInt64("SESSION_CACHE_TTL_SECONDS", 600)) * time.Second,
		DirectHistory:   int(getEnvAsInt64("DIRECT_HISTORY_LIMIT", 200)),
		ListingHistory:  int(getEnvAsInt64("LISTING_HISTORY_LIMIT", 50)),
		MaxAttachmentMB: getEnvAsInt64("MAX_ATTACHMENT_MB", 50),
		MaxAttachments:  int(getEnvAsInt64("MAX_ATTACHMENTS", 10)),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
