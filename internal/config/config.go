package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Env         string
	Port        string
	MongoURI    string
	DBName      string
	FrontendURL string

	JWTSecret      string
	AccessTokenTTL time.Duration
	CookieTTL      time.Duration

	// StorageDriver selects the blob backend: "local" or "minio".
	StorageDriver  string
	UploadDir      string
	UploadBaseURL  string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	MaxUploadFiles int
	MaxUploadBytes int64

	// VolatileHosts lists object-storage providers whose URLs carry rotating
	// query parameters; image comparisons fall back to path-only matching for
	// these hosts.
	VolatileHosts []string

	// RedisAddr enables the listing read cache when non-empty.
	RedisAddr string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		Env:         getEnvOrDefault("APP_ENV", "development"),
		Port:        getEnvOrDefault("PORT", "3000"),
		MongoURI:    getEnvOrDefault("MONGO_URI", ""),
		DBName:      getEnvOrDefault("DB_NAME", "listygo"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),

		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("JWT_EXPIRE", 24, time.Hour),
		CookieTTL:      getDurationEnv("JWT_COOKIE_EXPIRE", 30, 24*time.Hour),

		StorageDriver:  getEnvOrDefault("STORAGE_DRIVER", "local"),
		UploadDir:      getEnvOrDefault("UPLOAD_DIR", "public/uploads"),
		UploadBaseURL:  getEnvOrDefault("UPLOAD_BASE_URL", "http://localhost:3000/uploads"),
		MinIOEndpoint:  getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    getEnvOrDefault("MINIO_BUCKET", "listygo-images"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),

		MaxUploadFiles: getIntEnv("MAX_UPLOAD_FILES", 5),
		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_MB", 50)) << 20,

		VolatileHosts: getListEnv("IMAGE_VOLATILE_HOSTS",
			"firebasestorage.googleapis.com,storage.googleapis.com"),

		RedisAddr: getEnvOrDefault("REDIS_ADDR", ""),
	}
}

func (c Config) IsProd() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	raw := getEnvOrDefault(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
