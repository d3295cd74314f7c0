package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	MongoURI        string
	MongoDB         string
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	PageSize        int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	RateLimit       float64
	RateBurst       int
}

func Load() Config {
	// A missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8000"),
		MongoURI:        getenv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:         getenv("MONGO_DB", "tarpaulin"),
		JWTSecret:       getenv("JWT_SECRET", ""),
		JWTIssuer:       getenv("JWT_ISSUER", "tarpaulin"),
		AccessTokenTTL:  getenvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		PageSize:        getenvInt("PAGE_SIZE", 10),
		RequestTimeout:  getenvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimit:       getenvFloat("RATE_LIMIT", 2),
		RateBurst:       getenvInt("RATE_BURST", 60),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
