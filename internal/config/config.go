package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr        string
	MongoURI        string
	MongoDatabase   string
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	StripeSecretKey string
	Environment     string
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":5000"),
		MongoURI:        getenv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase:   getenv("MONGO_DB", "ronginDb"),
		JWTSecret:       getenv("ACCESS_TOKEN_SECRET", "dev-secret"),
		JWTIssuer:       getenv("JWT_ISSUER", "rongin-academy"),
		AccessTokenTTL:  getenvDuration("ACCESS_TOKEN_TTL", time.Hour),
		StripeSecretKey: getenv("PAYMENT_SECRET_KEY", ""),
		Environment:     getenv("ENV", "development"),
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
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
