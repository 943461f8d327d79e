package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the catalog resolver service
type Config struct {
	// Server
	Port        string
	Environment string

	// Database (primary supplier catalog + canonical style registry)
	DatabaseURL string

	// Remote supplier REST API
	SSActivewearBaseURL   string
	SSActivewearAccount   string
	SSActivewearAPIKey    string
	SSActivewearTimeout   time.Duration
	SSActivewearRateLimit float64 // requests per second

	// Caching
	ProductCacheTTL time.Duration
	StockCacheTTL   time.Duration

	// Retries
	RemoteMaxRetries int

	// CORS
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "commerce_portal")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8094"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		SSActivewearBaseURL:   getEnv("SSACTIVEWEAR_BASE_URL", "https://api.ssactivewear.com/v2"),
		SSActivewearAccount:   getEnv("SSACTIVEWEAR_ACCOUNT", ""),
		SSActivewearAPIKey:    getEnv("SSACTIVEWEAR_API_KEY", ""),
		SSActivewearTimeout:   getEnvAsDuration("SSACTIVEWEAR_TIMEOUT", 30*time.Second),
		SSActivewearRateLimit: getEnvAsFloat("SSACTIVEWEAR_RATE_LIMIT", 2),

		ProductCacheTTL: getEnvAsDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
		StockCacheTTL:   getEnvAsDuration("STOCK_CACHE_TTL", 5*time.Minute),

		RemoteMaxRetries: getEnvAsInt("REMOTE_MAX_RETRIES", 3),

		AllowedOrigins: []string{
			getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		},
	}

	if config.SSActivewearAccount == "" || config.SSActivewearAPIKey == "" {
		log.Println("Warning: SSACTIVEWEAR_ACCOUNT / SSACTIVEWEAR_API_KEY not set, remote supplier fetches will fail")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
