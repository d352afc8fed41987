package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer              string        // Issuer name embedded in TOTP provisioning URIs
	AdminUsername       string        // Seed admin username, used only when the users table is empty
	AdminPassword       string        // Seed admin password, used only when the users table is empty
	DatabaseFile        string        // Path to SQLite database file (default: ./quartermaster.db)
	PepperFile          string        // Path to file containing pepper for password hashing (default: ./pepper)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SessionTTL          time.Duration // Idle session lifetime (default: 12h)
}

func LoadConfig() Config {
	return Config{
		Issuer:              getEnvOrDefault("QM_ISSUER", "Quartermaster"),
		AdminUsername:       os.Getenv("QM_ADMIN_USERNAME"),
		AdminPassword:       os.Getenv("QM_ADMIN_PASSWORD"),
		DatabaseFile:        getEnvOrDefault("QM_DATABASE_FILE", "quartermaster.db"),
		PepperFile:          getEnvOrDefault("QM_PEPPER_FILE", "pepper"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SessionTTL:          getEnvDurationOrDefault("QM_SESSION_TTL", 12*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
