package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	RateLimit      RateLimitConfig
	AdminBootstrap AdminBootstrapConfig
	Logging        LoggingConfig
	Environment    string
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

type RateLimitConfig struct {
	PublicPerMinute   int
	AdminPerMinute    int
	LoginPer15Minutes int
}

type AdminBootstrapConfig struct {
	Username string
	Password string
	Email    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			ConnectTimeout: time.Duration(getEnvInt("DATABASE_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "gatherpoint"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			AdminPerMinute:    getEnvInt("RATE_LIMIT_ADMIN", 0),
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN", 5),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
