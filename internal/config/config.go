// Package config loads runtime configuration from the environment, with an
// optional YAML file layered underneath. Environment variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Uploads     UploadsConfig
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

type RateLimitConfig struct {
	PublicPerMinute int
	AuthPerMinute   int
	LoginPerMinute  int
}

type UploadsConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// fileConfig mirrors the YAML config file shape. Only values the environment
// does not set are taken from it.
type fileConfig struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret          string `yaml:"jwt_secret"`
		TokenExpiryMinutes int    `yaml:"token_expiry_minutes"`
	} `yaml:"auth"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Uploads struct {
		Dir string `yaml:"dir"`
	} `yaml:"uploads"`
}

func Load() (Config, error) {
	return LoadWithFile("")
}

// LoadWithFile reads the optional YAML file at path, then overlays the
// environment on top of it.
func LoadWithFile(path string) (Config, error) {
	var file fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", fallback(file.Server.Host, "0.0.0.0")),
			Port:    getEnvInt("SERVER_PORT", fallbackInt(file.Server.Port, 8080)),
			BaseURL: getEnv("SERVER_BASE_URL", fallback(file.Server.BaseURL, "http://localhost:8080")),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", file.Database.URL),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", file.Auth.JWTSecret),
			TokenExpiry: time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRY_MINUTES", fallbackInt(file.Auth.TokenExpiryMinutes, 30))) * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", fallback(file.Logging.Level, "info")),
			Format: getEnv("LOG_FORMAT", fallback(file.Logging.Format, "json")),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 120),
			AuthPerMinute:   getEnvInt("RATE_LIMIT_AUTH", 300),
			LoginPerMinute:  getEnvInt("RATE_LIMIT_LOGIN", 10),
		},
		Uploads: UploadsConfig{
			Dir:          getEnv("UPLOADS_DIR", fallback(file.Uploads.Dir, "uploads/events")),
			MaxSizeBytes: int64(getEnvInt("UPLOADS_MAX_SIZE_BYTES", 5<<20)),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	cfg.CORS = loadCORS(cfg.Environment)

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Environment == "production" && !cfg.CORS.AllowAllOrigins && len(cfg.CORS.AllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	return cfg, nil
}

func loadCORS(environment string) CORSConfig {
	if environment != "production" {
		return CORSConfig{AllowAllOrigins: true}
	}
	return CORSConfig{AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS")}
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

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func fallbackInt(value, def int) int {
	if value != 0 {
		return value
	}
	return def
}
