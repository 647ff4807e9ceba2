// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
	RequestTimeout time.Duration
}

// StoreConfig selects and configures the comment repository
type StoreConfig struct {
	Type          string // "memory" or "mongo"
	MongoURI      string
	MongoDatabase string
}

// SessionConfig holds session store and token settings
type SessionConfig struct {
	RedisURL  string
	JWTSecret string
	TokenTTL  time.Duration
	LoginPath string
}

// GatewayConfig points at the backend gateway
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
	Dev     bool // serve an in-process gateway instead of calling BaseURL
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Store          *StoreConfig
	Session        *SessionConfig
	Gateway        *GatewayConfig
	AllowedOrigins []string
	LogLevel       string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
		RequestTimeout: 5 * time.Second,
	}
}

// DefaultStoreConfig keeps comments in memory, seeded from fixtures
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Type:          "memory",
		MongoDatabase: "riff_review",
	}
}

// DefaultSessionConfig provides default session settings
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		JWTSecret: "riff_review_dev_secret",
		TokenTTL:  24 * time.Hour,
		LoginPath: "/login",
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	envLocations := []string{
		".env",
		"../../.env", // project root when running from cmd/engine
		filepath.Join(os.Getenv("GOPATH"), "src/riff-review/.env"),
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		_ = godotenv.Load()
	}

	serverConfig := DefaultConfig()
	if port := getIntEnv("PORT", 0); port > 0 {
		serverConfig.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}
	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}
	serverConfig.RequestTimeout = getDurationEnv("REQUEST_TIMEOUT", serverConfig.RequestTimeout)

	storeConfig := DefaultStoreConfig()
	storeConfig.Type = strings.ToLower(getEnvOrDefault("STORE_TYPE", storeConfig.Type))
	storeConfig.MongoURI = os.Getenv("MONGODB_URI")
	storeConfig.MongoDatabase = getEnvOrDefault("MONGODB_DATABASE", storeConfig.MongoDatabase)

	sessionConfig := DefaultSessionConfig()
	sessionConfig.RedisURL = os.Getenv("REDIS_URL")
	sessionConfig.JWTSecret = getEnvOrDefault("JWT_SECRET", sessionConfig.JWTSecret)
	sessionConfig.TokenTTL = getDurationEnv("TOKEN_TTL", sessionConfig.TokenTTL)
	sessionConfig.LoginPath = getEnvOrDefault("LOGIN_PATH", sessionConfig.LoginPath)

	gatewayConfig := &GatewayConfig{
		BaseURL: getEnvOrDefault("GATEWAY_URL", "http://localhost:8000"),
		Timeout: getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),
		Dev:     os.Getenv("DEV_GATEWAY") == "true",
	}

	config := &Config{
		Server:         serverConfig,
		Store:          storeConfig,
		Session:        sessionConfig,
		Gateway:        gatewayConfig,
		AllowedOrigins: []string{"*"},
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the cross-field rules LoadConfig cannot express as defaults
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "memory":
	case "mongo":
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI environment variable is required when STORE_TYPE is mongo")
		}
	default:
		return fmt.Errorf("unsupported STORE_TYPE %q (want memory or mongo)", c.Store.Type)
	}
	if c.Session.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

// Address returns the host:port the HTTP server listens on
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
