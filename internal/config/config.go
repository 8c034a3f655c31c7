// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int    `yaml:"port"`
	Host           string `yaml:"host"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// DatabaseConfig holds document-store configuration settings
type DatabaseConfig struct {
	Type string `yaml:"type"` // "mongo" or "memory"
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
}

// AuthConfig holds session and identity-provider settings
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	ProviderSecret string `yaml:"provider_secret"`
	ProviderIssuer string `yaml:"provider_issuer"`
}

// AssistConfig holds the generative content service settings.
// An empty APIKey disables the assist feature; it never blocks publish.
type AssistConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig   `yaml:"server"`
	Database       *DatabaseConfig `yaml:"database"`
	Auth           *AuthConfig     `yaml:"auth"`
	Assist         *AssistConfig   `yaml:"assist"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Debug          bool            `yaml:"debug"`
}

// DefaultConfig provides default settings
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			MetricsEnabled: true,
		},
		Database: &DatabaseConfig{
			Type: "mongo",
			Name: "leaflog",
		},
		Auth: &AuthConfig{
			ProviderIssuer: "leaflog-identity",
		},
		Assist: &AssistConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		},
		AllowedOrigins: []string{"*"},
	}
}

// LoadConfig loads configuration from an optional YAML file (CONFIG_FILE)
// and environment variables, with env taking precedence.
func LoadConfig() (*Config, error) {
	// Silent failure if no .env exists, which is fine
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}
	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		cfg.Server.MetricsEnabled = metricsEnabled == "true"
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		cfg.Database.Type = dbType
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		cfg.Database.URI = uri
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if secret := os.Getenv("IDENTITY_PROVIDER_SECRET"); secret != "" {
		cfg.Auth.ProviderSecret = secret
	}
	if issuer := os.Getenv("IDENTITY_PROVIDER_ISSUER"); issuer != "" {
		cfg.Auth.ProviderIssuer = issuer
	}

	if url := os.Getenv("ASSIST_BASE_URL"); url != "" {
		cfg.Assist.BaseURL = url
	}
	if key := os.Getenv("ASSIST_API_KEY"); key != "" {
		cfg.Assist.APIKey = key
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(file, cfg)
}
