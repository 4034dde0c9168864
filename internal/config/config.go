package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends accepted in STORE_BACKEND.
const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

// Config holds all configuration for the portal service.
type Config struct {
	Port                             string        `mapstructure:"PORT"`
	GinMode                          string        `mapstructure:"GIN_MODE"`
	LogLevel                         string        `mapstructure:"LOG_LEVEL"`
	FirebaseProjectID                string        `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string        `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string        `mapstructure:"CLIENT_URL"`
	StoreBackend                     string        `mapstructure:"STORE_BACKEND"`
	LoginPath                        string        `mapstructure:"LOGIN_PATH"`
	DashboardPath                    string        `mapstructure:"DASHBOARD_PATH"`
	SessionCookieName                string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieTTL                 time.Duration `mapstructure:"SESSION_COOKIE_TTL"`
	RedisAddr                        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword                    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB                          int           `mapstructure:"REDIS_DB"`
	SessionCacheTTL                  time.Duration `mapstructure:"SESSION_CACHE_TTL"`
	RabbitMQURL                      string        `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue                    string        `mapstructure:"RABBITMQ_QUEUE"`
	RateLimitRPS                     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst                   int           `mapstructure:"RATE_LIMIT_BURST"`
	NavMenuFile                      string        `mapstructure:"NAV_MENU_FILE"`
}

var keys = []string{
	"PORT",
	"GIN_MODE",
	"LOG_LEVEL",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"STORE_BACKEND",
	"LOGIN_PATH",
	"DASHBOARD_PATH",
	"SESSION_COOKIE_NAME",
	"SESSION_COOKIE_TTL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"SESSION_CACHE_TTL",
	"RABBITMQ_URL",
	"RABBITMQ_QUEUE",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"NAV_MENU_FILE",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", StoreFirestore)
	v.SetDefault("LOGIN_PATH", "/index.html")
	v.SetDefault("DASHBOARD_PATH", "/dashboard.html")
	v.SetDefault("SESSION_COOKIE_NAME", "__session")
	v.SetDefault("SESSION_COOKIE_TTL", 5*24*time.Hour)
	v.SetDefault("SESSION_CACHE_TTL", 5*time.Minute)
	v.SetDefault("RABBITMQ_QUEUE", "portal.documents")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations LoadConfig cannot express as defaults.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreFirestore, StoreMemory, c.StoreBackend)
	}
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must be an absolute path, got %q", c.LoginPath)
	}
	if !strings.HasPrefix(c.DashboardPath, "/") {
		return fmt.Errorf("DASHBOARD_PATH must be an absolute path, got %q", c.DashboardPath)
	}
	if c.SessionCookieName == "" {
		return errors.New("SESSION_COOKIE_NAME cannot be empty")
	}
	// Firebase only mints session cookies between 5 minutes and 14 days.
	if c.SessionCookieTTL < 5*time.Minute || c.SessionCookieTTL > 14*24*time.Hour {
		return fmt.Errorf("SESSION_COOKIE_TTL must be between 5m and 336h, got %s", c.SessionCookieTTL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Release reports whether gin should run in release mode.
func (c *Config) Release() bool {
	return strings.EqualFold(c.GinMode, "release")
}
