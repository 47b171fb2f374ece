package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Insecure defaults that must never reach production
var insecureDefaults = map[string]bool{
	"your-secret-key-change-in-production": true,
	"marketplace-secret":                   true,
	"":                                     true,
}

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Storage      StorageConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Catalog      CatalogConfig
	Notification NotificationConfig
	JWT          JWTConfig
}

type ServerConfig struct {
	Port          string
	Mode          string
	PublicBaseURL string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	Schema      string
	SSLMode     string
	AutoMigrate bool
}

type StorageConfig struct {
	Driver string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Currency       string
}

type CatalogConfig struct {
	Dir         string
	HubVendorID string
}

type NotificationConfig struct {
	Recipient  string
	WebhookURL string
	SMTP       SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

type JWTConfig struct {
	SecretKey string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Mode:          getEnv("GIN_MODE", "release"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "marketplace"),
			Password:    getEnv("DB_PASSWORD", "marketplace"),
			DBName:      getEnv("DB_NAME", "marketplace"),
			Schema:      getEnv("DB_SCHEMA", "marketplace"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			SessionTTL: getEnvDuration("WIZARD_SESSION_TTL", 2*time.Hour),
		},
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:       strings.ToUpper(getEnv("PAYMENT_CURRENCY", "USD")),
		},
		Catalog: CatalogConfig{
			Dir:         getEnv("CATALOG_DIR", ""),
			HubVendorID: getEnv("TEMPLATE_HUB_VENDOR", "zendesk"),
		},
		Notification: NotificationConfig{
			Recipient:  getEnv("NOTIFICATION_EMAIL", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", ""),
				Port:     getEnv("SMTP_PORT", "587"),
				Username: getEnv("SMTP_USERNAME", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
				Sender:   getEnv("SMTP_SENDER", ""),
			},
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", ""),
		},
	}
}

// Validate checks the settings the service cannot run without
func (c *Config) Validate() error {
	if insecureDefaults[c.JWT.SecretKey] {
		return fmt.Errorf("JWT_SECRET_KEY must be set to a secure value (current value is insecure or empty)")
	}
	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters long")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver)
	}

	if c.Redis.SessionTTL <= 0 {
		return fmt.Errorf("WIZARD_SESSION_TTL must be positive")
	}

	return nil
}

// CheckoutEnabled reports whether both Stripe keys are present
func (c *StripeConfig) CheckoutEnabled() bool {
	return c.SecretKey != "" && c.PublishableKey != ""
}

func (c *DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
