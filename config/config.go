package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port        string
	GinMode     string
	Development bool
	LogLevel    string

	MongoURI      string
	MongoDatabase string

	JWTSecret string
	// JWTTTL of zero issues tokens without an expiry.
	JWTTTL time.Duration

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	PremiumAmount        int64
	PremiumCurrency      string

	SendGridAPIKey string
	MailFromEmail  string
	MailFromName   string
	BaseURL        string

	KafkaBootstrapServers string
	KafkaAPIKey           string
	KafkaAPISecret        string
	MailWorkers           int

	InternalAPIKey string

	ViewsDir  string
	PublicDir string
}

// Load reads an optional .env file and then the process environment.
// The bool result reports whether a .env file was found.
func Load() (*Config, bool, error) {
	envFile := godotenv.Load() == nil

	cfg := &Config{
		Port:                  getEnv("PORT", "3000"),
		GinMode:               getEnv("GIN_MODE", "release"),
		Development:           getEnv("APP_ENV", "production") == "development",
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDatabase:         getEnv("MONGO_DATABASE", "expense_tracker"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey:  os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PremiumCurrency:       strings.ToLower(getEnv("PREMIUM_CURRENCY", "inr")),
		SendGridAPIKey:        os.Getenv("SENDGRID_API_KEY"),
		MailFromEmail:         getEnv("MAIL_FROM_EMAIL", "no-reply@expense-tracker.local"),
		MailFromName:          getEnv("MAIL_FROM_NAME", "Expense Tracker"),
		BaseURL:               strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		KafkaBootstrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		KafkaAPIKey:           os.Getenv("KAFKA_API_KEY"),
		KafkaAPISecret:        os.Getenv("KAFKA_API_SECRET"),
		InternalAPIKey:        os.Getenv("INTERNAL_API_KEY"),
		ViewsDir:              getEnv("VIEWS_DIR", "views"),
		PublicDir:             getEnv("PUBLIC_DIR", "public"),
	}

	var err error
	if cfg.PremiumAmount, err = getInt64("PREMIUM_AMOUNT", 50000); err != nil {
		return nil, envFile, err
	}
	workers, err := getInt64("MAIL_WORKERS", 4)
	if err != nil {
		return nil, envFile, err
	}
	cfg.MailWorkers = int(workers)
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 0); err != nil {
		return nil, envFile, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, envFile, err
	}
	return cfg, envFile, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI environment variable not set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if c.PremiumAmount <= 0 {
		return fmt.Errorf("PREMIUM_AMOUNT must be positive, got %d", c.PremiumAmount)
	}
	if c.MailWorkers <= 0 {
		return fmt.Errorf("MAIL_WORKERS must be positive, got %d", c.MailWorkers)
	}
	return nil
}

// KafkaEnabled reports whether reset mails go through the Kafka queue.
func (c *Config) KafkaEnabled() bool {
	return c.KafkaBootstrapServers != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
