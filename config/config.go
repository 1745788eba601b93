package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"mocca-storefront/database"
	"mocca-storefront/services/email"
	"mocca-storefront/utils"
)

type Config struct {
	Env        string
	Database   database.DatabaseConfig
	SMTP       email.SMTPConfig
	Server     ServerConfig
	Redis      RedisConfig
	Backend    BackendConfig
	Razorpay   RazorpayConfig
	Session    SessionConfig
	Cloudinary CloudinaryConfig
	Pricing    PricingConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	AllowedOrigin   string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RazorpayConfig struct {
	KeyID        string
	Currency     string
	MerchantName string
	ThemeColor   string
}

type SessionConfig struct {
	Secret string
	Domain string
	MaxAge int
	Secure bool
}

type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string
}

type PricingConfig struct {
	DeliveryFee decimal.Decimal
	GST         decimal.Decimal
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "production"),
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		SMTP: email.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@mocca.store"),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			AllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
			WorkerConcurrency: clamp(getInt("WORKER_CONCURRENCY", 2), 2, 8),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:3000"),
			Timeout: getDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		Razorpay: RazorpayConfig{
			KeyID:        os.Getenv("RAZORPAY_KEY_ID"),
			Currency:     getEnv("RAZORPAY_CURRENCY", "INR"),
			MerchantName: getEnv("RAZORPAY_MERCHANT_NAME", "MOCCA"),
			ThemeColor:   getEnv("RAZORPAY_THEME_COLOR", "#F37254"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Domain: os.Getenv("SESSION_DOMAIN"),
			MaxAge: getInt("SESSION_MAX_AGE", 7*24*3600),
			Secure: getEnv("SESSION_SECURE", "true") == "true",
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
			UploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		},
		Pricing: PricingConfig{
			DeliveryFee: getDecimal("DELIVERY_FEE"),
			GST:         getDecimal("GST_AMOUNT"),
		},
	}

	if cfg.Session.Secret == "" && cfg.Env == "development" {
		cfg.Session.Secret = utils.GenerateRandomString(64)
		log.Printf("Warning: SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	return cfg
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDecimal(key string) decimal.Decimal {
	v, err := decimal.NewFromString(os.Getenv(key))
	if err != nil {
		return decimal.Zero
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
