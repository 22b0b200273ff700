package config

import (
	"os"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	Port      string
	GinMode   string
	JWTSecret string

	// Gateway endpoints, overridable so sandbox accounts and tests can
	// point at a different host.
	CardknoxURL string
	StripeURL   string

	// Cron expression for the daily subscription billing sweep. Empty
	// disables the scheduler.
	BillingCronSpec string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "shulgenius"),
		DBPassword: getEnv("DB_PASSWORD", "shulgenius"),
		DBName:     getEnv("DB_NAME", "shulgenius"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		JWTSecret: getEnv("JWT_SECRET", "default-secret-key-change-me"),

		CardknoxURL: getEnv("CARDKNOX_URL", "https://x1.cardknox.com/gateway"),
		StripeURL:   getEnv("STRIPE_URL", "https://api.stripe.com"),

		BillingCronSpec: getEnv("BILLING_CRON", "0 3 * * *"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
