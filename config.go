package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cartflow/database"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the cartflow service.
type Config struct {
	Port     string
	Postgres database.PostgresConfig
	RedisURL string

	// Notification routing
	OperatorEmail  string
	SuppressionTTL time.Duration
	DigestAt       string // "HH:MM" local time
	TimeZone       string

	// Mail transport
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Optional event broker
	KafkaBrokers []string
	KafkaTopic   string

	SeedProducts bool
}

// LoadConfig reads configuration from environment variables, with an
// optional .env file for local development.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		OperatorEmail: getEnv("OPERATOR_EMAIL", "admin@cartflow.com"),
		DigestAt:      getEnv("DIGEST_AT", "20:00"),
		TimeZone:      getEnv("TIMEZONE", "Asia/Karachi"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		KafkaTopic:   getEnv("KAFKA_TOPIC", "order.completed"),
		SeedProducts: getEnv("SEED_PRODUCTS", "false") == "true",
	}

	ttl, err := time.ParseDuration(getEnv("SUPPRESSION_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUPPRESSION_TTL: %w", err)
	}
	cfg.SuppressionTTL = ttl

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.Postgres.User == "" || cfg.Postgres.Password == "" || cfg.Postgres.DBName == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
