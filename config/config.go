package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Raffle configuration
	TotalTickets   int
	TicketsPerPage int
	TicketPrice    decimal.Decimal
	DrawDate       string

	// Payment configuration
	PixKey        string
	PixKeyDisplay string
	// SupportPhone is the full international digits of the number that
	// receives payment proofs, e.g. 5511981102244.
	SupportPhone       string
	CountryCallingCode string

	// Admin configuration
	AdminPassword   string
	AdminSessionTTL time.Duration

	// Session configuration
	SessionTTL time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Raffle
		TotalTickets:   getEnvAsInt("TOTAL_TICKETS", 1000),
		TicketsPerPage: getEnvAsInt("TICKETS_PER_PAGE", 100),
		TicketPrice:    getEnvAsDecimal("TICKET_PRICE", "5"),
		DrawDate:       getEnv("DRAW_DATE", "28/03/2026"),

		// Payment
		PixKey:             getEnv("PIX_KEY", ""),
		PixKeyDisplay:      getEnv("PIX_KEY_DISPLAY", ""),
		SupportPhone:       getEnv("SUPPORT_PHONE", ""),
		CountryCallingCode: getEnv("COUNTRY_CALLING_CODE", "55"),

		// Admin
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		AdminSessionTTL: getEnvAsDuration("ADMIN_SESSION_TTL", "12h"),

		// Sessions
		SessionTTL: getEnvAsDuration("SESSION_TTL", "24h"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsDecimal(key string, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	if value, err := decimal.NewFromString(valueStr); err == nil {
		return value
	}
	value, _ := decimal.NewFromString(defaultValue)
	return value
}
