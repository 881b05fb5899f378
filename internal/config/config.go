package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations and locations

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For the tax rate
	"github.com/sirupsen/logrus"    // For reporting bad values
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	MailAPIKey  string          // Resend API key, empty disables delivery
	MailFrom    string          // Sender address for outgoing mail
	TaxRate     decimal.Decimal // Estimated income tax rate (0.25 = 25%)
	Location    *time.Location  // Timezone used to decide what "today" is
	DigestCron  string          // Cron spec for the daily digest
	CronEnabled bool            // Run scheduled jobs inside the server
	SessionTTL  time.Duration   // Lifetime of a login session
	CacheTTL    time.Duration   // Lifetime of cached dashboard responses
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),     // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"), // Database host
		DBPort:     getEnv("DB_PORT", "3306"),      // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:  getEnv("REDIS_ADDR", ""),       // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment
		MailAPIKey: os.Getenv("MAIL_API_KEY"),      // Mail provider key
		MailFrom:   getEnv("MAIL_FROM", "Project Hub <noreply@example.com>"),

		TaxRate:     parseDecimal("TAX_RATE", decimal.RequireFromString("0.25")),
		Location:    parseLocation(getEnv("TIMEZONE", "UTC")),
		DigestCron:  getEnv("DIGEST_CRON", "0 7 * * *"),
		CronEnabled: os.Getenv("CRON_ENABLED") == "true",
		SessionTTL:  time.Duration(parseInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		CacheTTL:    time.Duration(parseInt("CACHE_TTL_SECONDS", 60)) * time.Second,
	}
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logrus.WithField("key", key).Warn("invalid integer in environment, using default")
		return fallback
	}
	return v
}

func parseDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		logrus.WithField("key", key).Warn("invalid decimal in environment, using default")
		return fallback
	}
	return v
}

func parseLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logrus.WithField("timezone", name).Warn("unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}
