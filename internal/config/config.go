package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT. Exactly one of JWTSecret / JWTBase64Secret is expected.
	JWTSecret                  string
	JWTBase64Secret            string
	JWTTokenValidity           time.Duration
	JWTTokenValidityRememberMe time.Duration

	// User lookup caches
	CacheBackend    string
	CacheTTL        time.Duration
	CacheMaxEntries int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Mail
	MailTransport  string
	MailFrom       string
	MailBaseURL    string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	KafkaBrokers   []string
	KafkaMailTopic string

	// Password policy enforced by the REST layer
	PasswordMinLength int
	PasswordMaxLength int

	// Hour of day (server local time) at which stale accounts are purged
	PurgeHour int

	AdminInitialPassword string

	// Server
	Port        string
	CORSOrigins string
	Env         string
	SentryDSN   string
}

// Load reads the configuration from the environment. Outside of production a
// .env file in the working directory is overlaid first.
func Load() *Config {
	if os.Getenv("APP_ENV") != "prod" {
		if err := godotenv.Overload(); err != nil && !os.IsNotExist(err) {
			slog.Warn("could not load .env file", "error", err)
		}
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "skc"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:                  getEnv("JWT_SECRET", ""),
		JWTBase64Secret:            getEnv("JWT_BASE64_SECRET", ""),
		JWTTokenValidity:           parseDuration(getEnv("JWT_TOKEN_VALIDITY", "")),
		JWTTokenValidityRememberMe: parseDuration(getEnv("JWT_TOKEN_VALIDITY_REMEMBER_ME", "")),

		CacheBackend:    getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:        parseDurationOr(getEnv("CACHE_TTL", "1h"), time.Hour),
		CacheMaxEntries: parseInt(getEnv("CACHE_MAX_ENTRIES", "100"), 100),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         parseInt(getEnv("REDIS_DB", "0"), 0),

		MailTransport:  getEnv("MAIL_TRANSPORT", "log"),
		MailFrom:       getEnv("MAIL_FROM", "skc@localhost"),
		MailBaseURL:    getEnv("MAIL_BASE_URL", "http://127.0.0.1:8080"),
		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       parseInt(getEnv("SMTP_PORT", "25"), 25),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		KafkaBrokers:   parseCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaMailTopic: getEnv("KAFKA_MAIL_TOPIC", "skc.mail"),

		PasswordMinLength: parseInt(getEnv("PASSWORD_MIN_LENGTH", "4"), 4),
		PasswordMaxLength: parseInt(getEnv("PASSWORD_MAX_LENGTH", "100"), 100),

		PurgeHour: parseInt(getEnv("PURGE_HOUR", "1"), 1),

		AdminInitialPassword: getEnv("ADMIN_INITIAL_PASSWORD", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		Env:         getEnv("APP_ENV", "dev"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// parseDuration returns zero for empty or malformed input so that callers can
// detect a missing setting.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if d := parseDuration(s); d > 0 {
		return d
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
