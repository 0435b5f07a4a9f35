package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PlaceholderGatewaySecret is only accepted outside production.
const PlaceholderGatewaySecret = "your-payment-gateway-secret"

const EnvironmentProduction = "production"

var ErrGatewaySecretRequired = errors.New("PAYMENT_GATEWAY_SECRET_KEY must be set in production")

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// TrustedProxies may set X-Forwarded-For; everyone else is keyed by
	// socket address.
	TrustedProxies []string

	GatewaySecret string

	FreshnessWindow time.Duration
	StepTimeout     time.Duration
	IdempotencyTTL  time.Duration
	OrderLockTTL    time.Duration

	RedisURL string

	IngressRateLimit float64
	IngressBurst     int

	OTLPEndpoint      string
	OTLPProtocol      string
	OtelEnabled       bool
	OtelSamplingRatio float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	SeedFixtures bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "campusswap"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   strings.ToLower(strings.TrimSpace(getenv("ENVIRONMENT", "development"))),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),

		TrustedProxies: getenvList("TRUSTED_PROXIES"),
		GatewaySecret: strings.TrimSpace(getenv("PAYMENT_GATEWAY_SECRET_KEY", "")),

		FreshnessWindow: getenvDuration("WEBHOOK_FRESHNESS_WINDOW", 5*time.Minute),
		StepTimeout:     getenvDuration("WEBHOOK_STEP_TIMEOUT", 5*time.Second),
		IdempotencyTTL:  getenvDuration("WEBHOOK_IDEMPOTENCY_TTL", 24*time.Hour),
		OrderLockTTL:    getenvDuration("WEBHOOK_ORDER_LOCK_TTL", 30*time.Second),

		RedisURL:         strings.TrimSpace(getenv("REDIS_URL", "")),
		IngressRateLimit: getenvFloat("WEBHOOK_RATE_LIMIT_RPS", 20),
		IngressBurst:     getenvInt("WEBHOOK_RATE_LIMIT_BURST", 40),

		OTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		OTLPProtocol:      strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OtelEnabled:       getenvBool("OTEL_ENABLED", false),
		OtelSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "campusswap"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),

		SeedFixtures: getenvBool("SEED_HARNESS_FIXTURES", false),

		SMTPHost:     strings.TrimSpace(getenv("SMTP_HOST", "")),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: strings.TrimSpace(getenv("SMTP_USERNAME", "")),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     strings.TrimSpace(getenv("SMTP_FROM", "")),

		LogLevel:  strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat: strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		LogFile:   strings.TrimSpace(getenv("LOG_FILE", "")),
	}

	if cfg.GatewaySecret == "" && !cfg.IsProduction() {
		cfg.GatewaySecret = PlaceholderGatewaySecret
	}

	return cfg
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	if c.IsProduction() {
		secret := strings.TrimSpace(c.GatewaySecret)
		if secret == "" || secret == PlaceholderGatewaySecret {
			return ErrGatewaySecretRequired
		}
	}
	if c.IsProduction() && c.SeedFixtures {
		return errors.New("SEED_HARNESS_FIXTURES cannot be enabled in production")
	}
	if c.StepTimeout <= 0 {
		return errors.New("WEBHOOK_STEP_TIMEOUT must be positive")
	}
	if c.FreshnessWindow < 0 {
		return errors.New("WEBHOOK_FRESHNESS_WINDOW cannot be negative")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// IsDevelopment covers the environments where debug logging is on by default.
func (c Config) IsDevelopment() bool {
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
