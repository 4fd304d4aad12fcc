package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPlatformDefaultsHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// PublicBaseURL is the externally reachable origin used to build webhook URLs.
	PublicBaseURL string

	OTLPEndpoint string

	// NodeID seeds the snowflake generator and must differ per replica.
	NodeID int64

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
	DBSlowQuery       time.Duration

	// PlatformConfigSecret derives the key that encrypts stored vendor credentials.
	PlatformConfigSecret string

	Vendor    VendorConfig
	Sync      SyncConfig
	RateLimit RateLimitConfig
	Kafka     KafkaConfig
}

// VendorConfig tunes outbound calls to payment platforms.
type VendorConfig struct {
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// SyncConfig controls the periodic transaction sync.
type SyncConfig struct {
	Enabled     bool
	Interval    time.Duration
	JobTimeout  time.Duration
	LockTTL     time.Duration
	Concurrency int
}

// RateLimitConfig configures redis-backed limits and locks.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WebhookRate  float64
	WebhookBurst int
}

type KafkaConfig struct {
	Brokers string
	Topic   string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:              getenv("APP_SERVICE", "paybridge"),
		AppVersion:           getenv("APP_VERSION", "0.1.0"),
		Environment:          getenv("ENVIRONMENT", "development"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL:        strings.TrimRight(strings.TrimSpace(getenv("PUBLIC_BASE_URL", "")), "/"),
		OTLPEndpoint:         getenv("OTLP_ENDPOINT", "localhost:4317"),
		NodeID:               int64(getenvInt("SNOWFLAKE_NODE_ID", 1)),
		DBType:               getenv("DATABASE_TYPE", "postgres"),
		DBHost:               getenv("DATABASE_HOST", "localhost"),
		DBPort:               getenv("DATABASE_PORT", "5432"),
		DBName:               getenv("DATABASE_NAME", "postgres"),
		DBUser:               getenv("DATABASE_USER", "postgres"),
		DBPassword:           getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:            getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:        getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:        getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:    getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:    getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBSlowQuery:          getenvDuration("DATABASE_SLOW_QUERY", 200*time.Millisecond),
		PlatformConfigSecret: strings.TrimSpace(getenv("PLATFORM_CONFIG_SECRET", "")),
		Vendor: VendorConfig{
			Timeout:        getenvDuration("VENDOR_HTTP_TIMEOUT", 15*time.Second),
			RequestsPerSec: getenvFloat("VENDOR_HTTP_RATE", 5),
			Burst:          getenvInt("VENDOR_HTTP_BURST", 10),
		},
		Sync: SyncConfig{
			Enabled:     getenvBool("SYNC_ENABLED", true),
			Interval:    getenvDuration("SYNC_INTERVAL", 15*time.Minute),
			JobTimeout:  getenvDuration("SYNC_JOB_TIMEOUT", 2*time.Minute),
			LockTTL:     getenvDuration("SYNC_LOCK_TTL", 5*time.Minute),
			Concurrency: getenvInt("SYNC_CONCURRENCY", 4),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("REDIS_DB", 0),
			WebhookRate:   getenvFloat("WEBHOOK_RATE", 50),
			WebhookBurst:  getenvInt("WEBHOOK_BURST", 100),
		},
		Kafka: KafkaConfig{
			Brokers: strings.TrimSpace(getenv("KAFKA_BROKERS", "")),
			Topic:   getenv("KAFKA_TRANSACTIONS_TOPIC", "paybridge.transactions"),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
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
