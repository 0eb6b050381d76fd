package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	// TrustedProxies lists CIDRs or bare IPs allowed to set X-Forwarded-For.
	TrustedProxies []string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Outbox   OutboxConfig

	// IBANCacheTTL bounds how long IBAN lookups stay in Redis.
	IBANCacheTTL time.Duration
}

// DatabaseConfig holds Postgres settings. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis settings. An empty URL disables the IBAN cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds producer and consumer settings. Empty brokers keep audit
// events in memory.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
	// AuditConsumerGroup projects the audit topic into audit_events.
	AuditConsumerGroup string
	Acks               string
	Retries            int
	DeliveryTimeout    time.Duration
}

// OutboxConfig tunes the outbox worker.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
}

// Enabled reports whether a broker list was configured.
func (k KafkaConfig) Enabled() bool {
	return strings.TrimSpace(k.Brokers) != ""
}

// IsProduction reports whether the service runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

const devSigningKey = "dev-secret-key-change-in-production"

// ErrDevSigningKey is returned by Validate when production runs on the
// built-in development JWT key.
var ErrDevSigningKey = errors.New("JWT_SIGNING_KEY must be set in production")

// Validate rejects settings that are only safe outside production.
func (s Server) Validate() error {
	if s.IsProduction() && s.JWTSigningKey == devSigningKey {
		return ErrDevSigningKey
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:           getString("IBAN_MANAGER_ADDR", ":8080"),
		Environment:    getString("ENVIRONMENT", "development"),
		LogLevel:       getString("LOG_LEVEL", "info"),
		JWTSigningKey:  getString("JWT_SIGNING_KEY", devSigningKey),
		TrustedProxies: getList("TRUSTED_PROXIES"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:            os.Getenv("KAFKA_BROKERS"),
			AuditTopic:         getString("KAFKA_AUDIT_TOPIC", "ibanmanager.audit.events"),
			AuditConsumerGroup: getString("KAFKA_AUDIT_CONSUMER_GROUP", "ibanmanager-audit-trail"),
			Acks:               getString("KAFKA_ACKS", "all"),
			Retries:            getInt("KAFKA_RETRIES", 3),
			DeliveryTimeout:    getDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
		Outbox: OutboxConfig{
			PollInterval: getDuration("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
			BatchSize:    getInt("OUTBOX_BATCH_SIZE", 100),
			Retention:    getDuration("OUTBOX_RETENTION", 7*24*time.Hour),
		},
		IBANCacheTTL: getDuration("IBAN_CACHE_TTL", 10*time.Minute),
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
