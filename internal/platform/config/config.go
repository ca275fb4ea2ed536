package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Auth     Auth
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Serial   SerialConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	LoginRatePerMinute int
	// TrustedProxies are CIDRs or addresses whose forwarding headers are
	// believed when resolving the client IP.
	TrustedProxies     []string
}

// Auth holds token and cache settings for authentication.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	TokenTTL      time.Duration
	UserCacheTTL  time.Duration
	BcryptCost    int
}

// RedisConfig configures the shared Redis client. An empty URL means Redis is
// not configured and in-memory fallbacks are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the relational store. Empty URL selects the
// in-memory stores.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures the audit event stream.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// SerialConfig namespaces the serial counters in Redis.
type SerialConfig struct {
	Namespace string
}

// DefaultUserCacheTTL is how long a resolved user stays cached.
const DefaultUserCacheTTL = 24 * time.Hour

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:               envString("CLEARLEDGER_ADDR", ":8080"),
			ReadTimeout:        envDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       envDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:        envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			LoginRatePerMinute: envInt("LOGIN_RATE_PER_MINUTE", 30),
			TrustedProxies:     envList("TRUSTED_PROXIES"),
		},
		Auth: Auth{
			JWTSigningKey: jwtSigningKey,
			JWTIssuer:     envString("JWT_ISSUER", "clearledger"),
			TokenTTL:      envDuration("JWT_TTL", 7*24*time.Hour),
			UserCacheTTL:  envDuration("USER_CACHE_TTL", DefaultUserCacheTTL),
			BcryptCost:    envInt("BCRYPT_COST", 10),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "clearledger.audit"),
		},
		Serial: SerialConfig{
			Namespace: envString("SERIAL_NAMESPACE", "clearledger"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
