package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CLEARLEDGER_ADDR", "")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("USER_CACHE_TTL", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NotEmpty(t, cfg.Auth.JWTSigningKey)
	assert.Equal(t, DefaultUserCacheTTL, cfg.Auth.UserCacheTTL)
	assert.Equal(t, "clearledger", cfg.Serial.Namespace)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CLEARLEDGER_ADDR", ":9000")
	t.Setenv("USER_CACHE_TTL", "90m")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.10")

	cfg := FromEnv()
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 90*time.Minute, cfg.Auth.UserCacheTTL)
	assert.Equal(t, 5, cfg.Server.LoginRatePerMinute)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.Server.TrustedProxies)
}
