package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("IDENTITY_MODE", "")
	t.Setenv("BFF_FORWARD_TARGET", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("PROXY_TIMEOUT", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_URL", "")

	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "header", cfg.IdentityMode)
	assert.Equal(t, ForwardTargetGateway, cfg.ForwardTarget)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Zero(t, cfg.ProxyTimeout)
	assert.Equal(t, "JSESSIONID", cfg.SessionCookieName)
	assert.False(t, cfg.UseRedis())
	assert.True(t, cfg.IsDevLike())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("IDENTITY_MODE", "JWT")
	t.Setenv("BFF_FORWARD_TARGET", "backend")
	t.Setenv("BACKEND_URL", "http://backend:8081/")
	t.Setenv("BFF_DOWNSTREAM_AUTH", "bearer")
	t.Setenv("PROXY_TIMEOUT", "5s")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")

	cfg := Load()
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "bearer", cfg.IdentityMode)
	assert.Equal(t, "http://backend:8081", cfg.ForwardBaseURL())
	assert.Equal(t, DownstreamAuthBearer, cfg.DownstreamAuth)
	assert.Equal(t, 5*time.Second, cfg.ProxyTimeout)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.True(t, cfg.UseRedis())
	assert.False(t, cfg.IsDevLike())
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("SESSION_TTL", "forever")

	cfg := Load()
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}
