package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"training-app/internal/shared/telemetry"
)

const (
	ForwardTargetGateway = "gateway"
	ForwardTargetBackend = "backend"

	DownstreamAuthHeader = "header"
	DownstreamAuthBearer = "bearer"
)

// Config holds application configuration shared by every binary.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	DatabaseURL     string

	// IdentityMode selects how the backend derives the caller: "header" or "bearer".
	IdentityMode string

	BackendURL    string
	GatewayURL    string
	ProxyTimeout  time.Duration
	ForwardTarget string
	// DownstreamAuth is the header scheme the BFF uses toward its next hop.
	DownstreamAuth string

	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL        time.Duration
	SessionCookieName string

	KeycloakBaseURL      string
	KeycloakRealm        string
	KeycloakClientID     string
	KeycloakClientSecret string
	OIDCRedirectURL      string
	FrontendURL          string

	MockAuthDefaultUser string
	MockJWTSecret       string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url.missing", map[string]any{"env": env})
	}

	port := getEnv("PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")

	return Config{
		Port:            port,
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		DatabaseURL:     dbURL,

		IdentityMode: normalizeIdentityMode(getEnv("IDENTITY_MODE", "header")),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8081"), "/"),
		GatewayURL:     strings.TrimRight(getEnv("API_GATEWAY_URL", "http://localhost:8082"), "/"),
		ProxyTimeout:   getEnvDuration("PROXY_TIMEOUT", 0),
		ForwardTarget:  normalizeForwardTarget(getEnv("BFF_FORWARD_TARGET", ForwardTargetGateway)),
		DownstreamAuth: normalizeDownstreamAuth(getEnv("BFF_DOWNSTREAM_AUTH", DownstreamAuthHeader)),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisAddr:     redisHost + ":" + redisPort,
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SessionTTL:        getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "JSESSIONID"),

		KeycloakBaseURL:      strings.TrimRight(getEnv("KEYCLOAK_BASE_URL", "http://localhost:8180"), "/"),
		KeycloakRealm:        getEnv("KEYCLOAK_REALM", "training-app"),
		KeycloakClientID:     getEnv("KEYCLOAK_CLIENT_ID", "training-app"),
		KeycloakClientSecret: getEnv("KEYCLOAK_CLIENT_SECRET", ""),
		OIDCRedirectURL:      getEnv("OIDC_REDIRECT_URL", "http://localhost:"+strings.TrimPrefix(port, ":")+"/login/oauth2/code/keycloak"),
		FrontendURL:          strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		MockAuthDefaultUser: getEnv("MOCK_AUTH_DEFAULT_USER", ""),
		MockJWTSecret:       getEnv("MOCK_JWT_SECRET", "mock-secret"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),
	}
}

// UseRedis reports whether sessions should be kept in Redis rather than memory.
func (c Config) UseRedis() bool {
	if strings.TrimSpace(c.RedisURL) != "" {
		return true
	}
	return strings.TrimSpace(os.Getenv("REDIS_HOST")) != ""
}

// ForwardBaseURL returns the base URL of the BFF's next hop.
func (c Config) ForwardBaseURL() string {
	if c.ForwardTarget == ForwardTargetBackend {
		return c.BackendURL
	}
	return c.GatewayURL
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "kind": "int", "error": err.Error()})
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "kind": "float", "error": err.Error()})
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("config.invalid", map[string]any{"key": key, "kind": "duration", "error": err.Error()})
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "aws":
		return "aws"
	default:
		return "dev"
	}
}

func normalizeIdentityMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bearer", "jwt":
		return "bearer"
	default:
		return "header"
	}
}

func normalizeForwardTarget(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ForwardTargetBackend:
		return ForwardTargetBackend
	default:
		return ForwardTargetGateway
	}
}

func normalizeDownstreamAuth(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case DownstreamAuthBearer, "jwt":
		return DownstreamAuthBearer
	default:
		return DownstreamAuthHeader
	}
}
