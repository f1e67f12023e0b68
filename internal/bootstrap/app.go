// Package bootstrap wires configuration into ready-to-serve routers and
// handlers for each binary.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"training-app/internal/bff"
	"training-app/internal/bfflambda"
	"training-app/internal/gateway"
	"training-app/internal/identity"
	"training-app/internal/proxy"
	"training-app/internal/services/health"
	"training-app/internal/session"
	"training-app/internal/shared/config"
	"training-app/internal/shared/metrics"
	"training-app/internal/shared/server"
	"training-app/internal/shared/server/middleware"
	"training-app/internal/shared/storage/db"
	"training-app/internal/shared/telemetry"
	"training-app/internal/trainingplans"
	"training-app/internal/trainings"
)

const (
	ServiceBackend   = "backend"
	ServiceGateway   = "gateway"
	ServiceBFF       = "bff"
	ServiceBFFLambda = "bff-lambda"
)

// Backend holds the persistence service and its router.
type Backend struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Metrics   *metrics.Collector
	Trainings *trainings.Service
	Plans     *trainingplans.Service
}

// BuildBackend connects storage (or falls back to memory in dev) and
// registers the resource routes.
func BuildBackend(ctx context.Context, cfg config.Config) (*Backend, error) {
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		trainingRepo trainings.Repo
		planRepo     trainingplans.Repo
	)
	if sqlDB != nil {
		trainingRepo = &trainings.PGRepo{DB: sqlDB}
		planRepo = &trainingplans.PGRepo{DB: sqlDB}
	} else {
		trainingRepo = trainings.NewMemoryRepo()
		planRepo = trainingplans.NewMemoryRepo()
	}

	app := &Backend{
		Config:    cfg,
		DB:        sqlDB,
		Metrics:   metrics.NewCollector(ServiceBackend),
		Trainings: trainings.NewService(trainingRepo),
		Plans:     trainingplans.NewService(planRepo),
	}
	checks := health.NewService(ServiceBackend)
	if sqlDB != nil {
		checks.Add("database", sqlDB.PingContext)
		app.Metrics.WatchDB(sqlDB, "training")
	}
	app.Router = NewBackendRouter(cfg, app.Metrics, checks, app.Trainings, app.Plans)
	return app, nil
}

// NewBackendRouter registers the backend routes over already built services.
func NewBackendRouter(cfg config.Config, m *metrics.Collector, checks *health.Service, ts *trainings.Service, ps *trainingplans.Service) *gin.Engine {
	r := server.NewRouter(server.RouterOptions{
		Service:     ServiceBackend,
		CORSOrigins: cfg.CORSAllowOrigin,
		Metrics:     m,
		Health:      checks,
	})
	auth := middleware.Identity(identity.Mode(cfg.IdentityMode))
	api := r.Group("/api")
	trainings.NewHandler(ts).RegisterRoutes(api, auth)
	trainingplans.NewHandler(ps).RegisterRoutes(api, auth)
	server.RegisterMeRoutes(api, auth)
	return r
}

// BuildGateway builds the relay in front of the backend.
func BuildGateway(cfg config.Config) (*gin.Engine, error) {
	if strings.TrimSpace(cfg.BackendURL) == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	m := metrics.NewCollector(ServiceGateway)
	r := server.NewRouter(server.RouterOptions{
		Service:     ServiceGateway,
		CORSOrigins: cfg.CORSAllowOrigin,
		Metrics:     m,
	})
	backend := proxy.New(ServiceBackend, cfg.BackendURL, proxy.SchemePassthrough, cfg.ProxyTimeout, m)
	api := r.Group("/api", rateLimit(cfg, middleware.IdentityKey))
	gateway.NewHandler(backend).RegisterRoutes(api)
	return r, nil
}

// BFF is the session-holding edge service.
type BFF struct {
	Router  *gin.Engine
	Handler *bff.Handler
	closer  func() error
}

// Close releases the session store connection.
func (b *BFF) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer()
}

// BuildBFF wires OIDC, sessions and the downstream forwarder.
func BuildBFF(ctx context.Context, cfg config.Config) (*BFF, error) {
	m := metrics.NewCollector(ServiceBFF)
	store, closer, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	scheme := proxy.SchemeHeader
	if cfg.DownstreamAuth == config.DownstreamAuthBearer {
		scheme = proxy.SchemeBearer
	}
	downstream := proxy.New(cfg.ForwardTarget, cfg.ForwardBaseURL(), scheme, cfg.ProxyTimeout, m)

	oidc := bff.NewOIDC(bff.OIDCConfig{
		BaseURL:      cfg.KeycloakBaseURL,
		Realm:        cfg.KeycloakRealm,
		ClientID:     cfg.KeycloakClientID,
		ClientSecret: cfg.KeycloakClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
	})
	if !oidc.Configured() {
		telemetry.Warn("bootstrap.oidc.unconfigured", map[string]any{"realm": cfg.KeycloakRealm})
	}

	h := bff.NewHandler(oidc, session.NewManager(store, cfg.SessionTTL, m), downstream, bff.Settings{
		CookieName:      cfg.SessionCookieName,
		FrontendURL:     cfg.FrontendURL,
		KeycloakBaseURL: cfg.KeycloakBaseURL,
		KeycloakRealm:   cfg.KeycloakRealm,
	})

	h.Limit = rateLimit(cfg, middleware.ContextKey)

	checks := health.NewService(ServiceBFF)
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		checks.Add("sessions", pinger.Ping)
	}
	r := server.NewRouter(server.RouterOptions{
		Service:     ServiceBFF,
		CORSOrigins: cfg.CORSAllowOrigin,
		Metrics:     m,
		Health:      checks,
	})
	h.RegisterRoutes(r)

	return &BFF{Router: r, Handler: h, closer: closer}, nil
}

// BuildLambda wires the event handler used by the Lambda BFF.
func BuildLambda(ctx context.Context, cfg config.Config) (*bfflambda.Handler, func() error, error) {
	store, closer, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	environment := strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME"))
	if environment == "" {
		environment = "local"
	}
	lcfg := bfflambda.Config{
		BackendURL:    cfg.BackendURL,
		GatewayURL:    cfg.GatewayURL,
		ForwardTarget: cfg.ForwardTarget,
		CookieName:    cfg.SessionCookieName,
		DefaultUser:   cfg.MockAuthDefaultUser,
		JWTSecret:     cfg.MockJWTSecret,
		Environment:   environment,
	}
	h := bfflambda.NewHandler(lcfg,
		session.NewManager(store, cfg.SessionTTL, nil),
		bfflambda.NewForwarder(lcfg, cfg.ProxyTimeout, nil),
	)
	return h, closer, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	profile := db.RuntimeProfile()
	if profile == db.ProfileLambda {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, db.OptionsFor(profile))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFor(profile))
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if !db.IsLambdaRuntime() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildSessionStore(ctx context.Context, cfg config.Config) (session.Store, func() error, error) {
	if !cfg.UseRedis() {
		telemetry.Info("bootstrap.sessions.memory", nil)
		return session.NewMemoryStore(time.Now), nil, nil
	}
	client, err := session.NewRedisClient(ctx, session.RedisOptions{
		URL:      cfg.RedisURL,
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.sessions.memory", map[string]any{"reason": "redis unavailable", "error": err.Error()})
			return session.NewMemoryStore(time.Now), nil, nil
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	store := session.NewRedisStore(client)
	return store, store.Close, nil
}

func rateLimit(cfg config.Config, key middleware.RateLimitKey) gin.HandlerFunc {
	if cfg.RateLimitRPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimitBy(middleware.NewRateLimiter(time.Now), middleware.RateLimitRule{
		Rate:  cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}, key)
}
