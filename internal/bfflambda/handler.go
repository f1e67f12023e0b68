// Package bfflambda serves the BFF over API Gateway proxy events with a mock
// login and sessions held in an external store.
package bfflambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"training-app/internal/identity"
	"training-app/internal/proxy"
	"training-app/internal/session"
	"training-app/internal/shared/auth"
	"training-app/internal/shared/metrics"
	"training-app/internal/shared/telemetry"
)

const (
	routeHealth    = "/health"
	routeAPIHealth = "/api/health"
	prefixAuth     = "/api/auth/"
	prefixProxy    = "/api/proxy"
)

// Config holds the values the handler reports and signs with.
type Config struct {
	BackendURL    string
	GatewayURL    string
	ForwardTarget string
	CookieName    string
	// DefaultUser is used by mock-login when no userId is given. Empty means
	// the parameter is required.
	DefaultUser string
	JWTSecret   string
	Environment string
}

// Handler answers API Gateway proxy events.
type Handler struct {
	Sessions *session.Manager
	Forward  *proxy.Forwarder
	Config   Config
	Now      func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config, sessions *session.Manager, fwd *proxy.Forwarder) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = session.DefaultCookieName
	}
	if cfg.Environment == "" {
		cfg.Environment = "local"
	}
	return &Handler{Sessions: sessions, Forward: fwd, Config: cfg, Now: time.Now}
}

// NewForwarder picks the downstream and header scheme for target: the gateway
// receives the mock token as a bearer, the backend only the user headers.
func NewForwarder(cfg Config, timeout time.Duration, rec metrics.Recorder) *proxy.Forwarder {
	if cfg.ForwardTarget == "backend" {
		return proxy.New("backend", cfg.BackendURL, proxy.SchemeHeader, timeout, rec)
	}
	return proxy.New("gateway", cfg.GatewayURL, proxy.SchemeBearer, timeout, rec)
}

// Handle routes one event. It never returns an error: failures become 5xx
// responses.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	start := h.now()
	defer func() {
		if r := recover(); r != nil {
			resp = internalError(fmt.Errorf("panic: %v", r))
		}
	}()
	resp = h.route(ctx, req)
	telemetry.Info("lambda.request", map[string]any{
		"method":      req.HTTPMethod,
		"path":        req.Path,
		"status":      resp.StatusCode,
		"request_id":  req.RequestContext.RequestID,
		"duration_ms": float64(h.now().Sub(start).Microseconds()) / 1000.0,
	})
	return resp, nil
}

func (h *Handler) route(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	path := req.Path
	switch {
	case req.HTTPMethod == http.MethodOptions:
		return respondRaw(http.StatusOK, "", "")
	case path == routeHealth || path == routeAPIHealth:
		return h.health()
	case strings.HasPrefix(path, prefixAuth):
		return h.auth(ctx, req)
	case strings.HasPrefix(path, prefixProxy+"/"):
		return h.proxy(ctx, req)
	default:
		return respondJSON(http.StatusNotFound, map[string]any{
			"error": "Not found",
			"path":  path,
			"availableEndpoints": map[string]string{
				"health": routeHealth,
				"auth":   prefixAuth + "*",
				"proxy":  prefixProxy + "/*",
			},
		})
	}
}

func (h *Handler) health() events.APIGatewayProxyResponse {
	return respondJSON(http.StatusOK, map[string]any{
		"status":        "healthy",
		"service":       "bff-lambda",
		"timestamp":     h.now().UnixMilli(),
		"backendUrl":    h.Config.BackendURL,
		"apiGatewayUrl": h.Config.GatewayURL,
		"environment":   h.Config.Environment,
	})
}

func (h *Handler) auth(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	switch req.Path {
	case prefixAuth + "mock-login":
		return h.mockLogin(ctx, req)
	case prefixAuth + "status":
		return h.status(ctx, req)
	case prefixAuth + "logout":
		return h.logout(ctx, req)
	default:
		return respondJSON(http.StatusNotFound, map[string]any{"error": "Auth endpoint not found", "path": req.Path})
	}
}

func (h *Handler) mockLogin(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	userID := strings.TrimSpace(queryValues(req).Get("userId"))
	if userID == "" {
		userID = h.Config.DefaultUser
	}
	if userID == "" {
		return respondJSON(http.StatusBadRequest, map[string]any{"error": "userId query parameter is required"})
	}

	now := h.now()
	email := userID + "@example.com"
	name := "Test User " + userID
	token, err := auth.SignJWT(h.Config.JWTSecret, userID, name, email, now)
	if err != nil {
		return internalError(fmt.Errorf("login failed: %w", err))
	}

	sessionID := session.IDFromHeaders(headersOf(req), h.Config.CookieName)
	if sessionID == "" {
		sessionID = session.NewID(now)
	}
	rec := session.Record{
		UserID:       userID,
		Username:     userID,
		Email:        email,
		Name:         name,
		SessionToken: token,
		LoginTime:    now.UTC(),
	}
	if err := h.Sessions.Login(ctx, sessionID, rec); err != nil {
		return internalError(fmt.Errorf("login failed: %w", err))
	}

	resp := respondJSON(http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]string{
			"userId":   rec.UserID,
			"username": rec.Username,
			"email":    rec.Email,
		},
		"sessionId": sessionID,
	})
	resp.Headers["Set-Cookie"] = session.CookieHeader(h.Config.CookieName, sessionID)
	return resp
}

func (h *Handler) status(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	sessionID := session.IDFromHeaders(headersOf(req), h.Config.CookieName)
	rec, ok, err := h.Sessions.Lookup(ctx, sessionID)
	if err != nil {
		return internalError(fmt.Errorf("session lookup failed: %w", err))
	}
	if !ok {
		return respondJSON(http.StatusOK, map[string]any{"authenticated": false})
	}
	return respondJSON(http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]string{
			"userId":    rec.UserID,
			"username":  rec.Username,
			"email":     rec.Email,
			"loginTime": rec.LoginTime.Format(time.RFC3339),
		},
	})
}

func (h *Handler) logout(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	sessionID := session.IDFromHeaders(headersOf(req), h.Config.CookieName)
	if err := h.Sessions.Logout(ctx, sessionID); err != nil {
		return internalError(fmt.Errorf("logout failed: %w", err))
	}
	resp := respondJSON(http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
	if sessionID != "" {
		resp.Headers["Set-Cookie"] = session.ClearCookieHeader(h.Config.CookieName)
	}
	return resp
}

func (h *Handler) proxy(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	headers := headersOf(req)
	sessionID := session.IDFromHeaders(headers, h.Config.CookieName)
	if sessionID == "" {
		return respondJSON(http.StatusUnauthorized, map[string]any{"error": "Session required"})
	}
	rec, ok, err := h.Sessions.Lookup(ctx, sessionID)
	if err != nil {
		return internalError(fmt.Errorf("session lookup failed: %w", err))
	}
	if !ok {
		return respondJSON(http.StatusUnauthorized, map[string]any{"error": "Authentication required"})
	}

	body, err := bodyOf(req)
	if err != nil {
		return respondJSON(http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
	}
	fwd := proxy.Request{
		Method:    req.HTTPMethod,
		Path:      "/api" + strings.TrimPrefix(req.Path, prefixProxy),
		RawQuery:  queryValues(req).Encode(),
		Body:      body,
		UserID:    rec.UserID,
		Token:     rec.SessionToken,
		RequestID: req.RequestContext.RequestID,
		Extra:     http.Header{"X-Username": {rec.Username}},
	}
	if h.Forward.Scheme == proxy.SchemeBearer {
		fwd.Extra.Set(identity.HeaderUserID, rec.UserID)
	}
	resp, err := h.Forward.Forward(ctx, fwd)
	if err != nil {
		return respondJSON(http.StatusInternalServerError, map[string]any{
			"error":     "Proxy request failed",
			"message":   err.Error(),
			"targetUrl": proxy.BuildURL(h.Forward.BaseURL, fwd.Path, fwd.RawQuery),
		})
	}
	return respondRaw(resp.Status, resp.ContentType, string(resp.Body))
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// headersOf merges single and multi-value headers into canonical form.
func headersOf(req events.APIGatewayProxyRequest) http.Header {
	out := http.Header{}
	for k, vs := range req.MultiValueHeaders {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if out.Get(k) == "" {
			out.Set(k, v)
		}
	}
	return out
}

func queryValues(req events.APIGatewayProxyRequest) url.Values {
	out := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		out[k] = append([]string(nil), vs...)
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := out[k]; !ok {
			out.Set(k, v)
		}
	}
	return out
}

func bodyOf(req events.APIGatewayProxyRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func corsHeaders(contentType string) map[string]string {
	if contentType == "" {
		contentType = "application/json"
	}
	return map[string]string{
		"Content-Type":                 contentType,
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Requested-With",
	}
}

func respondRaw(status int, contentType, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    corsHeaders(contentType),
		Body:       body,
	}
}

func respondJSON(status int, payload any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(payload)
	if err != nil {
		return respondRaw(http.StatusInternalServerError, "", `{"error":"Internal server error"}`)
	}
	return respondRaw(status, "", string(raw))
}

func internalError(err error) events.APIGatewayProxyResponse {
	telemetry.Error("lambda.error", map[string]any{"error": err.Error()})
	return respondJSON(http.StatusInternalServerError, map[string]any{"error": "Internal server error", "message": err.Error()})
}
