// Package bff is the browser-facing tier: it logs users in through Keycloak,
// keeps their tokens in a server-side session and forwards API calls on their
// behalf.
package bff

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"training-app/internal/identity"
	"training-app/internal/proxy"
	"training-app/internal/session"
	"training-app/internal/shared/server/middleware"
	"training-app/internal/shared/server/respond"
	"training-app/internal/shared/telemetry"
)

const recordKey = "bff.session"

// Settings are the non-collaborator knobs of the BFF.
type Settings struct {
	CookieName      string
	FrontendURL     string
	KeycloakBaseURL string
	KeycloakRealm   string
}

// Handler serves auth routes and forwards protected API calls.
type Handler struct {
	OIDC       *OIDC
	Sessions   *session.Manager
	Downstream *proxy.Forwarder
	Settings   Settings
	Now        func() time.Time
	// Limit, when set, throttles auth routes by client and API routes by
	// session user.
	Limit gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(oidc *OIDC, sessions *session.Manager, downstream *proxy.Forwarder, settings Settings) *Handler {
	if settings.CookieName == "" {
		settings.CookieName = session.DefaultCookieName
	}
	settings.FrontendURL = strings.TrimRight(settings.FrontendURL, "/")
	return &Handler{
		OIDC:       oidc,
		Sessions:   sessions,
		Downstream: downstream,
		Settings:   settings,
		Now:        time.Now,
	}
}

// RegisterRoutes attaches public auth routes and session-protected API routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	var limit []gin.HandlerFunc
	if h.Limit != nil {
		limit = append(limit, h.Limit)
	}

	authGroup := r.Group("/api/auth", limit...)
	authGroup.GET("/login", h.login)
	authGroup.GET("/callback", h.callback)
	authGroup.GET("/status", h.status)
	authGroup.GET("/success", h.success)
	authGroup.GET("/failure", h.failure)
	authGroup.POST("/logout", h.logoutJSON)
	authGroup.GET("/logout", h.logoutRedirect)
	authGroup.GET("/logout-success", h.logoutSuccess)

	oauth := r.Group("/", limit...)
	oauth.GET("/oauth2/authorization/keycloak", h.authorize)
	oauth.GET("/login/oauth2/code/keycloak", h.callback)

	api := r.Group("/api", append([]gin.HandlerFunc{h.RequireSession()}, limit...)...)
	proxy.RegisterResource(api, "/trainings", h.forward)
	proxy.RegisterResource(api, "/training-plans", h.forward)
	proxy.RegisterLookups(api, "/training-plans", h.forward)
	api.Any("/proxy/*path", h.forwardCatchAll)
}

// RequireSession rejects requests without a live session and exposes the
// session's user to later handlers.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := session.IDFromHeaders(c.Request.Header, h.Settings.CookieName)
		rec, ok, err := h.Sessions.Lookup(c.Request.Context(), id)
		if err != nil {
			telemetry.Error("bff.session.lookup_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"error":      err.Error(),
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "session store unavailable", nil)
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(recordKey, rec)
		middleware.SetUser(c, rec.UserID, rec.Username)
		c.Next()
	}
}

func (h *Handler) login(c *gin.Context) {
	respond.OK(c, gin.H{
		"message": "Please authenticate with OAuth2",
		"authUrl": "/oauth2/authorization/keycloak",
	})
}

func (h *Handler) authorize(c *gin.Context) {
	target, err := h.OIDC.AuthCodeURL()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Keycloak client not configured", nil)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) callback(c *gin.Context) {
	ctx := c.Request.Context()
	principal, err := h.OIDC.Exchange(ctx, c.Query("state"), c.Query("code"))
	if err != nil {
		telemetry.Warn("bff.login.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		c.Redirect(http.StatusFound, h.Settings.FrontendURL+"?error=auth_failed")
		return
	}
	id, err := identity.FromPrincipal(principal)
	if err != nil {
		c.Redirect(http.StatusFound, h.Settings.FrontendURL+"?error=auth_failed")
		return
	}

	if previous := session.IDFromHeaders(c.Request.Header, h.Settings.CookieName); previous != "" {
		_ = h.Sessions.Logout(ctx, previous)
	}

	username := principal.PreferredUsername
	if username == "" {
		username = id.UserID
	}
	sessionID := uuid.NewString()
	rec := session.Record{
		UserID:      id.UserID,
		Username:    username,
		Email:       principal.Email,
		Name:        principal.Name,
		IDToken:     principal.IDToken,
		AccessToken: principal.AccessToken,
		LoginTime:   h.now(),
	}
	if err := h.Sessions.Login(ctx, sessionID, rec); err != nil {
		telemetry.Error("bff.session.save_failed", map[string]any{"error": err.Error()})
		c.Redirect(http.StatusFound, h.Settings.FrontendURL+"?error=auth_failed")
		return
	}

	telemetry.Info("bff.login", map[string]any{"user_id": rec.UserID})
	c.Header("Set-Cookie", session.CookieHeader(h.Settings.CookieName, sessionID))
	c.Redirect(http.StatusFound, h.Settings.FrontendURL+"/dashboard")
}

func (h *Handler) status(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		respond.OK(c, gin.H{"authenticated": false})
		return
	}
	respond.OK(c, gin.H{
		"authenticated": true,
		"user": gin.H{
			"id":       rec.UserID,
			"username": rec.Username,
			"email":    rec.Email,
			"name":     rec.Name,
		},
	})
}

func (h *Handler) success(c *gin.Context) {
	c.Redirect(http.StatusFound, h.Settings.FrontendURL+"/dashboard")
}

func (h *Handler) failure(c *gin.Context) {
	respond.JSON(c, http.StatusBadRequest, gin.H{"message": "Login failed"})
}

func (h *Handler) logoutJSON(c *gin.Context) {
	h.endSession(c)
	respond.OK(c, gin.H{"message": "Logout successful"})
}

func (h *Handler) logoutRedirect(c *gin.Context) {
	rec, ok := h.lookup(c)
	h.endSession(c)

	afterLogout := h.Settings.FrontendURL + "?logout=success"
	target := afterLogout
	if ok {
		target = LogoutURL(h.Settings.KeycloakBaseURL, h.Settings.KeycloakRealm, rec.IDToken, afterLogout)
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) logoutSuccess(c *gin.Context) {
	respond.OK(c, gin.H{"message": "Logout completed"})
}

func (h *Handler) endSession(c *gin.Context) {
	id := session.IDFromHeaders(c.Request.Header, h.Settings.CookieName)
	if err := h.Sessions.Logout(c.Request.Context(), id); err != nil {
		telemetry.Warn("bff.logout.failed", map[string]any{"error": err.Error()})
	}
	c.Header("Set-Cookie", session.ClearCookieHeader(h.Settings.CookieName))
}

func (h *Handler) lookup(c *gin.Context) (session.Record, bool) {
	id := session.IDFromHeaders(c.Request.Header, h.Settings.CookieName)
	rec, ok, err := h.Sessions.Lookup(c.Request.Context(), id)
	if err != nil {
		telemetry.Warn("bff.session.lookup_failed", map[string]any{"error": err.Error()})
		return session.Record{}, false
	}
	return rec, ok
}

func (h *Handler) forward(c *gin.Context) {
	req, err := proxy.Inbound(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "could not read request body", nil)
		return
	}
	h.relayAs(c, req)
}

// forwardCatchAll maps /api/proxy/<rest> to /api/<rest> on the next hop.
func (h *Handler) forwardCatchAll(c *gin.Context) {
	req, err := proxy.Inbound(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "could not read request body", nil)
		return
	}
	req.Path = "/api" + c.Param("path")
	h.relayAs(c, req)
}

func (h *Handler) relayAs(c *gin.Context, req proxy.Request) {
	rec, err := recordFrom(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	req.Inbound = nil
	req.UserID = rec.UserID
	req.Token = rec.IDToken
	if rec.Username != "" {
		req.Extra = http.Header{"X-Username": {rec.Username}}
	}
	h.Downstream.Relay(c, req)
}

func recordFrom(c *gin.Context) (session.Record, error) {
	val, ok := c.Get(recordKey)
	if !ok {
		return session.Record{}, errors.New("no session in context")
	}
	rec, ok := val.(session.Record)
	if !ok {
		return session.Record{}, errors.New("unexpected session type")
	}
	return rec, nil
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}
