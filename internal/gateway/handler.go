// Package gateway relays resource calls to the backend unchanged, rejecting
// requests that carry no usable identity header.
package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"training-app/internal/identity"
	"training-app/internal/proxy"
	"training-app/internal/shared/server/respond"
)

// Handler relays to the backend.
type Handler struct {
	Backend *proxy.Forwarder
}

// NewHandler constructs a Handler.
func NewHandler(backend *proxy.Forwarder) *Handler {
	return &Handler{Backend: backend}
}

// RegisterRoutes attaches both resource route tables to rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	proxy.RegisterResource(rg, "/trainings", h.relay)
	proxy.RegisterResource(rg, "/training-plans", h.relay)
	proxy.RegisterLookups(rg, "/training-plans", h.relay)
}

func (h *Handler) relay(c *gin.Context) {
	header := c.Request.Header
	if identity.HasMalformedAuthorization(header) {
		respond.Error(c, http.StatusBadRequest, "bad_request", identity.ErrMalformedAuthorization.Error(), nil)
		return
	}
	if strings.TrimSpace(header.Get(identity.HeaderUserID)) == "" &&
		strings.TrimSpace(header.Get(identity.HeaderAuthorization)) == "" {
		respond.Error(c, http.StatusBadRequest, "bad_request", identity.ErrMissingIdentity.Error(), nil)
		return
	}

	req, err := proxy.Inbound(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "could not read request body", nil)
		return
	}
	h.Backend.Relay(c, req)
}
