package proxy

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"training-app/internal/shared/server/middleware"
	"training-app/internal/shared/server/respond"
)

const listRouteKey = "proxy.listRoute"

// RegisterResource attaches the standard route table for one resource. The
// list route only forwards the known filter keys.
func RegisterResource(rg *gin.RouterGroup, base string, handler gin.HandlerFunc) {
	markList := func(c *gin.Context) {
		c.Set(listRouteKey, true)
		c.Next()
	}
	g := rg.Group(base)
	g.GET("", markList, handler)
	g.POST("", handler)
	g.GET("/types", handler)
	g.GET("/difficulties", handler)
	g.GET("/:id", handler)
	g.PUT("/:id", handler)
	g.DELETE("/:id", handler)
}

// RegisterLookups attaches the by-type and by-difficulty list routes that
// training plans expose in addition to the standard table.
func RegisterLookups(rg *gin.RouterGroup, base string, handler gin.HandlerFunc) {
	g := rg.Group(base)
	g.GET("/type/:type", handler)
	g.GET("/difficulty/:difficulty", handler)
}

// Inbound builds a Request from the current gin request, keeping its path.
func Inbound(c *gin.Context) (Request, error) {
	req := Request{
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		RawQuery:  c.Request.URL.RawQuery,
		RequestID: middleware.RequestIDFromContext(c),
		Inbound:   c.Request.Header.Clone(),
	}
	if c.GetBool(listRouteKey) {
		req.RawQuery = FilterQuery(c.Request.URL.Query())
	}
	if HasBody(req.Method) && c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return Request{}, fmt.Errorf("read request body: %w", err)
		}
		req.Body = body
	}
	return req, nil
}

// Relay forwards req and writes the downstream response, or a 500 when the
// downstream could not be reached.
func (f *Forwarder) Relay(c *gin.Context, req Request) {
	c.Set(middleware.UpstreamKey, BuildURL(f.BaseURL, req.Path, ""))
	resp, err := f.Forward(c.Request.Context(), req)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": TransportErrorMessage(err)})
		return
	}
	respond.Raw(c, resp.Status, resp.ContentType, resp.Body)
}
