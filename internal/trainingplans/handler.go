package trainingplans

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"training-app/internal/shared/query"
	"training-app/internal/shared/server/middleware"
	"training-app/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the plan service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches /training-plans routes to rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/training-plans")
	g.GET("/types", func(c *gin.Context) { respond.OK(c, Types) })
	g.GET("/difficulties", func(c *gin.Context) { respond.OK(c, Difficulties) })

	if auth != nil {
		g.Use(auth)
	}
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/type/:type", h.byType)
	g.GET("/difficulty/:difficulty", h.byDifficulty)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	h.respondList(c, query.Parse(c.Request.URL.Query()))
}

func (h *Handler) byType(c *gin.Context) {
	h.respondList(c, query.Filter{Type: c.Param("type")})
}

func (h *Handler) byDifficulty(c *gin.Context) {
	h.respondList(c, query.Filter{Difficulty: c.Param("difficulty")})
}

func (h *Handler) respondList(c *gin.Context, f query.Filter) {
	plans, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list training plans", nil)
		return
	}
	respond.OK(c, plans)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := json.NewDecoder(c.Request.Body).Decode(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	p, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, p)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(c.Request.Body).Decode(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	p, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "training plan not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "training plan request failed", nil)
	}
}
