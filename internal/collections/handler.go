package collections

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/auth"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Handler handles HTTP requests for collections cases
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new collections handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers collections routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	cases := router.Group("/collections")
	{
		cases.POST("", h.createCase)
		cases.GET("", h.listCases)
		cases.GET("/:id", h.getCase)
		cases.POST("/:id/transition", h.transitionCase)
		cases.POST("/:id/gestiones", h.addGestion)
		cases.GET("/:id/gestiones", h.listGestiones)
		cases.GET("/:id/history", h.getHistory)
	}
}

type transitionRequest struct {
	TargetStatus string            `json:"target_status" binding:"required"`
	Payload      lifecycle.Payload `json:"payload"`
}

func (h *Handler) createCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cc, err := h.service.CreateCase(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cc)
}

func (h *Handler) listCases(c *gin.Context) {
	var filter ListFilter
	if raw := c.Query("collector_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collector_id"})
			return
		}
		filter.CollectorID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := lifecycle.Status(raw)
		filter.Status = &status
	}
	filter.OpenOnly = c.Query("open") == "true"

	views, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": views})
}

func (h *Handler) getCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}
	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) transitionCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cc, report, err := h.service.Transition(
		c.Request.Context(), id, lifecycle.Status(req.TargetStatus), req.Payload, auth.ActorFrom(c))
	if err != nil {
		c.JSON(transitionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"case": cc, "side_effects": report.Outcomes})
}

func (h *Handler) addGestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}
	var req GestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, report, err := h.service.AddGestion(c.Request.Context(), id, req, auth.ActorFrom(c))
	if err != nil {
		var terminal *lifecycle.TerminalStateError
		if errors.As(err, &terminal) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"gestion": g, "side_effects": report.Outcomes})
}

func (h *Handler) listGestiones(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}
	list, err := h.service.Gestiones(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gestiones": list})
}

func (h *Handler) getHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}
	records, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func transitionErrorStatus(err error) int {
	var payload *lifecycle.PayloadValidationError
	if errors.As(err, &payload) {
		return http.StatusUnprocessableEntity
	}
	var invalid *lifecycle.InvalidTransitionError
	var terminal *lifecycle.TerminalStateError
	var conflict *lifecycle.ConcurrentModificationError
	if errors.As(err, &invalid) || errors.As(err, &terminal) || errors.As(err, &conflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
