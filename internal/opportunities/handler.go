package opportunities

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/auth"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Handler handles HTTP requests for the sales pipeline
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new opportunities handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers opportunity routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	opps := router.Group("/opportunities")
	{
		opps.POST("", h.createOpportunity)
		opps.GET("", h.listOpportunities)
		opps.GET("/:id", h.getOpportunity)
		opps.POST("/:id/transition", h.transitionOpportunity)
		opps.GET("/:id/history", h.getHistory)
	}
}

type transitionRequest struct {
	TargetStatus string            `json:"target_status" binding:"required"`
	Payload      lifecycle.Payload `json:"payload"`
}

func (h *Handler) createOpportunity(c *gin.Context) {
	var req CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) listOpportunities(c *gin.Context) {
	var filter ListFilter
	if raw := c.Query("seller_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seller_id"})
			return
		}
		filter.SellerID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := lifecycle.Status(raw)
		filter.Status = &status
	}
	filter.OpenOnly = c.Query("open") == "true"

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": list})
}

func (h *Handler) getOpportunity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
		return
	}
	o, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "opportunity not found"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) transitionOpportunity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, report, err := h.service.Transition(
		c.Request.Context(), id, lifecycle.Status(req.TargetStatus), req.Payload, auth.ActorFrom(c))
	if err != nil {
		c.JSON(transitionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"opportunity": o, "side_effects": report.Outcomes})
}

func (h *Handler) getHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
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
