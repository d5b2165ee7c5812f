package quotes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupoventia/crm-comercial/internal/auth"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
)

// Handler handles HTTP requests for quotes
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new quotes handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers quote routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	quotes := router.Group("/quotes")
	{
		quotes.POST("", h.createQuote)
		quotes.GET("", h.listQuotes)
		quotes.GET("/:id", h.getQuote)
		quotes.POST("/:id/transition", h.transitionQuote)
		quotes.GET("/:id/history", h.getHistory)
	}
}

type transitionRequest struct {
	TargetStatus string            `json:"target_status" binding:"required"`
	Payload      lifecycle.Payload `json:"payload"`
}

func (h *Handler) createQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (h *Handler) listQuotes(c *gin.Context) {
	var filter ListFilter
	if raw := c.Query("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
			return
		}
		filter.ClientID = &id
	}
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

	views, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": views})
}

func (h *Handler) getQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote id"})
		return
	}
	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) transitionQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote id"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, report, err := h.service.Transition(
		c.Request.Context(), id, lifecycle.Status(req.TargetStatus), req.Payload, auth.ActorFrom(c))
	if err != nil {
		c.JSON(transitionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": q, "side_effects": report.Outcomes})
}

func (h *Handler) getHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote id"})
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
	var invalid *lifecycle.InvalidTransitionError
	var terminal *lifecycle.TerminalStateError
	var payload *lifecycle.PayloadValidationError
	var conflict *lifecycle.ConcurrentModificationError
	switch {
	case errors.As(err, &payload):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalid), errors.As(err, &terminal):
		return http.StatusConflict
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
