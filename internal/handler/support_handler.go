package handler

import (
	"net/http"

	"seragon/internal/middleware"
	"seragon/internal/service"

	"github.com/gin-gonic/gin"
)

type SupportHandler struct {
	tickets *service.TicketService
}

func NewSupportHandler(tickets *service.TicketService) *SupportHandler {
	return &SupportHandler{tickets: tickets}
}

func (h *SupportHandler) Create(c *gin.Context) {
	var req struct {
		Subject     string `json:"subject" binding:"required,max=255"`
		Description string `json:"description" binding:"required,max=5000"`
		Priority    string `json:"priority"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.tickets.Create(c.Request.Context(), middleware.GetUserID(c), service.CreateTicketInput{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *SupportHandler) ListMine(c *gin.Context) {
	list, err := h.tickets.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *SupportHandler) Get(c *gin.Context) {
	t, err := h.tickets.Get(c.Request.Context(), actorFrom(c), c.Param("ticketNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *SupportHandler) AddMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required,max=5000"`
	}
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.tickets.AddMessage(c.Request.Context(), actorFrom(c), c.Param("ticketNumber"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}
