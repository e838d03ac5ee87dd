package handler

import (
	"net/http"

	"seragon/internal/service"
	"seragon/pkg/assistant"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	svc *service.AssistantService
}

func NewAssistantHandler(svc *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{svc: svc}
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	var req struct {
		Message string              `json:"message" binding:"required"`
		History []assistant.Message `json:"history"`
	}
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.svc.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *AssistantHandler) PriceComparison(c *gin.Context) {
	var req struct {
		ServiceID uint `json:"serviceId" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cmp, err := h.svc.ComparePricing(c.Request.Context(), req.ServiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}
