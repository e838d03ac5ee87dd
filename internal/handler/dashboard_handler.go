package handler

import (
	"net/http"

	"seragon/internal/middleware"
	"seragon/internal/repository"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	adminRepo *repository.AdminRepository
}

func NewDashboardHandler(adminRepo *repository.AdminRepository) *DashboardHandler {
	return &DashboardHandler{adminRepo: adminRepo}
}

// Stats handles GET /api/dashboard-stats, scoped to the caller.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
