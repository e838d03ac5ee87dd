package handler

import (
	"net/http"

	"seragon/internal/domain"
	"seragon/internal/repository"
	"seragon/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminRepo *repository.AdminRepository
	orders    *service.OrderService
	tickets   *service.TicketService
}

func NewAdminHandler(adminRepo *repository.AdminRepository, orders *service.OrderService, tickets *service.TicketService) *AdminHandler {
	return &AdminHandler{adminRepo: adminRepo, orders: orders, tickets: tickets}
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats(c.Request.Context(), "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListOrders handles GET /api/admin/orders?limit&offset&status.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	limit, offset := parsePagination(c)
	page, err := h.orders.ListAllOrders(c.Request.Context(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateOrderStatus handles PATCH /api/admin/orders/:orderId/status.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var req struct {
		Status        string `json:"status" binding:"required"`
		PaymentStatus string `json:"paymentStatus"`
	}
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.orders.TransitionOrderStatus(c.Request.Context(), actorFrom(c), id,
		domain.OrderStatus(req.Status), domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// OrderHistory handles GET /api/admin/orders/:orderId/history.
func (h *AdminHandler) OrderHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	logs, err := h.orders.OrderHistory(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs})
}

// ListTickets handles GET /api/admin/support-tickets.
func (h *AdminHandler) ListTickets(c *gin.Context) {
	limit, offset := parsePagination(c)
	page, err := h.tickets.ListAll(c.Request.Context(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// UpdateTicket handles PATCH /api/admin/support-tickets/:id.
func (h *AdminHandler) UpdateTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status     *string `json:"status"`
		Priority   *string `json:"priority"`
		AssignedTo *string `json:"assignedTo"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.tickets.Update(c.Request.Context(), actorFrom(c), id, service.UpdateTicketInput{
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
