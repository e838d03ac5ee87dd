package handler

import (
	"net/http"
	"strings"

	"seragon/internal/middleware"
	"seragon/internal/models"
	"seragon/internal/service"

	"github.com/gin-gonic/gin"
)

const maxProofSize = 5 << 20

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type checkoutItem struct {
	ServiceID uint `json:"serviceId" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type billingInfoRequest struct {
	FirstName       string `json:"firstName" binding:"required,max=255"`
	LastName        string `json:"lastName" binding:"max=255"`
	Email           string `json:"email" binding:"required,email"`
	DiscordUsername string `json:"discordUsername" binding:"max=100"`
}

type checkoutRequest struct {
	Items         []checkoutItem     `json:"items" binding:"required,min=1,dive"`
	BillingInfo   billingInfoRequest `json:"billingInfo" binding:"required"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes" binding:"max=2000"`
}

// Checkout handles POST /api/checkout. Prices always come from the catalog.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}
	lines := make([]service.CheckoutLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, service.CheckoutLine{ServiceID: it.ServiceID, Quantity: it.Quantity})
	}
	res, err := h.orders.CreateOrder(c.Request.Context(), service.CheckoutRequest{
		UserID: middleware.GetUserID(c),
		Lines:  lines,
		Billing: models.BillingInfo{
			FirstName:       req.BillingInfo.FirstName,
			LastName:        req.BillingInfo.LastName,
			Email:           req.BillingInfo.Email,
			DiscordUsername: req.BillingInfo.DiscordUsername,
		},
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		c.Header("Idempotent-Replay", "true")
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"orderId":     res.Order.ID,
		"orderNumber": res.Order.OrderNumber,
		"totalAmount": res.Order.TotalAmount,
		"upiId":       res.UPIID,
	})
}

// PaymentInfo handles POST /api/upi-payment-info.
func (h *OrderHandler) PaymentInfo(c *gin.Context) {
	var req struct {
		OrderID uint `json:"orderId" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.orders.IssuePaymentReference(c.Request.Context(), req.OrderID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// ConfirmPayment handles POST /api/confirm-upi-payment. The transaction id is
// recorded for manual verification.
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	var req struct {
		OrderID       uint   `json:"orderId" binding:"required"`
		TransactionID string `json:"transactionId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.orders.SubmitPaymentClaim(c.Request.Context(), req.OrderID, middleware.GetUserID(c), req.TransactionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment submitted for verification. Your order will be processed once the transfer is confirmed.",
	})
}

// ListMine handles GET /api/orders.
func (h *OrderHandler) ListMine(c *gin.Context) {
	list, err := h.orders.ListOrders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /api/orders/:orderNumber for the owner or an admin.
func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), actorFrom(c), c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// UploadPaymentProof handles POST /api/orders/:orderNumber/payment-proof.
func (h *OrderHandler) UploadPaymentProof(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxProofSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	if ct := file.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image uploads are accepted"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	o, err := h.orders.AttachPaymentProof(c.Request.Context(), middleware.GetUserID(c), c.Param("orderNumber"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderNumber": o.OrderNumber, "paymentProofUrl": o.PaymentProofURL})
}
