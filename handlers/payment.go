package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-reservation-api/middleware"
	"table-reservation-api/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type CreateOrderRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CreateOrder opens a gateway order the client pays against
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	checkout, err := h.payments.CreateOrder(c.Request.Context(), middleware.CurrentUser(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}
