package handler

import (
	"storefront-payments/internal/adapter/http/dto"
	"storefront-payments/internal/core/ports"
	"storefront-payments/pkg/apperror"
	"storefront-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler serves the operator order view.
type OrderHandler struct {
	orderSvc ports.OrderQueryService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc ports.OrderQueryService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// GetOrder handles GET /api/v1/orders/:guid.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	guid, err := uuid.Parse(c.Param("guid"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order guid"))
		return
	}

	order, err := h.orderSvc.GetOrder(c.Request.Context(), guid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewOrderResponse(order))
}
