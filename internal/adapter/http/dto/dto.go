package dto

import (
	"time"

	"storefront-payments/internal/core/domain"
)

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// InitTransactionRequest is posted by the PayPal smart button once the order is created.
type InitTransactionRequest struct {
	OrderID string `json:"order_id" binding:"omitempty,max=64,safe_id"`
}

// InitTransactionResponse tells the storefront script whether to continue.
type InitTransactionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OrderNoteResponse is one audit note.
type OrderNoteResponse struct {
	Note              string `json:"note"`
	DisplayToCustomer bool   `json:"display_to_customer"`
	CreatedAt         string `json:"created_at"`
}

// OrderResponse is the operator view of an order's reconciled payment state.
type OrderResponse struct {
	OrderGUID                      string              `json:"order_guid"`
	OrderTotal                     string              `json:"order_total"`
	RefundedAmount                 string              `json:"refunded_amount"`
	Currency                       string              `json:"currency"`
	OrderStatus                    string              `json:"order_status"`
	PaymentStatus                  string              `json:"payment_status"`
	AuthorizationTransactionID     string              `json:"authorization_transaction_id,omitempty"`
	AuthorizationTransactionResult string              `json:"authorization_transaction_result,omitempty"`
	CaptureTransactionID           string              `json:"capture_transaction_id,omitempty"`
	CaptureTransactionResult       string              `json:"capture_transaction_result,omitempty"`
	AppliedRefundIDs               []string            `json:"applied_refund_ids"`
	PaidAt                         *string             `json:"paid_at,omitempty"`
	Version                        int64               `json:"version"`
	UpdatedAt                      string              `json:"updated_at"`
	Notes                          []OrderNoteResponse `json:"notes"`
}

// NewOrderResponse converts a loaded order and its notes.
func NewOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		OrderGUID:                      o.OrderGUID.String(),
		OrderTotal:                     o.OrderTotal.StringFixed(2),
		RefundedAmount:                 o.RefundedAmount.StringFixed(2),
		Currency:                       o.Currency,
		OrderStatus:                    string(o.OrderStatus),
		PaymentStatus:                  string(o.PaymentStatus),
		AuthorizationTransactionID:     o.AuthorizationTransactionID,
		AuthorizationTransactionResult: o.AuthorizationTransactionResult,
		CaptureTransactionID:           o.CaptureTransactionID,
		CaptureTransactionResult:       o.CaptureTransactionResult,
		AppliedRefundIDs:               o.AppliedRefundIDs,
		Version:                        o.Version,
		UpdatedAt:                      o.UpdatedAt.Format(time.RFC3339),
		Notes:                          make([]OrderNoteResponse, 0, len(o.Notes)),
	}
	if resp.AppliedRefundIDs == nil {
		resp.AppliedRefundIDs = []string{}
	}
	if o.PaidAt != nil {
		paidAt := o.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	for _, n := range o.Notes {
		resp.Notes = append(resp.Notes, OrderNoteResponse{
			Note:              n.Note,
			DisplayToCustomer: n.DisplayToCustomer,
			CreatedAt:         n.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
