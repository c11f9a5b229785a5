package handler

import (
	"errors"
	"net/http"
	"time"

	"storefront-payments/internal/adapter/http/dto"
	"storefront-payments/internal/core/ports"
	"storefront-payments/pkg/apperror"
	"storefront-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Storefront pages the PayPal redirections land on.
const (
	ConfirmPath       = "/checkout/confirm"
	PaymentMethodPath = "/checkout/payment-method"
)

// CheckoutOptions configures the checkout session cookie.
type CheckoutOptions struct {
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

// CheckoutHandler serves the PayPal smart button callbacks.
type CheckoutHandler struct {
	checkoutSvc ports.CheckoutService
	opts        CheckoutOptions
	log         zerolog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutSvc ports.CheckoutService, opts CheckoutOptions, log zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkoutSvc: checkoutSvc, opts: opts, log: log}
}

// InitTransaction handles POST /paypal/init-transaction.
func (h *CheckoutHandler) InitTransaction(c *gin.Context) {
	var req dto.InitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	err := h.checkoutSvc.InitTransaction(c.Request.Context(), h.sessionID(c), req.OrderID)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusBadRequest {
			c.JSON(http.StatusOK, dto.InitTransactionResponse{Success: false, Message: appErr.Message})
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.InitTransactionResponse{Success: true})
}

// RedirectionSuccess handles GET /paypal/redirection-success.
func (h *CheckoutHandler) RedirectionSuccess(c *gin.Context) {
	_, err := h.checkoutSvc.RedirectionSuccess(c.Request.Context(), h.sessionID(c))
	if err != nil {
		if apperror.HasCode(err, apperror.CodeMissingCheckoutState) {
			h.log.Warn().Err(err).Msg("redirection success without checkout state")
			c.Redirect(http.StatusFound, PaymentMethodPath+"?warning=missing_checkout_state")
			return
		}
		response.Error(c, err)
		return
	}

	c.Redirect(http.StatusFound, ConfirmPath)
}

// RedirectionCancel handles GET /paypal/redirection-cancel.
func (h *CheckoutHandler) RedirectionCancel(c *gin.Context) {
	if err := h.checkoutSvc.RedirectionCancel(c.Request.Context(), h.sessionID(c)); err != nil {
		response.Error(c, err)
		return
	}

	c.Redirect(http.StatusFound, PaymentMethodPath+"?warning=payment_failed")
}

// sessionID returns the storefront session id, issuing a cookie when absent.
func (h *CheckoutHandler) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(h.opts.CookieName); err == nil && id != "" {
		return id
	}

	id := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, id, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.CookieSecure, true)
	return id
}
