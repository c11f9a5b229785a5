package handler

import (
	"io"
	"net/http"

	"storefront-payments/internal/core/ports"
	"storefront-payments/pkg/apperror"
	"storefront-payments/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PayPal transmission headers sent with every webhook delivery.
const (
	HeaderAuthAlgo         = "PAYPAL-AUTH-ALGO"
	HeaderCertURL          = "PAYPAL-CERT-URL"
	HeaderTransmissionID   = "PAYPAL-TRANSMISSION-ID"
	HeaderTransmissionSig  = "PAYPAL-TRANSMISSION-SIG"
	HeaderTransmissionTime = "PAYPAL-TRANSMISSION-TIME"
)

// WebhookHandler receives PayPal webhook deliveries.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
	log        zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc, log: log}
}

// Handle handles POST /payments/webhookhandler.
// Deliveries are acknowledged with 200 unless the order does not exist, so the
// gateway only redelivers what might still match once the order is created.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read webhook body")
		response.Ack(c, http.StatusOK)
		return
	}

	headers := ports.TransmissionHeaders{
		AuthAlgo:         c.GetHeader(HeaderAuthAlgo),
		CertURL:          c.GetHeader(HeaderCertURL),
		TransmissionID:   c.GetHeader(HeaderTransmissionID),
		TransmissionSig:  c.GetHeader(HeaderTransmissionSig),
		TransmissionTime: c.GetHeader(HeaderTransmissionTime),
	}

	if err := h.webhookSvc.HandleWebhook(c.Request.Context(), body, headers); err != nil {
		if apperror.HasCode(err, apperror.CodeOrderNotFound) {
			response.Ack(c, http.StatusNotFound)
			return
		}
	}
	response.Ack(c, http.StatusOK)
}
