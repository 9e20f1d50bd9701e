package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/service"
)

// StripeSignatureHeader carries the gateway webhook signature
const StripeSignatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	paymentService service.PaymentService
	logger         *logger.Logger
}

func NewWebhookHandler(paymentService service.PaymentService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// HandleGatewayWebhook verifies and reconciles a payment gateway
// webhook. The route is unauthenticated; trust comes from the
// signature check inside the gateway client.
func (h *WebhookHandler) HandleGatewayWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to read webhook payload").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.ReconcileWebhook(
		c.Request.Context(),
		payload,
		c.GetHeader(StripeSignatureHeader),
	)
	if err != nil {
		h.logger.Errorw("webhook reconciliation failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
