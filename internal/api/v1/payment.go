package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poolstack/poolstack/internal/api/dto"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// ApplyPayment records a manual payment against an invoice and returns
// the recomputed invoice
func (h *PaymentHandler) ApplyPayment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request payload").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.ApplyPayment(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// RemovePayment deletes a payment from an invoice and returns the
// recomputed invoice
func (h *PaymentHandler) RemovePayment(c *gin.Context) {
	id := c.Param("id")
	paymentID := c.Param("paymentId")
	if id == "" || paymentID == "" {
		c.Error(ierr.NewError("invalid path parameters").WithHint("invoice id and payment id are required").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.RemovePayment(c.Request.Context(), id, paymentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
