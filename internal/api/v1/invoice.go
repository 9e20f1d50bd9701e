package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poolstack/poolstack/internal/api/dto"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/service"
	"github.com/poolstack/poolstack/internal/types"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// CreateInvoice creates a draft invoice, optionally with initial lines
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request payload").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetInvoice returns an invoice with its items and payments
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListInvoices lists invoices with optional filtering and pagination
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid filter parameters").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateInvoice patches invoice header fields and optionally replaces
// the full item set
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request payload").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteInvoice removes an invoice together with its items and payments
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invoice deleted successfully"})
}

// AddInvoiceItem appends a line to an invoice and recomputes totals
func (h *InvoiceHandler) AddInvoiceItem(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	var req dto.CreateInvoiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).WithHint("invalid request payload").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.AddInvoiceItem(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// RemoveInvoiceItem deletes a line from an invoice and recomputes totals
func (h *InvoiceHandler) RemoveInvoiceItem(c *gin.Context) {
	id := c.Param("id")
	itemID := c.Param("itemId")
	if id == "" || itemID == "" {
		c.Error(ierr.NewError("invalid path parameters").WithHint("invoice id and item id are required").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.RemoveInvoiceItem(c.Request.Context(), id, itemID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SendInvoice transitions the invoice to sent and attempts email delivery
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.SendInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreatePaymentLink creates a hosted checkout session for the
// outstanding balance
func (h *InvoiceHandler) CreatePaymentLink(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").WithHint("invoice id is required").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.CreatePaymentLink(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
