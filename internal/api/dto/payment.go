package dto

import (
	"context"
	"time"

	"github.com/poolstack/poolstack/internal/domain/invoice"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/poolstack/poolstack/internal/validator"
)

// RecordPaymentRequest records a manual payment against an invoice
type RecordPaymentRequest struct {
	// amount is the payment amount in minor units; must be positive
	Amount int64 `json:"amount" validate:"required,gt=0"`

	// payment_method is how the payment was made; defaults to manual
	PaymentMethod types.PaymentMethod `json:"payment_method,omitempty"`

	// paid_at is when the payment was received; defaults to now
	PaidAt *time.Time `json:"paid_at,omitempty"`

	// reference is a free-form external reference, e.g. a check number
	Reference string `json:"reference,omitempty"`

	// notes holds internal notes about the payment
	Notes string `json:"notes,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.PaymentMethod != "" {
		if err := r.PaymentMethod.Validate(); err != nil {
			return err
		}
	}

	if r.PaymentMethod == types.PaymentMethodGateway {
		return ierr.NewError("gateway payments cannot be recorded manually").
			WithHint("Gateway payments are reconciled from webhooks").
			Mark(ierr.ErrInvalidOperation)
	}

	if r.PaidAt != nil && r.PaidAt.After(time.Now().UTC().Add(24*time.Hour)) {
		return ierr.NewError("paid_at cannot be in the future").
			WithHint("Provide a past or current payment date").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// ToPayment converts the request into a manual invoice payment
func (r *RecordPaymentRequest) ToPayment(ctx context.Context, inv *invoice.Invoice) *invoice.InvoicePayment {
	method := r.PaymentMethod
	if method == "" {
		method = types.PaymentMethodManual
	}

	paidAt := time.Now().UTC()
	if r.PaidAt != nil {
		paidAt = r.PaidAt.UTC()
	}

	userID := types.GetUserID(ctx)

	return &invoice.InvoicePayment{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_PAYMENT),
		InvoiceID:     inv.ID,
		Amount:        r.Amount,
		PaymentMethod: method,
		PaidAt:        paidAt,
		Reference:     r.Reference,
		Notes:         r.Notes,
		RecordedBy:    &userID,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
}

// PaymentResponse is the payment representation returned by the API
type PaymentResponse struct {
	*invoice.InvoicePayment
}

// NewPaymentResponse creates a response from a domain payment
func NewPaymentResponse(p *invoice.InvoicePayment) *PaymentResponse {
	return &PaymentResponse{InvoicePayment: p}
}

// WebhookResponse acknowledges a processed gateway webhook
type WebhookResponse struct {
	// received is always true for acknowledged events
	Received bool `json:"received"`

	// event_id is the gateway event identifier
	EventID string `json:"event_id,omitempty"`

	// invoice_id is set when the event was reconciled against an invoice
	InvoiceID string `json:"invoice_id,omitempty"`

	// duplicate indicates the event was already processed
	Duplicate bool `json:"duplicate,omitempty"`
}
