package invoice

import (
	"time"

	"github.com/poolstack/poolstack/internal/types"
)

// InvoicePayment represents a payment recorded against an invoice,
// either entered manually or reconciled from a gateway webhook.
type InvoicePayment struct {
	// ID is the unique identifier for the payment
	ID string `db:"id" json:"id"`

	// InvoiceID references the invoice the payment applies to
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// Amount is the payment amount in minor units; always positive
	Amount int64 `db:"amount" json:"amount"`

	// PaymentMethod is how the payment was made
	PaymentMethod types.PaymentMethod `db:"payment_method" json:"payment_method"`

	// PaidAt is when the payment was received
	PaidAt time.Time `db:"paid_at" json:"paid_at"`

	// Reference is a free-form external reference, e.g. a check number
	Reference string `db:"reference" json:"reference"`

	// Notes holds internal notes about the payment
	Notes string `db:"notes" json:"notes"`

	// RecordedBy is the user who entered a manual payment; nil for
	// gateway-reconciled payments
	RecordedBy *string `db:"recorded_by" json:"recorded_by,omitempty"`

	// GatewayEventID is the gateway webhook event that produced this
	// payment; used for idempotent reconciliation
	GatewayEventID string `db:"gateway_event_id" json:"gateway_event_id,omitempty"`

	// CheckoutSessionID is the gateway checkout session the payment settled
	CheckoutSessionID string `db:"checkout_session_id" json:"checkout_session_id,omitempty"`

	types.BaseModel
}
