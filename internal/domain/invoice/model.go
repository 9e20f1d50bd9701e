package invoice

import (
	"time"

	"github.com/poolstack/poolstack/internal/money"
	"github.com/poolstack/poolstack/internal/types"
)

// Invoice represents a client invoice. All monetary amounts are integer
// minor units. InvoiceStatus is persisted for querying but is always a
// projection of (amount_paid, total, sent_at); it is recomputed on every
// write and never accepted from the outside.
type Invoice struct {
	// ID is the unique identifier for the invoice
	ID string `db:"id" json:"id"`

	// InvoiceNumber is the human-readable per-organization number, e.g. INV-00042
	InvoiceNumber string `db:"invoice_number" json:"invoice_number"`

	// ClientID references the billed client
	ClientID string `db:"client_id" json:"client_id"`

	// InvoiceStatus is the derived lifecycle state
	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`

	// IssueDate is the calendar date the invoice is issued for
	IssueDate time.Time `db:"issue_date" json:"issue_date"`

	// DueDate is the optional payment due date
	DueDate *time.Time `db:"due_date" json:"due_date,omitempty"`

	// TaxRate is the percentage tax rate as a decimal string, e.g. "8.25"
	TaxRate string `db:"tax_rate" json:"tax_rate"`

	// DiscountPercent is the percentage discount as a decimal string
	DiscountPercent string `db:"discount_percent" json:"discount_percent"`

	// DiscountFlat, when set, is a flat discount in minor units; it only
	// applies when DiscountPercent is blank
	DiscountFlat *int64 `db:"discount_flat" json:"discount_flat,omitempty"`

	// Subtotal is the sum of line amounts in minor units
	Subtotal int64 `db:"subtotal" json:"subtotal"`

	// DiscountAmount is the materialized discount in minor units
	DiscountAmount int64 `db:"discount_amount" json:"discount_amount"`

	// TaxAmount is the materialized tax in minor units
	TaxAmount int64 `db:"tax_amount" json:"tax_amount"`

	// Total is the amount owed in minor units
	Total int64 `db:"total" json:"total"`

	// AmountPaid is the sum of recorded payments in minor units
	AmountPaid int64 `db:"amount_paid" json:"amount_paid"`

	// AmountDue is Total - AmountPaid, floored at zero
	AmountDue int64 `db:"amount_due" json:"amount_due"`

	// Notes is free-form text shown to the client on the invoice
	Notes string `db:"notes" json:"notes"`

	// SentAt records the first successful send; once set the invoice can
	// never return to draft
	SentAt *time.Time `db:"sent_at" json:"sent_at,omitempty"`

	// PaidAt records when the invoice first became fully paid
	PaidAt *time.Time `db:"paid_at" json:"paid_at,omitempty"`

	// CheckoutSessionID is the identifier of the most recent payment
	// gateway checkout session created for this invoice
	CheckoutSessionID string `db:"checkout_session_id" json:"checkout_session_id,omitempty"`

	// InventoryDeductedAt marks that stock was already deducted for this
	// invoice; the deduction side effect fires at most once
	InventoryDeductedAt *time.Time `db:"inventory_deducted_at" json:"inventory_deducted_at,omitempty"`

	// Items are the invoice line items, ordered by sort order
	Items []*InvoiceItem `db:"-" json:"items,omitempty"`

	// Payments are the recorded payments against this invoice
	Payments []*InvoicePayment `db:"-" json:"payments,omitempty"`

	types.BaseModel
}

// EverSent reports whether the invoice has ever left draft
func (i *Invoice) EverSent() bool {
	return i.SentAt != nil
}

// Recompute rederives the invoice's amounts and lifecycle state from its
// items and payments. now stamps PaidAt the first time the invoice
// becomes fully paid; PaidAt is cleared if payments later drop below the
// total.
func (i *Invoice) Recompute(now time.Time) {
	lines := make([]money.Line, 0, len(i.Items))
	for _, item := range i.Items {
		lines = append(lines, money.Line{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	totals := money.ComputeTotals(lines, i.DiscountPercent, i.DiscountFlat, i.TaxRate)
	i.Subtotal = totals.Subtotal
	i.DiscountAmount = totals.DiscountAmount
	i.TaxAmount = totals.TaxAmount
	i.Total = totals.Total

	paid := int64(0)
	for _, p := range i.Payments {
		paid += p.Amount
	}
	if paid < 0 {
		paid = 0
	}
	i.AmountPaid = paid

	i.AmountDue = i.Total - i.AmountPaid
	if i.AmountDue < 0 {
		i.AmountDue = 0
	}

	i.InvoiceStatus = types.DeriveInvoiceStatus(i.AmountPaid, i.Total, i.EverSent())

	switch i.InvoiceStatus {
	case types.InvoiceStatusPaid:
		if i.PaidAt == nil {
			i.PaidAt = &now
		}
	default:
		i.PaidAt = nil
	}
}
