package types

import (
	"fmt"

	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the lifecycle state of an invoice.
// It is a pure projection of (amount_paid, total, ever_sent) and is never
// settable directly through the API.
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice has not been sent and has no payments
	InvoiceStatusDraft InvoiceStatus = "draft"
	// InvoiceStatusSent indicates the invoice was sent to the client and is unpaid
	InvoiceStatusSent InvoiceStatus = "sent"
	// InvoiceStatusPartial indicates the invoice has payments covering less than its total
	InvoiceStatusPartial InvoiceStatus = "partial"
	// InvoiceStatusPaid indicates payments cover the full invoice total
	InvoiceStatusPaid InvoiceStatus = "paid"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusPartial,
		InvoiceStatusPaid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DeriveInvoiceStatus computes the invoice status from the money invariant.
// amountPaid is clamped at zero by callers; amounts are integer minor units.
//
//	paid == 0, never sent  -> draft
//	paid == 0, sent        -> sent
//	0 < paid < total       -> partial
//	paid >= total          -> paid
func DeriveInvoiceStatus(amountPaid, total int64, everSent bool) InvoiceStatus {
	switch {
	case amountPaid <= 0 && !everSent:
		return InvoiceStatusDraft
	case amountPaid <= 0:
		return InvoiceStatusSent
	case amountPaid < total:
		return InvoiceStatusPartial
	default:
		return InvoiceStatusPaid
	}
}

const (
	// InvoiceNumberPrefix is the human-readable prefix on generated invoice numbers
	InvoiceNumberPrefix = "INV"
	// InvoiceNumberSuffixLength is the zero-padded width of the sequence suffix
	InvoiceNumberSuffixLength = 5
)

// FormatInvoiceNumber renders a sequence value as an invoice number,
// e.g. 42 -> INV-00042. Sequences past the padded width keep growing.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%s-%0*d", InvoiceNumberPrefix, InvoiceNumberSuffixLength, seq)
}

// InvoiceFilter represents the filter options for listing invoices
type InvoiceFilter struct {
	*QueryFilter
	*TimeRangeFilter

	// invoice_ids restricts results to invoices with the specified IDs
	InvoiceIDs []string `json:"invoice_ids,omitempty" form:"invoice_ids"`

	// client_id filters invoices for a specific client
	ClientID string `json:"client_id,omitempty" form:"client_id"`

	// invoice_status filters by lifecycle state; multiple values are OR-ed
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`
}

// NewInvoiceFilter creates a new invoice filter with default pagination
func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitInvoiceFilter creates a new invoice filter without pagination
func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *InvoiceFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return ierr.WithError(err).WithHint("invalid query filter").Mark(ierr.ErrValidation)
		}
	}
	if f.TimeRangeFilter != nil {
		if err := f.TimeRangeFilter.Validate(); err != nil {
			return ierr.WithError(err).WithHint("invalid time range").Mark(ierr.ErrValidation)
		}
	}
	for _, s := range f.InvoiceStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *InvoiceFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *InvoiceFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *InvoiceFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter interface
func (f *InvoiceFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

// GetStatus implements BaseFilter interface
func (f *InvoiceFilter) GetStatus() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetStatus()
	}
	return f.QueryFilter.GetStatus()
}

func (f *InvoiceFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
