package dto

import (
	"context"

	"github.com/poolstack/poolstack/internal/domain/invoice"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/money"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/poolstack/poolstack/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest creates a draft invoice, optionally with lines.
// There is deliberately no status field anywhere on invoice write
// requests; the lifecycle state is always derived server side.
type CreateInvoiceRequest struct {
	// client_id is the client being billed
	ClientID string `json:"client_id" validate:"required"`

	// issue_date is the invoice date as YYYY-MM-DD
	IssueDate string `json:"issue_date" validate:"required"`

	// due_date is the payment due date as YYYY-MM-DD
	DueDate string `json:"due_date" validate:"required"`

	// tax_rate is the percentage tax rate as a decimal string, e.g. "8.25"
	TaxRate string `json:"tax_rate,omitempty"`

	// discount_percent is the percentage discount as a decimal string
	DiscountPercent string `json:"discount_percent,omitempty"`

	// discount_flat is a flat discount in minor units, applied only when
	// discount_percent is not set
	DiscountFlat *int64 `json:"discount_flat,omitempty" validate:"omitempty,min=0"`

	// notes is free-form text shown to the client
	Notes string `json:"notes,omitempty"`

	// items are the initial invoice lines
	Items []CreateInvoiceItemRequest `json:"items,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if err := validateRate("tax_rate", r.TaxRate); err != nil {
		return err
	}
	if err := validateRate("discount_percent", r.DiscountPercent); err != nil {
		return err
	}

	if _, err := types.ParseCalendarDate(r.IssueDate); err != nil {
		return err
	}
	if _, err := types.ParseCalendarDate(r.DueDate); err != nil {
		return err
	}

	for i := range r.Items {
		if err := r.Items[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ToInvoice converts the request into a draft invoice. Amounts are left
// at zero; the service recomputes them once the items are attached.
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context) (*invoice.Invoice, error) {
	issueDate, err := types.ParseCalendarDate(r.IssueDate)
	if err != nil {
		return nil, err
	}

	dueDate, err := types.ParseCalendarDate(r.DueDate)
	if err != nil {
		return nil, err
	}

	return &invoice.Invoice{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		ClientID:        r.ClientID,
		InvoiceStatus:   types.InvoiceStatusDraft,
		IssueDate:       issueDate,
		DueDate:         &dueDate,
		TaxRate:         r.TaxRate,
		DiscountPercent: r.DiscountPercent,
		DiscountFlat:    r.DiscountFlat,
		Notes:           r.Notes,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}, nil
}

// CreateInvoiceItemRequest adds a line to an invoice
type CreateInvoiceItemRequest struct {
	// description is the human-readable line description
	Description string `json:"description" validate:"required"`

	// quantity is a decimal string; defaults to "1"
	Quantity string `json:"quantity,omitempty"`

	// unit_price is the per-unit price in minor units
	UnitPrice int64 `json:"unit_price" validate:"min=0"`

	// inventory_item_id optionally links the line to a stocked item
	InventoryItemID *string `json:"inventory_item_id,omitempty"`

	// sort_order controls display ordering within the invoice
	SortOrder int `json:"sort_order,omitempty"`
}

func (r *CreateInvoiceItemRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Quantity != "" {
		qty, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			return ierr.NewError("invalid quantity").
				WithHint("Quantity must be a decimal number").
				WithReportableDetails(map[string]any{
					"quantity": r.Quantity,
				}).
				Mark(ierr.ErrValidation)
		}
		if qty.IsNegative() {
			return ierr.NewError("quantity must be non-negative").
				WithHint("Quantity must be non-negative").
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

// ToInvoiceItem converts the request into an invoice line
func (r *CreateInvoiceItemRequest) ToInvoiceItem(ctx context.Context, inv *invoice.Invoice) *invoice.InvoiceItem {
	quantity := r.Quantity
	if quantity == "" {
		quantity = "1"
	}

	return &invoice.InvoiceItem{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM),
		InvoiceID:       inv.ID,
		Description:     r.Description,
		Quantity:        quantity,
		UnitPrice:       r.UnitPrice,
		Amount:          money.LineAmount(quantity, r.UnitPrice),
		InventoryItemID: r.InventoryItemID,
		SortOrder:       r.SortOrder,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

// UpdateInvoiceRequest patches invoice header fields. Only the fields
// listed here can be patched; amounts and lifecycle state cannot.
type UpdateInvoiceRequest struct {
	ClientID        *string `json:"client_id,omitempty"`
	IssueDate       *string `json:"issue_date,omitempty"`
	DueDate         *string `json:"due_date,omitempty"`
	TaxRate         *string `json:"tax_rate,omitempty"`
	DiscountPercent *string `json:"discount_percent,omitempty"`
	DiscountFlat    *int64  `json:"discount_flat,omitempty" validate:"omitempty,min=0"`
	Notes           *string `json:"notes,omitempty"`

	// items, when present, replaces the full set of invoice lines
	Items *[]CreateInvoiceItemRequest `json:"items,omitempty"`
}

func (r *UpdateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.ClientID != nil && *r.ClientID == "" {
		return ierr.NewError("client_id cannot be empty").
			WithHint("Provide a client id or omit the field").
			Mark(ierr.ErrValidation)
	}
	if r.TaxRate != nil {
		if err := validateRate("tax_rate", *r.TaxRate); err != nil {
			return err
		}
	}
	if r.DiscountPercent != nil {
		if err := validateRate("discount_percent", *r.DiscountPercent); err != nil {
			return err
		}
	}
	if r.IssueDate != nil {
		if _, err := types.ParseCalendarDate(*r.IssueDate); err != nil {
			return err
		}
	}
	if r.DueDate != nil && *r.DueDate != "" {
		if _, err := types.ParseCalendarDate(*r.DueDate); err != nil {
			return err
		}
	}
	if r.Items != nil {
		for i := range *r.Items {
			if err := (*r.Items)[i].Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

// InvoiceResponse is the invoice representation returned by the API
type InvoiceResponse struct {
	*invoice.Invoice

	// warnings carries non-fatal problems encountered while serving the
	// request, e.g. an email delivery failure during send
	Warnings []string `json:"warnings,omitempty"`
}

// NewInvoiceResponse creates a response from a domain invoice
func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

// WithWarnings attaches non-fatal warnings to the response
func (r *InvoiceResponse) WithWarnings(warnings ...string) *InvoiceResponse {
	r.Warnings = append(r.Warnings, warnings...)
	return r
}

// ListInvoicesResponse is the paginated list envelope
type ListInvoicesResponse struct {
	Items      []*InvoiceResponse       `json:"items"`
	Pagination types.PaginationResponse `json:"pagination"`
}

// PaymentLinkResponse is the created gateway payment link
type PaymentLinkResponse struct {
	InvoiceID string `json:"invoice_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// validateRate checks that a percentage rate string parses to a value
// in [0, 100]. Blank is allowed and means zero.
func validateRate(field, value string) error {
	if value == "" {
		return nil
	}
	rate, err := decimal.NewFromString(value)
	if err != nil {
		return ierr.NewError("invalid " + field).
			WithHintf("%s must be a decimal number", field).
			WithReportableDetails(map[string]any{
				field: value,
			}).
			Mark(ierr.ErrValidation)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError(field + " out of range").
			WithHintf("%s must be between 0 and 100", field).
			Mark(ierr.ErrValidation)
	}
	return nil
}
