package invoice

import (
	"github.com/poolstack/poolstack/internal/types"
)

// InvoiceItem represents a single line on an invoice
type InvoiceItem struct {
	// ID is the unique identifier for the line item
	ID string `db:"id" json:"id"`

	// InvoiceID references the parent invoice
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// Description is the human-readable line description
	Description string `db:"description" json:"description"`

	// Quantity is a decimal string, e.g. "2" or "1.5"
	Quantity string `db:"quantity" json:"quantity"`

	// UnitPrice is the per-unit price in minor units
	UnitPrice int64 `db:"unit_price" json:"unit_price"`

	// Amount is quantity * unit price rounded to minor units
	Amount int64 `db:"amount" json:"amount"`

	// InventoryItemID optionally links the line to a stocked inventory item
	InventoryItemID *string `db:"inventory_item_id" json:"inventory_item_id,omitempty"`

	// SortOrder controls display ordering of lines within the invoice
	SortOrder int `db:"sort_order" json:"sort_order"`

	types.BaseModel
}
