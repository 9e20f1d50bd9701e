package inventory

import (
	"github.com/poolstack/poolstack/internal/types"
)

// Item represents a stocked product that invoice lines can reference,
// e.g. chlorine tablets or filter cartridges. QuantityOnHand is a
// decimal string so fractional units (gallons, pounds) are exact.
type Item struct {
	// ID is the unique identifier for the inventory item
	ID string `db:"id" json:"id"`

	// Name is the display name of the item
	Name string `db:"name" json:"name"`

	// SKU is the stock keeping unit code
	SKU string `db:"sku" json:"sku"`

	// Unit is the unit of measure, e.g. "each", "lb", "gal"
	Unit string `db:"unit" json:"unit"`

	// QuantityOnHand is the current stock level as a decimal string;
	// never negative
	QuantityOnHand string `db:"quantity_on_hand" json:"quantity_on_hand"`

	// UnitPrice is the default per-unit sale price in minor units
	UnitPrice int64 `db:"unit_price" json:"unit_price"`

	types.BaseModel
}

// Adjustment is an audit record of a stock level change
type Adjustment struct {
	// ID is the unique identifier for the adjustment
	ID string `db:"id" json:"id"`

	// InventoryItemID references the adjusted item
	InventoryItemID string `db:"inventory_item_id" json:"inventory_item_id"`

	// InvoiceID references the invoice that triggered the adjustment,
	// when the reason is invoice_sent
	InvoiceID *string `db:"invoice_id" json:"invoice_id,omitempty"`

	// Delta is the signed quantity change as a decimal string
	Delta string `db:"delta" json:"delta"`

	// QuantityAfter is the stock level after applying the delta
	QuantityAfter string `db:"quantity_after" json:"quantity_after"`

	// Reason explains why the stock level changed
	Reason types.InventoryAdjustmentReason `db:"reason" json:"reason"`

	types.BaseModel
}
