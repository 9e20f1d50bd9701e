package types

import (
	ierr "github.com/poolstack/poolstack/internal/errors"
)

// InventoryAdjustmentReason explains why stock levels changed
type InventoryAdjustmentReason string

const (
	// InventoryAdjustmentReasonInvoiceSent is the deduction applied when an
	// invoice referencing the item transitions out of draft
	InventoryAdjustmentReasonInvoiceSent InventoryAdjustmentReason = "invoice_sent"
	// InventoryAdjustmentReasonManual is an operator-entered correction
	InventoryAdjustmentReasonManual InventoryAdjustmentReason = "manual"
	// InventoryAdjustmentReasonRestock is an inbound stock receipt
	InventoryAdjustmentReasonRestock InventoryAdjustmentReason = "restock"
)

func (r InventoryAdjustmentReason) String() string {
	return string(r)
}

// InventoryItemFilter represents the filter options for listing inventory items
type InventoryItemFilter struct {
	*QueryFilter

	// item_ids restricts results to items with the specified IDs
	ItemIDs []string `json:"item_ids,omitempty" form:"item_ids"`

	// sku filters by exact SKU
	SKU string `json:"sku,omitempty" form:"sku"`
}

// NewInventoryItemFilter creates a new inventory item filter with default pagination
func NewInventoryItemFilter() *InventoryItemFilter {
	return &InventoryItemFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *InventoryItemFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return ierr.WithError(err).WithHint("invalid query filter").Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *InventoryItemFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *InventoryItemFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *InventoryItemFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter interface
func (f *InventoryItemFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

// GetStatus implements BaseFilter interface
func (f *InventoryItemFilter) GetStatus() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetStatus()
	}
	return f.QueryFilter.GetStatus()
}

func (f *InventoryItemFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
