package service

import (
	"context"
	"time"

	"github.com/poolstack/poolstack/internal/domain/inventory"
	"github.com/poolstack/poolstack/internal/domain/invoice"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/money"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/shopspring/decimal"
)

// deductInventoryOnce applies the stock deduction side effect the first
// time an invoice leaves draft. Each linked line decrements its
// inventory item's quantity on hand, floored at zero, and writes an
// adjustment audit row. InventoryDeductedAt on the invoice guarantees
// the deduction fires at most once regardless of how the invoice later
// moves between states. Runs inside the caller's transaction; the
// caller persists the invoice afterwards.
func deductInventoryOnce(
	ctx context.Context,
	log *logger.Logger,
	inventoryRepo inventory.Repository,
	inv *invoice.Invoice,
	priorStatus types.InvoiceStatus,
) error {
	if priorStatus != types.InvoiceStatusDraft || inv.InvoiceStatus == types.InvoiceStatusDraft {
		return nil
	}
	if inv.InventoryDeductedAt != nil {
		return nil
	}

	now := time.Now().UTC()

	for _, item := range inv.Items {
		if item.InventoryItemID == nil {
			continue
		}

		stock, err := inventoryRepo.Get(ctx, *item.InventoryItemID)
		if err != nil {
			// A dangling reference must not block the invoice transition
			log.Warnw("inventory item referenced by invoice line not found",
				"invoice_id", inv.ID,
				"item_id", item.ID,
				"inventory_item_id", *item.InventoryItemID,
				"error", err,
			)
			continue
		}

		onHand := money.ParseQuantity(stock.QuantityOnHand)
		qty := money.ParseQuantity(item.Quantity)

		after := onHand.Sub(qty)
		if after.IsNegative() {
			after = decimal.Zero
		}
		delta := after.Sub(onHand)

		stock.QuantityOnHand = after.String()
		stock.UpdatedAt = now
		stock.UpdatedBy = types.GetUserID(ctx)
		if err := inventoryRepo.Update(ctx, stock); err != nil {
			return err
		}

		adjustment := &inventory.Adjustment{
			ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVENTORY_ADJUSTMENT),
			InventoryItemID: stock.ID,
			InvoiceID:       &inv.ID,
			Delta:           delta.String(),
			QuantityAfter:   after.String(),
			Reason:          types.InventoryAdjustmentReasonInvoiceSent,
			BaseModel:       types.GetDefaultBaseModel(ctx),
		}
		adjustment.OrganizationID = inv.OrganizationID
		if err := inventoryRepo.CreateAdjustment(ctx, adjustment); err != nil {
			return err
		}

		log.Infow("deducted inventory for invoice line",
			"invoice_id", inv.ID,
			"inventory_item_id", stock.ID,
			"delta", delta.String(),
			"quantity_after", after.String(),
		)
	}

	inv.InventoryDeductedAt = &now
	return nil
}

func (s *invoiceService) deductInventoryOnce(ctx context.Context, inv *invoice.Invoice, priorStatus types.InvoiceStatus) error {
	return deductInventoryOnce(ctx, s.logger, s.inventoryRepo, inv, priorStatus)
}
