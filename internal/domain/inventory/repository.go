package inventory

import (
	"context"

	"github.com/poolstack/poolstack/internal/types"
)

// Repository defines the interface for inventory data access
type Repository interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, filter *types.InventoryItemFilter) ([]*Item, error)
	Count(ctx context.Context, filter *types.InventoryItemFilter) (int, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error

	CreateAdjustment(ctx context.Context, adjustment *Adjustment) error
	ListAdjustments(ctx context.Context, itemID string) ([]*Adjustment, error)
}
