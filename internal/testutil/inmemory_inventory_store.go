package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/poolstack/poolstack/internal/domain/inventory"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/samber/lo"
)

// InMemoryInventoryStore implements inventory.Repository
type InMemoryInventoryStore struct {
	*InMemoryStore[*inventory.Item]

	mu          sync.Mutex
	adjustments map[string]*inventory.Adjustment
}

// NewInMemoryInventoryStore creates a new in-memory inventory store
func NewInMemoryInventoryStore() *InMemoryInventoryStore {
	return &InMemoryInventoryStore{
		InMemoryStore: NewInMemoryStore[*inventory.Item](),
		adjustments:   make(map[string]*inventory.Adjustment),
	}
}

func copyInventoryItem(item *inventory.Item) *inventory.Item {
	if item == nil {
		return nil
	}
	c := *item
	return &c
}

func copyAdjustment(adj *inventory.Adjustment) *inventory.Adjustment {
	if adj == nil {
		return nil
	}
	c := *adj
	c.InvoiceID = copyStringPtr(adj.InvoiceID)
	return &c
}

func (s *InMemoryInventoryStore) Create(ctx context.Context, item *inventory.Item) error {
	if item == nil {
		return fmt.Errorf("inventory item cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, item.ID, copyInventoryItem(item))
}

func (s *InMemoryInventoryStore) Get(ctx context.Context, id string) (*inventory.Item, error) {
	item, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("inventory item not found").
			WithHint("The inventory item does not exist").
			Mark(ierr.ErrNotFound)
	}
	return copyInventoryItem(item), nil
}

func (s *InMemoryInventoryStore) List(ctx context.Context, filter *types.InventoryItemFilter) ([]*inventory.Item, error) {
	items, err := s.InMemoryStore.List(ctx, filter, inventoryFilterFn, inventorySortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(item *inventory.Item, _ int) *inventory.Item {
		return copyInventoryItem(item)
	}), nil
}

func (s *InMemoryInventoryStore) Count(ctx context.Context, filter *types.InventoryItemFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, inventoryFilterFn)
}

func (s *InMemoryInventoryStore) Update(ctx context.Context, item *inventory.Item) error {
	if item == nil {
		return fmt.Errorf("inventory item cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, item.ID, copyInventoryItem(item)); err != nil {
		return ierr.NewError("inventory item not found").
			WithHint("The inventory item does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryInventoryStore) Delete(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	item.Status = types.StatusDeleted
	return s.InMemoryStore.Update(ctx, id, item)
}

func (s *InMemoryInventoryStore) CreateAdjustment(ctx context.Context, adjustment *inventory.Adjustment) error {
	if adjustment == nil {
		return fmt.Errorf("adjustment cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments[adjustment.ID] = copyAdjustment(adjustment)
	return nil
}

func (s *InMemoryInventoryStore) ListAdjustments(ctx context.Context, itemID string) ([]*inventory.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*inventory.Adjustment
	for _, adj := range s.adjustments {
		if adj.InventoryItemID == itemID {
			result = append(result, copyAdjustment(adj))
		}
	}
	return result, nil
}

// Clear removes all items and adjustments
func (s *InMemoryInventoryStore) Clear() {
	s.InMemoryStore.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments = make(map[string]*inventory.Adjustment)
}

func inventoryFilterFn(ctx context.Context, item *inventory.Item, filter interface{}) bool {
	if item == nil {
		return false
	}

	if orgID := types.GetOrganizationID(ctx); orgID != "" && item.OrganizationID != orgID {
		return false
	}
	if item.Status == types.StatusDeleted {
		return false
	}

	f, ok := filter.(*types.InventoryItemFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.ItemIDs) > 0 && !lo.Contains(f.ItemIDs, item.ID) {
		return false
	}
	if f.SKU != "" && item.SKU != f.SKU {
		return false
	}
	return true
}

func inventorySortFn(i, j *inventory.Item) bool {
	return i.CreatedAt.After(j.CreatedAt)
}
