package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poolstack/poolstack/internal/domain/inventory"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	"github.com/poolstack/poolstack/internal/types"
)

type inventoryRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInventoryRepository(db *postgres.DB, logger *logger.Logger) inventory.Repository {
	return &inventoryRepository{db: db, logger: logger}
}

func (r *inventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	query := `
		INSERT INTO inventory_items (
			id, organization_id, name, sku, unit, quantity_on_hand, unit_price,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :organization_id, :name, :sku, :unit, :quantity_on_hand, :unit_price,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating inventory item",
		"inventory_item_id", item.ID,
		"organization_id", item.OrganizationID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create inventory item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *inventoryRepository) Get(ctx context.Context, id string) (*inventory.Item, error) {
	rows, err := r.db.NamedQueryContext(ctx, `SELECT * FROM inventory_items WHERE id = :id AND status != :deleted`, map[string]interface{}{
		"id":      id,
		"deleted": types.StatusDeleted,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get inventory item").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("inventory item not found").
			WithReportableDetails(map[string]any{"inventory_item_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var item inventory.Item
	if err := rows.StructScan(&item); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan inventory item").
			Mark(ierr.ErrDatabase)
	}
	return &item, nil
}

func (r *inventoryRepository) buildFilterClauses(ctx context.Context, filter *types.InventoryItemFilter) ([]string, map[string]interface{}) {
	clauses := []string{
		"organization_id = :organization_id",
		"status = :row_status",
	}
	args := map[string]interface{}{
		"organization_id": types.GetOrganizationID(ctx),
		"row_status":      filter.GetStatus(),
	}

	if len(filter.ItemIDs) > 0 {
		names := make([]string, len(filter.ItemIDs))
		for i, id := range filter.ItemIDs {
			name := fmt.Sprintf("item_id_%d", i)
			names[i] = ":" + name
			args[name] = id
		}
		clauses = append(clauses, fmt.Sprintf("id IN (%s)", strings.Join(names, ", ")))
	}

	if filter.SKU != "" {
		clauses = append(clauses, "sku = :sku")
		args["sku"] = filter.SKU
	}

	return clauses, args
}

func (r *inventoryRepository) List(ctx context.Context, filter *types.InventoryItemFilter) ([]*inventory.Item, error) {
	clauses, args := r.buildFilterClauses(ctx, filter)

	query := fmt.Sprintf(
		"SELECT * FROM inventory_items WHERE %s ORDER BY name ASC",
		strings.Join(clauses, " AND "),
	)
	if !filter.IsUnlimited() {
		query += " LIMIT :limit OFFSET :offset"
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list inventory items").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var items []*inventory.Item
	for rows.Next() {
		var item inventory.Item
		if err := rows.StructScan(&item); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan inventory item").
				Mark(ierr.ErrDatabase)
		}
		items = append(items, &item)
	}
	return items, nil
}

func (r *inventoryRepository) Count(ctx context.Context, filter *types.InventoryItemFilter) (int, error) {
	clauses, args := r.buildFilterClauses(ctx, filter)

	query := fmt.Sprintf("SELECT COUNT(*) FROM inventory_items WHERE %s", strings.Join(clauses, " AND "))

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count inventory items").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	count := 0
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan inventory count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *inventory.Item) error {
	query := `
		UPDATE inventory_items SET
			name = :name,
			sku = :sku,
			unit = :unit,
			quantity_on_hand = :quantity_on_hand,
			unit_price = :unit_price,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND organization_id = :organization_id`

	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update inventory item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE inventory_items SET
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND organization_id = :organization_id`

	if _, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusDeleted,
		"updated_by":      types.GetUserID(ctx),
		"updated_at":      time.Now().UTC(),
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete inventory item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *inventoryRepository) CreateAdjustment(ctx context.Context, adjustment *inventory.Adjustment) error {
	query := `
		INSERT INTO inventory_adjustments (
			id, organization_id, inventory_item_id, invoice_id, delta, quantity_after, reason,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :organization_id, :inventory_item_id, :invoice_id, :delta, :quantity_after, :reason,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, adjustment); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create inventory adjustment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *inventoryRepository) ListAdjustments(ctx context.Context, itemID string) ([]*inventory.Adjustment, error) {
	rows, err := r.db.NamedQueryContext(ctx,
		`SELECT * FROM inventory_adjustments WHERE inventory_item_id = :inventory_item_id ORDER BY created_at DESC`,
		map[string]interface{}{"inventory_item_id": itemID},
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list inventory adjustments").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var adjustments []*inventory.Adjustment
	for rows.Next() {
		var adj inventory.Adjustment
		if err := rows.StructScan(&adj); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan inventory adjustment").
				Mark(ierr.ErrDatabase)
		}
		adjustments = append(adjustments, &adj)
	}
	return adjustments, nil
}
