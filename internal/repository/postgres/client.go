package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poolstack/poolstack/internal/domain/client"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	"github.com/poolstack/poolstack/internal/types"
)

type clientRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return &clientRepository{db: db, logger: logger}
}

func (r *clientRepository) Create(ctx context.Context, c *client.Client) error {
	query := `
		INSERT INTO clients (
			id, organization_id, name, email, phone,
			address_line1, address_line2, address_city, address_state, address_postal_code,
			notes, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :organization_id, :name, :email, :phone,
			:address_line1, :address_line2, :address_city, :address_state, :address_postal_code,
			:notes, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating client",
		"client_id", c.ID,
		"organization_id", c.OrganizationID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create client").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *clientRepository) Get(ctx context.Context, id string) (*client.Client, error) {
	rows, err := r.db.NamedQueryContext(ctx, `SELECT * FROM clients WHERE id = :id AND status != :deleted`, map[string]interface{}{
		"id":      id,
		"deleted": types.StatusDeleted,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get client").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("client not found").
			WithHint("The client does not exist").
			WithReportableDetails(map[string]any{"client_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var c client.Client
	if err := rows.StructScan(&c); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan client").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *clientRepository) buildFilterClauses(ctx context.Context, filter *types.ClientFilter) ([]string, map[string]interface{}) {
	clauses := []string{
		"organization_id = :organization_id",
		"status = :row_status",
	}
	args := map[string]interface{}{
		"organization_id": types.GetOrganizationID(ctx),
		"row_status":      filter.GetStatus(),
	}

	if len(filter.ClientIDs) > 0 {
		names := make([]string, len(filter.ClientIDs))
		for i, id := range filter.ClientIDs {
			name := fmt.Sprintf("client_id_%d", i)
			names[i] = ":" + name
			args[name] = id
		}
		clauses = append(clauses, fmt.Sprintf("id IN (%s)", strings.Join(names, ", ")))
	}

	if filter.Email != "" {
		clauses = append(clauses, "email = :email")
		args["email"] = filter.Email
	}

	return clauses, args
}

func (r *clientRepository) List(ctx context.Context, filter *types.ClientFilter) ([]*client.Client, error) {
	clauses, args := r.buildFilterClauses(ctx, filter)

	query := fmt.Sprintf(
		"SELECT * FROM clients WHERE %s ORDER BY created_at DESC",
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
			WithHint("Failed to list clients").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var clients []*client.Client
	for rows.Next() {
		var c client.Client
		if err := rows.StructScan(&c); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan client").
				Mark(ierr.ErrDatabase)
		}
		clients = append(clients, &c)
	}
	return clients, nil
}

func (r *clientRepository) Count(ctx context.Context, filter *types.ClientFilter) (int, error) {
	clauses, args := r.buildFilterClauses(ctx, filter)

	query := fmt.Sprintf("SELECT COUNT(*) FROM clients WHERE %s", strings.Join(clauses, " AND "))

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count clients").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	count := 0
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan client count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

func (r *clientRepository) Update(ctx context.Context, c *client.Client) error {
	query := `
		UPDATE clients SET
			name = :name,
			email = :email,
			phone = :phone,
			address_line1 = :address_line1,
			address_line2 = :address_line2,
			address_city = :address_city,
			address_state = :address_state,
			address_postal_code = :address_postal_code,
			notes = :notes,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND organization_id = :organization_id`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update client").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE clients SET
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND organization_id = :organization_id`

	r.logger.Debugw("deleting client",
		"client_id", id,
		"organization_id", types.GetOrganizationID(ctx),
	)

	if _, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusDeleted,
		"updated_by":      types.GetUserID(ctx),
		"updated_at":      time.Now().UTC(),
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete client").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
