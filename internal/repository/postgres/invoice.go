package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poolstack/poolstack/internal/domain/invoice"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	"github.com/poolstack/poolstack/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, organization_id, invoice_number, client_id, invoice_status,
			issue_date, due_date, tax_rate, discount_percent, discount_flat,
			subtotal, discount_amount, tax_amount, total, amount_paid, amount_due,
			notes, sent_at, paid_at, checkout_session_id, inventory_deducted_at,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :organization_id, :invoice_number, :client_id, :invoice_status,
			:issue_date, :due_date, :tax_rate, :discount_percent, :discount_flat,
			:subtotal, :discount_amount, :tax_amount, :total, :amount_paid, :amount_due,
			:notes, :sent_at, :paid_at, :checkout_session_id, :inventory_deducted_at,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"organization_id", inv.OrganizationID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	rows, err := r.db.NamedQueryContext(ctx, `SELECT * FROM invoices WHERE id = :id AND status != :deleted`, map[string]interface{}{
		"id":      id,
		"deleted": types.StatusDeleted,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice not found").
			WithHint("The invoice does not exist").
			WithReportableDetails(map[string]any{
				"invoice_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	var inv invoice.Invoice
	if err := rows.StructScan(&inv); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) GetWithLines(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := r.ListItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	payments, err := r.ListPayments(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments

	return inv, nil
}

// sortColumns whitelists sortable columns so the ORDER BY clause is
// never built from raw caller input
var sortColumns = map[string]string{
	"created_at":     "created_at",
	"updated_at":     "updated_at",
	"issue_date":     "issue_date",
	"due_date":       "due_date",
	"invoice_number": "invoice_number",
	"total":          "total",
	"amount_due":     "amount_due",
}

func (r *invoiceRepository) buildFilterClauses(ctx context.Context, filter *types.InvoiceFilter) ([]string, map[string]interface{}) {
	clauses := []string{
		"organization_id = :organization_id",
		"status = :row_status",
	}
	args := map[string]interface{}{
		"organization_id": types.GetOrganizationID(ctx),
		"row_status":      filter.GetStatus(),
	}

	if len(filter.InvoiceIDs) > 0 {
		names := make([]string, len(filter.InvoiceIDs))
		for i, id := range filter.InvoiceIDs {
			name := fmt.Sprintf("invoice_id_%d", i)
			names[i] = ":" + name
			args[name] = id
		}
		clauses = append(clauses, fmt.Sprintf("id IN (%s)", strings.Join(names, ", ")))
	}

	if filter.ClientID != "" {
		clauses = append(clauses, "client_id = :client_id")
		args["client_id"] = filter.ClientID
	}

	if len(filter.InvoiceStatus) > 0 {
		names := make([]string, len(filter.InvoiceStatus))
		for i, s := range filter.InvoiceStatus {
			name := fmt.Sprintf("invoice_status_%d", i)
			names[i] = ":" + name
			args[name] = string(s)
		}
		clauses = append(clauses, fmt.Sprintf("invoice_status IN (%s)", strings.Join(names, ", ")))
	}

	if filter.TimeRangeFilter != nil {
		if filter.StartTime != nil {
			clauses = append(clauses, "issue_date >= :start_time")
			args["start_time"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			clauses = append(clauses, "issue_date <= :end_time")
			args["end_time"] = *filter.EndTime
		}
	}

	return clauses, args
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	clauses, args := r.buildFilterClauses(ctx, filter)

	sort, ok := sortColumns[filter.GetSort()]
	if !ok {
		sort = "created_at"
	}
	order := "DESC"
	if filter.GetOrder() == types.OrderAsc {
		order = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT * FROM invoices WHERE %s ORDER BY %s %s",
		strings.Join(clauses, " AND "), sort, order,
	)
	if !filter.IsUnlimited() {
		query += " LIMIT :limit OFFSET :offset"
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		if err := rows.StructScan(&inv); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan invoice").
				Mark(ierr.ErrDatabase)
		}
		invoices = append(invoices, &inv)
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	clauses, args := r.buildFilterClauses(ctx, filter)

	query := fmt.Sprintf("SELECT COUNT(*) FROM invoices WHERE %s", strings.Join(clauses, " AND "))

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	count := 0
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan invoice count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			client_id = :client_id,
			invoice_status = :invoice_status,
			issue_date = :issue_date,
			due_date = :due_date,
			tax_rate = :tax_rate,
			discount_percent = :discount_percent,
			discount_flat = :discount_flat,
			subtotal = :subtotal,
			discount_amount = :discount_amount,
			tax_amount = :tax_amount,
			total = :total,
			amount_paid = :amount_paid,
			amount_due = :amount_due,
			notes = :notes,
			sent_at = :sent_at,
			paid_at = :paid_at,
			checkout_session_id = :checkout_session_id,
			inventory_deducted_at = :inventory_deducted_at,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND organization_id = :organization_id`

	r.logger.Debugw("updating invoice",
		"invoice_id", inv.ID,
		"organization_id", inv.OrganizationID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debugw("deleting invoice", "invoice_id", id)

	if _, err := r.db.NamedExecContext(ctx, `DELETE FROM invoices WHERE id = :id`, map[string]interface{}{
		"id": id,
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// NextInvoiceNumber advances the per-organization sequence atomically.
// Sequence values are never reused; the upsert makes the first invoice
// of an organization create its sequence row.
func (r *invoiceRepository) NextInvoiceNumber(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO invoice_sequences (organization_id, last_value, created_at, updated_at)
		VALUES (:organization_id, 1, :now, :now)
		ON CONFLICT (organization_id)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1, updated_at = :now
		RETURNING last_value`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"organization_id": types.GetOrganizationID(ctx),
		"now":             time.Now().UTC(),
	})
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to advance invoice sequence").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var seq int64
	if !rows.Next() {
		return 0, ierr.NewError("invoice sequence returned no value").
			Mark(ierr.ErrDatabase)
	}
	if err := rows.Scan(&seq); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to scan invoice sequence").
			Mark(ierr.ErrDatabase)
	}
	return seq, nil
}

func (r *invoiceRepository) CreateItem(ctx context.Context, item *invoice.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (
			id, organization_id, invoice_id, description, quantity, unit_price,
			amount, inventory_item_id, sort_order,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :organization_id, :invoice_id, :description, :quantity, :unit_price,
			:amount, :inventory_item_id, :sort_order,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) GetItem(ctx context.Context, id string) (*invoice.InvoiceItem, error) {
	rows, err := r.db.NamedQueryContext(ctx, `SELECT * FROM invoice_items WHERE id = :id`, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice item").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice item not found").
			WithReportableDetails(map[string]any{"item_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var item invoice.InvoiceItem
	if err := rows.StructScan(&item); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan invoice item").
			Mark(ierr.ErrDatabase)
	}
	return &item, nil
}

func (r *invoiceRepository) ListItems(ctx context.Context, invoiceID string) ([]*invoice.InvoiceItem, error) {
	rows, err := r.db.NamedQueryContext(ctx,
		`SELECT * FROM invoice_items WHERE invoice_id = :invoice_id ORDER BY sort_order ASC, created_at ASC`,
		map[string]interface{}{"invoice_id": invoiceID},
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoice items").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var items []*invoice.InvoiceItem
	for rows.Next() {
		var item invoice.InvoiceItem
		if err := rows.StructScan(&item); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan invoice item").
				Mark(ierr.ErrDatabase)
		}
		items = append(items, &item)
	}
	return items, nil
}

func (r *invoiceRepository) DeleteItem(ctx context.Context, id string) error {
	if _, err := r.db.NamedExecContext(ctx, `DELETE FROM invoice_items WHERE id = :id`, map[string]interface{}{
		"id": id,
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete invoice item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) DeleteItemsByInvoice(ctx context.Context, invoiceID string) error {
	if _, err := r.db.NamedExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = :invoice_id`, map[string]interface{}{
		"invoice_id": invoiceID,
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete invoice items").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) CreatePayment(ctx context.Context, payment *invoice.InvoicePayment) error {
	query := `
		INSERT INTO invoice_payments (
			id, organization_id, invoice_id, amount, payment_method, paid_at,
			reference, notes, recorded_by, gateway_event_id, checkout_session_id,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :organization_id, :invoice_id, :amount, :payment_method, :paid_at,
			:reference, :notes, :recorded_by, :gateway_event_id, :checkout_session_id,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) GetPayment(ctx context.Context, id string) (*invoice.InvoicePayment, error) {
	rows, err := r.db.NamedQueryContext(ctx, `SELECT * FROM invoice_payments WHERE id = :id`, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment not found").
			WithReportableDetails(map[string]any{"payment_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var payment invoice.InvoicePayment
	if err := rows.StructScan(&payment); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan payment").
			Mark(ierr.ErrDatabase)
	}
	return &payment, nil
}

func (r *invoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]*invoice.InvoicePayment, error) {
	rows, err := r.db.NamedQueryContext(ctx,
		`SELECT * FROM invoice_payments WHERE invoice_id = :invoice_id ORDER BY paid_at ASC, created_at ASC`,
		map[string]interface{}{"invoice_id": invoiceID},
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var payments []*invoice.InvoicePayment
	for rows.Next() {
		var payment invoice.InvoicePayment
		if err := rows.StructScan(&payment); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan payment").
				Mark(ierr.ErrDatabase)
		}
		payments = append(payments, &payment)
	}
	return payments, nil
}

func (r *invoiceRepository) DeletePayment(ctx context.Context, id string) error {
	if _, err := r.db.NamedExecContext(ctx, `DELETE FROM invoice_payments WHERE id = :id`, map[string]interface{}{
		"id": id,
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) DeletePaymentsByInvoice(ctx context.Context, invoiceID string) error {
	if _, err := r.db.NamedExecContext(ctx, `DELETE FROM invoice_payments WHERE invoice_id = :invoice_id`, map[string]interface{}{
		"invoice_id": invoiceID,
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete payments").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) GetPaymentByGatewayEventID(ctx context.Context, eventID string) (*invoice.InvoicePayment, error) {
	rows, err := r.db.NamedQueryContext(ctx,
		`SELECT * FROM invoice_payments WHERE gateway_event_id = :gateway_event_id`,
		map[string]interface{}{"gateway_event_id": eventID},
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to look up payment by gateway event").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment not found for gateway event").
			WithReportableDetails(map[string]any{"event_id": eventID}).
			Mark(ierr.ErrNotFound)
	}

	var payment invoice.InvoicePayment
	if err := rows.StructScan(&payment); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan payment").
			Mark(ierr.ErrDatabase)
	}
	return &payment, nil
}

func (r *invoiceRepository) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*invoice.Invoice, error) {
	rows, err := r.db.NamedQueryContext(ctx,
		`SELECT * FROM invoices WHERE checkout_session_id = :checkout_session_id AND status != :deleted`,
		map[string]interface{}{
			"checkout_session_id": sessionID,
			"deleted":             types.StatusDeleted,
		},
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to look up invoice by checkout session").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("invoice not found for checkout session").
			WithReportableDetails(map[string]any{"session_id": sessionID}).
			Mark(ierr.ErrNotFound)
	}

	var inv invoice.Invoice
	if err := rows.StructScan(&inv); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}
