package invoice

import (
	"context"

	"github.com/poolstack/poolstack/internal/types"
)

// Repository defines the interface for invoice data access. Get and
// GetWithLines load by id without organization scoping so the service
// can distinguish a missing invoice from a cross-organization access;
// List and Count are always organization-scoped. GetWithLines also
// hydrates Items and Payments.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetWithLines(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id string) error

	// NextInvoiceNumber atomically advances the per-organization sequence
	// and returns the next sequence value
	NextInvoiceNumber(ctx context.Context) (int64, error)

	CreateItem(ctx context.Context, item *InvoiceItem) error
	GetItem(ctx context.Context, id string) (*InvoiceItem, error)
	ListItems(ctx context.Context, invoiceID string) ([]*InvoiceItem, error)
	DeleteItem(ctx context.Context, id string) error
	DeleteItemsByInvoice(ctx context.Context, invoiceID string) error

	CreatePayment(ctx context.Context, payment *InvoicePayment) error
	GetPayment(ctx context.Context, id string) (*InvoicePayment, error)
	ListPayments(ctx context.Context, invoiceID string) ([]*InvoicePayment, error)
	DeletePayment(ctx context.Context, id string) error
	DeletePaymentsByInvoice(ctx context.Context, invoiceID string) error

	// GetPaymentByGatewayEventID returns the payment created for a webhook
	// event, if any. Used to keep webhook reconciliation idempotent.
	GetPaymentByGatewayEventID(ctx context.Context, eventID string) (*InvoicePayment, error)

	// GetByCheckoutSessionID returns the invoice that owns a gateway
	// checkout session
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*Invoice, error)
}
