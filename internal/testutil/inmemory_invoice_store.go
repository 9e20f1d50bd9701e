package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/poolstack/poolstack/internal/domain/invoice"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu        sync.Mutex
	items     map[string]*invoice.InvoiceItem
	payments  map[string]*invoice.InvoicePayment
	sequences map[string]int64
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		items:         make(map[string]*invoice.InvoiceItem),
		payments:      make(map[string]*invoice.InvoicePayment),
		sequences:     make(map[string]int64),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	c.DueDate = copyTimePtr(inv.DueDate)
	c.SentAt = copyTimePtr(inv.SentAt)
	c.PaidAt = copyTimePtr(inv.PaidAt)
	c.InventoryDeductedAt = copyTimePtr(inv.InventoryDeductedAt)
	c.DiscountFlat = copyInt64Ptr(inv.DiscountFlat)
	// Items and Payments are hydrated separately from their own maps
	c.Items = nil
	c.Payments = nil
	return &c
}

func copyInvoiceItem(item *invoice.InvoiceItem) *invoice.InvoiceItem {
	if item == nil {
		return nil
	}
	c := *item
	c.InventoryItemID = copyStringPtr(item.InventoryItemID)
	return &c
}

func copyInvoicePayment(p *invoice.InvoicePayment) *invoice.InvoicePayment {
	if p == nil {
		return nil
	}
	c := *p
	c.RecordedBy = copyStringPtr(p.RecordedBy)
	return &c
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return fmt.Errorf("invoice cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("invoice not found").
			WithHint("The invoice does not exist").
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetWithLines(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	payments, err := s.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments

	return inv, nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	invoices, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(inv)
	}), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return fmt.Errorf("invoice cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return ierr.NewError("invoice not found").
			WithHint("The invoice does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return ierr.NewError("invoice not found").
			WithHint("The invoice does not exist").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryInvoiceStore) NextInvoiceNumber(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orgID := types.GetOrganizationID(ctx)
	s.sequences[orgID]++
	return s.sequences[orgID], nil
}

func (s *InMemoryInvoiceStore) CreateItem(ctx context.Context, item *invoice.InvoiceItem) error {
	if item == nil {
		return fmt.Errorf("invoice item cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = copyInvoiceItem(item)
	return nil
}

func (s *InMemoryInvoiceStore) GetItem(ctx context.Context, id string) (*invoice.InvoiceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ierr.NewError("invoice item not found").
			WithHint("The invoice item does not exist").
			Mark(ierr.ErrNotFound)
	}
	return copyInvoiceItem(item), nil
}

func (s *InMemoryInvoiceStore) ListItems(ctx context.Context, invoiceID string) ([]*invoice.InvoiceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*invoice.InvoiceItem
	for _, item := range s.items {
		if item.InvoiceID == invoiceID {
			result = append(result, copyInvoiceItem(item))
		}
	}

	sortInvoiceItems(result)
	return result, nil
}

func (s *InMemoryInvoiceStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewError("invoice item not found").
			WithHint("The invoice item does not exist").
			Mark(ierr.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *InMemoryInvoiceStore) DeleteItemsByInvoice(ctx context.Context, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.items {
		if item.InvoiceID == invoiceID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *InMemoryInvoiceStore) CreatePayment(ctx context.Context, payment *invoice.InvoicePayment) error {
	if payment == nil {
		return fmt.Errorf("payment cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.ID] = copyInvoicePayment(payment)
	return nil
}

func (s *InMemoryInvoiceStore) GetPayment(ctx context.Context, id string) (*invoice.InvoicePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[id]
	if !exists {
		return nil, ierr.NewError("payment not found").
			WithHint("The payment does not exist").
			Mark(ierr.ErrNotFound)
	}
	return copyInvoicePayment(payment), nil
}

func (s *InMemoryInvoiceStore) ListPayments(ctx context.Context, invoiceID string) ([]*invoice.InvoicePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*invoice.InvoicePayment
	for _, payment := range s.payments {
		if payment.InvoiceID == invoiceID {
			result = append(result, copyInvoicePayment(payment))
		}
	}
	sortInvoicePayments(result)
	return result, nil
}

func (s *InMemoryInvoiceStore) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[id]; !exists {
		return ierr.NewError("payment not found").
			WithHint("The payment does not exist").
			Mark(ierr.ErrNotFound)
	}
	delete(s.payments, id)
	return nil
}

func (s *InMemoryInvoiceStore) DeletePaymentsByInvoice(ctx context.Context, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, payment := range s.payments {
		if payment.InvoiceID == invoiceID {
			delete(s.payments, id)
		}
	}
	return nil
}

func (s *InMemoryInvoiceStore) GetPaymentByGatewayEventID(ctx context.Context, eventID string) (*invoice.InvoicePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, payment := range s.payments {
		if payment.GatewayEventID == eventID {
			return copyInvoicePayment(payment), nil
		}
	}
	return nil, ierr.NewError("payment not found").
		WithHint("No payment exists for this gateway event").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryInvoiceStore) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*invoice.Invoice, error) {
	invoices, err := s.InMemoryStore.List(ctx, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		if inv.CheckoutSessionID == sessionID {
			return s.GetWithLines(ctx, inv.ID)
		}
	}
	return nil, ierr.NewError("invoice not found").
		WithHint("No invoice owns this checkout session").
		Mark(ierr.ErrNotFound)
}

// Clear removes all invoices, items, payments and sequences
func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*invoice.InvoiceItem)
	s.payments = make(map[string]*invoice.InvoicePayment)
	s.sequences = make(map[string]int64)
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	if inv == nil {
		return false
	}

	// Organization scoping
	if orgID := types.GetOrganizationID(ctx); orgID != "" && inv.OrganizationID != orgID {
		return false
	}
	if inv.Status == types.StatusDeleted {
		return false
	}

	f, ok := filter.(*types.InvoiceFilter)
	if !ok || f == nil {
		return true
	}

	if len(f.InvoiceIDs) > 0 && !lo.Contains(f.InvoiceIDs, inv.ID) {
		return false
	}
	if f.ClientID != "" && inv.ClientID != f.ClientID {
		return false
	}
	if len(f.InvoiceStatus) > 0 && !lo.Contains(f.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}
	if f.TimeRangeFilter != nil {
		if f.StartTime != nil && inv.IssueDate.Before(*f.StartTime) {
			return false
		}
		if f.EndTime != nil && inv.IssueDate.After(*f.EndTime) {
			return false
		}
	}
	return true
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	return i.CreatedAt.After(j.CreatedAt)
}

func sortInvoiceItems(items []*invoice.InvoiceItem) {
	for i := 1; i < len(items); i++ {
		for k := i; k > 0 && items[k-1].SortOrder > items[k].SortOrder; k-- {
			items[k-1], items[k] = items[k], items[k-1]
		}
	}
}

func sortInvoicePayments(payments []*invoice.InvoicePayment) {
	for i := 1; i < len(payments); i++ {
		for k := i; k > 0 && payments[k-1].PaidAt.After(payments[k].PaidAt); k-- {
			payments[k-1], payments[k] = payments[k], payments[k-1]
		}
	}
}
