package testutil

import (
	"context"
	"sync"

	"github.com/poolstack/poolstack/internal/email"
	ierr "github.com/poolstack/poolstack/internal/errors"
)

var _ email.InvoiceSender = (*MockInvoiceSender)(nil)

// MockInvoiceSender is a fake invoice email sender that records every
// delivery request
type MockInvoiceSender struct {
	mu sync.Mutex

	Enabled  bool
	FailSend bool
	Sent     []*email.InvoiceEmailRequest
}

// NewMockInvoiceSender creates an enabled mock sender
func NewMockInvoiceSender() *MockInvoiceSender {
	return &MockInvoiceSender{Enabled: true}
}

func (m *MockInvoiceSender) IsEnabled() bool {
	return m.Enabled
}

func (m *MockInvoiceSender) SendInvoice(ctx context.Context, req *email.InvoiceEmailRequest) (*email.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled {
		return nil, ierr.NewError("email delivery is disabled").
			WithHint("Email delivery is not configured").
			Mark(ierr.ErrInvalidOperation)
	}
	if m.FailSend {
		return nil, ierr.NewError("email provider unavailable").
			WithHint("Email could not be delivered").
			Mark(ierr.ErrExternalService)
	}

	m.Sent = append(m.Sent, req)
	return &email.SendResult{MessageID: "msg_test"}, nil
}
