package testutil

import (
	"context"
	"fmt"
	"sync"

	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/gateway/stripe"
)

var _ stripe.Gateway = (*MockPaymentGateway)(nil)

// MockPaymentGateway is a fake payment gateway. Checkout sessions get
// deterministic IDs and webhook payloads are served from a canned event
// set keyed by the raw payload string.
type MockPaymentGateway struct {
	mu sync.Mutex

	Enabled      bool
	FailCheckout bool
	Sessions     []*stripe.CheckoutSessionRequest
	Events       map[string]*stripe.PaymentEvent
}

// NewMockPaymentGateway creates an enabled mock gateway
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{
		Enabled: true,
		Events:  make(map[string]*stripe.PaymentEvent),
	}
}

func (m *MockPaymentGateway) IsEnabled() bool {
	return m.Enabled
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, req *stripe.CheckoutSessionRequest) (*stripe.CheckoutSessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled {
		return nil, ierr.NewError("payment gateway is disabled").
			WithHint("Payment links are not configured").
			Mark(ierr.ErrInvalidOperation)
	}
	if m.FailCheckout {
		return nil, ierr.NewError("gateway unavailable").
			WithHint("Unable to create payment link").
			Mark(ierr.ErrExternalService)
	}

	m.Sessions = append(m.Sessions, req)
	sessionID := fmt.Sprintf("cs_test_%d", len(m.Sessions))
	return &stripe.CheckoutSessionResult{
		SessionID: sessionID,
		URL:       "https://checkout.test/" + sessionID,
	}, nil
}

// RegisterEvent maps a raw webhook payload to the event ParseWebhookEvent
// returns for it
func (m *MockPaymentGateway) RegisterEvent(payload string, event *stripe.PaymentEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events[payload] = event
}

func (m *MockPaymentGateway) ParseWebhookEvent(payload []byte, signature string) (*stripe.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.Events[string(payload)]
	if !ok {
		return nil, ierr.NewError("unrecognized webhook payload").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}
	return event, nil
}
