package service

import (
	"testing"
	"time"

	"github.com/poolstack/poolstack/internal/api/dto"
	"github.com/poolstack/poolstack/internal/domain/client"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/gateway/stripe"
	"github.com/poolstack/poolstack/internal/testutil"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service        PaymentService
	invoiceService InvoiceService
	emailSender    *testutil.MockInvoiceSender
	gateway        *testutil.MockPaymentGateway
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.emailSender = testutil.NewMockInvoiceSender()
	s.gateway = testutil.NewMockPaymentGateway()

	stores := s.GetStores()
	s.service = NewPaymentService(
		stores.InvoiceRepo,
		stores.InventoryRepo,
		s.gateway,
		s.GetLogger(),
		s.GetDB(),
	)
	s.invoiceService = NewInvoiceService(
		stores.InvoiceRepo,
		stores.ClientRepo,
		stores.InventoryRepo,
		s.emailSender,
		s.gateway,
		s.GetLogger(),
		s.GetDB(),
	)
}

// createSentInvoice creates an invoice with a single 1100 total line and
// transitions it to sent
func (s *PaymentServiceSuite) createSentInvoice() *dto.InvoiceResponse {
	cl := &client.Client{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Name:      "Johnson Pool",
		Email:     "johnson@example.com",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ClientRepo.Create(s.GetContext(), cl))

	created, err := s.invoiceService.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		TaxRate:   "10",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Weekly service", Quantity: "2", UnitPrice: 500},
		},
	})
	s.NoError(err)
	s.Equal(int64(1100), created.Total)

	sent, err := s.invoiceService.SendInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.InvoiceStatus)
	return sent
}

func (s *PaymentServiceSuite) TestPaymentLifecycle() {
	inv := s.createSentInvoice()

	// Partial payment
	partial, err := s.service.ApplyPayment(s.GetContext(), inv.ID, dto.RecordPaymentRequest{
		Amount:        600,
		PaymentMethod: types.PaymentMethodCheck,
		Reference:     "check 1042",
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartial, partial.InvoiceStatus)
	s.Equal(int64(600), partial.AmountPaid)
	s.Equal(int64(500), partial.AmountDue)
	s.Nil(partial.PaidAt)

	// Payment completing the total
	paid, err := s.service.ApplyPayment(s.GetContext(), inv.ID, dto.RecordPaymentRequest{
		Amount: 500,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.InvoiceStatus)
	s.Equal(int64(1100), paid.AmountPaid)
	s.Zero(paid.AmountDue)
	s.NotNil(paid.PaidAt)

	// Removing a payment drops the invoice back to partial and clears PaidAt
	var secondPaymentID string
	for _, p := range paid.Payments {
		if p.Amount == 500 {
			secondPaymentID = p.ID
		}
	}
	s.NotEmpty(secondPaymentID)

	back, err := s.service.RemovePayment(s.GetContext(), inv.ID, secondPaymentID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartial, back.InvoiceStatus)
	s.Equal(int64(600), back.AmountPaid)
	s.Nil(back.PaidAt)

	// Removing the last payment returns to sent, never draft
	sent, err := s.service.RemovePayment(s.GetContext(), inv.ID, back.Payments[0].ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.InvoiceStatus)
	s.Zero(sent.AmountPaid)
	s.Equal(int64(1100), sent.AmountDue)
}

func (s *PaymentServiceSuite) TestOverpaymentStillPaid() {
	inv := s.createSentInvoice()

	paid, err := s.service.ApplyPayment(s.GetContext(), inv.ID, dto.RecordPaymentRequest{
		Amount: 2000,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.InvoiceStatus)
	s.Equal(int64(2000), paid.AmountPaid)
	s.Zero(paid.AmountDue)
}

func (s *PaymentServiceSuite) TestApplyPaymentOnDraftLeavesDraft() {
	cl := &client.Client{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Name:      "Miller Pool",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ClientRepo.Create(s.GetContext(), cl))

	created, err := s.invoiceService.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Weekly service", UnitPrice: 5000},
		},
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, created.InvoiceStatus)

	partial, err := s.service.ApplyPayment(s.GetContext(), created.ID, dto.RecordPaymentRequest{
		Amount: 1000,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPartial, partial.InvoiceStatus)
}

func (s *PaymentServiceSuite) TestApplyPaymentValidation() {
	inv := s.createSentInvoice()

	testCases := []struct {
		name  string
		input dto.RecordPaymentRequest
	}{
		{
			name:  "zero_amount",
			input: dto.RecordPaymentRequest{Amount: 0},
		},
		{
			name:  "negative_amount",
			input: dto.RecordPaymentRequest{Amount: -100},
		},
		{
			name: "gateway_method_rejected",
			input: dto.RecordPaymentRequest{
				Amount:        100,
				PaymentMethod: types.PaymentMethodGateway,
			},
		},
		{
			name: "future_paid_at",
			input: dto.RecordPaymentRequest{
				Amount: 100,
				PaidAt: func() *time.Time {
					t := time.Now().UTC().Add(48 * time.Hour)
					return &t
				}(),
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.ApplyPayment(s.GetContext(), inv.ID, tc.input)
			s.Error(err)
		})
	}

	got, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Empty(got.Payments)
}

func (s *PaymentServiceSuite) TestApplyPaymentCrossOrganizationForbidden() {
	inv := s.createSentInvoice()

	foreignCtx := types.SetOrganizationID(s.GetContext(), "org_other")
	_, err := s.service.ApplyPayment(foreignCtx, inv.ID, dto.RecordPaymentRequest{Amount: 100})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	got, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Empty(got.Payments)
}

func (s *PaymentServiceSuite) TestRemovePaymentNotFound() {
	inv := s.createSentInvoice()

	_, err := s.service.RemovePayment(s.GetContext(), inv.ID, "pay_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestManualPaymentRecordsUser() {
	inv := s.createSentInvoice()

	resp, err := s.service.ApplyPayment(s.GetContext(), inv.ID, dto.RecordPaymentRequest{Amount: 100})
	s.NoError(err)
	s.Len(resp.Payments, 1)
	s.NotNil(resp.Payments[0].RecordedBy)
	s.Equal(types.DefaultUserID, *resp.Payments[0].RecordedBy)
	s.Equal(types.PaymentMethodManual, resp.Payments[0].PaymentMethod)
}

func (s *PaymentServiceSuite) TestReconcileWebhookCompletesCheckout() {
	inv := s.createSentInvoice()

	link, err := s.invoiceService.CreatePaymentLink(s.GetContext(), inv.ID)
	s.NoError(err)

	payload := `{"type":"checkout.session.completed","id":"evt_1"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID:           "evt_1",
		Type:              stripe.PaymentEventCheckoutCompleted,
		CheckoutSessionID: link.SessionID,
		InvoiceID:         inv.ID,
		OrganizationID:    types.DefaultOrganizationID,
		AmountTotal:       1100,
	})

	resp, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.True(resp.Received)
	s.Equal("evt_1", resp.EventID)
	s.Equal(inv.ID, resp.InvoiceID)
	s.False(resp.Duplicate)

	got, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, got.InvoiceStatus)
	s.Len(got.Payments, 1)
	s.Equal(types.PaymentMethodGateway, got.Payments[0].PaymentMethod)
	s.Nil(got.Payments[0].RecordedBy)
	s.Equal("evt_1", got.Payments[0].GatewayEventID)
}

func (s *PaymentServiceSuite) TestReconcileWebhookIdempotent() {
	inv := s.createSentInvoice()

	payload := `{"type":"checkout.session.completed","id":"evt_2"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID:        "evt_2",
		Type:           stripe.PaymentEventCheckoutCompleted,
		InvoiceID:      inv.ID,
		OrganizationID: types.DefaultOrganizationID,
		AmountTotal:    1100,
	})

	first, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.False(first.Duplicate)

	second, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.True(second.Duplicate)
	s.Equal(inv.ID, second.InvoiceID)

	got, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(got.Payments, 1)
	s.Equal(int64(1100), got.AmountPaid)
}

func (s *PaymentServiceSuite) TestReconcileWebhookResolvesByCheckoutSession() {
	inv := s.createSentInvoice()

	link, err := s.invoiceService.CreatePaymentLink(s.GetContext(), inv.ID)
	s.NoError(err)

	// Event without invoice metadata still resolves through the session
	payload := `{"type":"checkout.session.completed","id":"evt_3"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID:           "evt_3",
		Type:              stripe.PaymentEventCheckoutCompleted,
		CheckoutSessionID: link.SessionID,
		OrganizationID:    types.DefaultOrganizationID,
		AmountTotal:       1100,
	})

	resp, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.Equal(inv.ID, resp.InvoiceID)
}

func (s *PaymentServiceSuite) TestReconcileWebhookOrganizationMismatch() {
	inv := s.createSentInvoice()

	payload := `{"type":"checkout.session.completed","id":"evt_4"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID:        "evt_4",
		Type:           stripe.PaymentEventCheckoutCompleted,
		InvoiceID:      inv.ID,
		OrganizationID: "org_other",
		AmountTotal:    1100,
	})

	_, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.Error(err)

	got, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Empty(got.Payments)
}

func (s *PaymentServiceSuite) TestReconcileWebhookExpiredSession() {
	payload := `{"type":"checkout.session.expired","id":"evt_5"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID: "evt_5",
		Type:    stripe.PaymentEventCheckoutExpired,
	})

	resp, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.True(resp.Received)
	s.Empty(resp.InvoiceID)
}

func (s *PaymentServiceSuite) TestReconcileWebhookIgnoredEvent() {
	payload := `{"type":"invoice.created","id":"evt_6"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID: "evt_6",
		Type:    stripe.PaymentEventIgnored,
	})

	resp, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.True(resp.Received)
}

func (s *PaymentServiceSuite) TestReconcileWebhookInvalidSignature() {
	_, err := s.service.ReconcileWebhook(s.GetContext(), []byte("garbage"), "bad-sig")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PaymentServiceSuite) TestReconcileWebhookUnknownInvoiceAcknowledged() {
	payload := `{"type":"checkout.session.completed","id":"evt_7"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID:        "evt_7",
		Type:           stripe.PaymentEventCheckoutCompleted,
		InvoiceID:      "inv_missing",
		OrganizationID: types.DefaultOrganizationID,
		AmountTotal:    500,
	})

	// Events for unknown or deleted invoices are acknowledged so the
	// gateway stops redelivering them
	resp, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.True(resp.Received)
	s.Equal("evt_7", resp.EventID)
	s.Empty(resp.InvoiceID)
}

func (s *PaymentServiceSuite) TestReconcileWebhookNoInvoiceReferenceAcknowledged() {
	payload := `{"type":"checkout.session.completed","id":"evt_8"}`
	s.gateway.RegisterEvent(payload, &stripe.PaymentEvent{
		EventID:        "evt_8",
		Type:           stripe.PaymentEventCheckoutCompleted,
		OrganizationID: types.DefaultOrganizationID,
		AmountTotal:    500,
	})

	resp, err := s.service.ReconcileWebhook(s.GetContext(), []byte(payload), "sig")
	s.NoError(err)
	s.True(resp.Received)
	s.Empty(resp.InvoiceID)
}
