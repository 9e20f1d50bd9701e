package service

import (
	"testing"

	"github.com/poolstack/poolstack/internal/api/dto"
	"github.com/poolstack/poolstack/internal/domain/client"
	"github.com/poolstack/poolstack/internal/domain/inventory"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/testutil"
	"github.com/poolstack/poolstack/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service     InvoiceService
	emailSender *testutil.MockInvoiceSender
	gateway     *testutil.MockPaymentGateway
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.emailSender = testutil.NewMockInvoiceSender()
	s.gateway = testutil.NewMockPaymentGateway()

	stores := s.GetStores()
	s.service = NewInvoiceService(
		stores.InvoiceRepo,
		stores.ClientRepo,
		stores.InventoryRepo,
		s.emailSender,
		s.gateway,
		s.GetLogger(),
		s.GetDB(),
	)
}

func (s *InvoiceServiceSuite) createTestClient(name, email string) *client.Client {
	cl := &client.Client{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Name:      name,
		Email:     email,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ClientRepo.Create(s.GetContext(), cl))
	return cl
}

func (s *InvoiceServiceSuite) createTestInventoryItem(name, quantityOnHand string) *inventory.Item {
	item := &inventory.Item{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVENTORY_ITEM),
		Name:           name,
		SKU:            "SKU-" + name,
		Unit:           "each",
		QuantityOnHand: quantityOnHand,
		UnitPrice:      500,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InventoryRepo.Create(s.GetContext(), item))
	return item
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	cl := s.createTestClient("Johnson Pool", "johnson@example.com")

	testCases := []struct {
		name          string
		input         dto.CreateInvoiceRequest
		expectedError bool
		expectedTotal int64
	}{
		{
			name: "successful_creation_with_tax",
			input: dto.CreateInvoiceRequest{
				ClientID:  cl.ID,
				IssueDate: "2026-08-01",
				DueDate:   "2026-08-31",
				TaxRate:   "10",
				Items: []dto.CreateInvoiceItemRequest{
					{Description: "Weekly service", Quantity: "2", UnitPrice: 500},
				},
			},
			expectedTotal: 1100,
		},
		{
			name: "unknown_client",
			input: dto.CreateInvoiceRequest{
				ClientID:  "cli_missing",
				IssueDate: "2026-08-01",
				DueDate:   "2026-08-31",
			},
			expectedError: true,
		},
		{
			name: "missing_client_id",
			input: dto.CreateInvoiceRequest{
				IssueDate: "2026-08-01",
				DueDate:   "2026-08-31",
				TaxRate:   "10",
			},
			expectedError: true,
		},
		{
			name: "missing_issue_date",
			input: dto.CreateInvoiceRequest{
				ClientID: cl.ID,
				DueDate:  "2026-08-31",
			},
			expectedError: true,
		},
		{
			name: "missing_due_date",
			input: dto.CreateInvoiceRequest{
				ClientID:  cl.ID,
				IssueDate: "2026-08-01",
			},
			expectedError: true,
		},
		{
			name: "malformed_issue_date",
			input: dto.CreateInvoiceRequest{
				ClientID:  cl.ID,
				IssueDate: "08/01/2026",
				DueDate:   "2026-08-31",
			},
			expectedError: true,
		},
		{
			name: "tax_rate_out_of_range",
			input: dto.CreateInvoiceRequest{
				ClientID:  cl.ID,
				IssueDate: "2026-08-01",
				DueDate:   "2026-08-31",
				TaxRate:   "120",
			},
			expectedError: true,
		},
		{
			name: "negative_quantity",
			input: dto.CreateInvoiceRequest{
				ClientID:  cl.ID,
				IssueDate: "2026-08-01",
				DueDate:   "2026-08-31",
				Items: []dto.CreateInvoiceItemRequest{
					{Description: "Bad line", Quantity: "-1", UnitPrice: 500},
				},
			},
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.service.CreateInvoice(s.GetContext(), tc.input)
			if tc.expectedError {
				s.Error(err)
				return
			}
			s.NoError(err)
			s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
			s.Equal(tc.expectedTotal, resp.Total)
			s.Equal(tc.expectedTotal, resp.AmountDue)
			s.Zero(resp.AmountPaid)
			s.Nil(resp.SentAt)
			s.Nil(resp.PaidAt)
		})
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoiceComputesTotals() {
	cl := s.createTestClient("Miller Pool", "miller@example.com")

	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:        cl.ID,
		IssueDate:       "2026-08-01",
		DueDate:         "2026-08-31",
		TaxRate:         "8.25",
		DiscountPercent: "10",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Equipment install", Quantity: "1", UnitPrice: 10000},
		},
	})
	s.NoError(err)
	s.Equal(int64(10000), resp.Subtotal)
	s.Equal(int64(1000), resp.DiscountAmount)
	// tax applies to the discounted base: 9000 * 8.25% = 742.5, rounded half up
	s.Equal(int64(743), resp.TaxAmount)
	s.Equal(int64(9743), resp.Total)
}

func (s *InvoiceServiceSuite) TestCreateInvoicePercentDiscountTakesPrecedence() {
	cl := s.createTestClient("Garcia Pool", "garcia@example.com")

	// When both discounts are given the percent wins and the flat value
	// is ignored
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:        cl.ID,
		IssueDate:       "2026-08-01",
		DueDate:         "2026-08-31",
		DiscountPercent: "50",
		DiscountFlat:    lo.ToPtr(int64(2500)),
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Pump replacement", Quantity: "1", UnitPrice: 10000},
		},
	})
	s.NoError(err)
	s.Equal(int64(5000), resp.DiscountAmount)
	s.Equal(int64(5000), resp.Total)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceFlatDiscountWithoutPercent() {
	cl := s.createTestClient("Lopez Pool", "lopez@example.com")

	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:     cl.ID,
		IssueDate:    "2026-08-01",
		DueDate:      "2026-08-31",
		DiscountFlat: lo.ToPtr(int64(2500)),
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Pump replacement", Quantity: "1", UnitPrice: 10000},
		},
	})
	s.NoError(err)
	s.Equal(int64(2500), resp.DiscountAmount)
	s.Equal(int64(7500), resp.Total)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceFlatDiscountClampedToSubtotal() {
	cl := s.createTestClient("Nguyen Pool", "nguyen@example.com")

	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:     cl.ID,
		IssueDate:    "2026-08-01",
		DueDate:      "2026-08-31",
		DiscountFlat: lo.ToPtr(int64(99999)),
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Filter clean", Quantity: "1", UnitPrice: 4000},
		},
	})
	s.NoError(err)
	s.Equal(int64(4000), resp.DiscountAmount)
	s.Zero(resp.Total)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceAssignsSequentialNumbers() {
	cl := s.createTestClient("Brown Pool", "brown@example.com")

	first, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)
	s.Equal("INV-00001", first.InvoiceNumber)

	second, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)
	s.Equal("INV-00002", second.InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceForeignClientForbidden() {
	foreign := &client.Client{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Name:      "Other Org Client",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	foreign.OrganizationID = "org_other"
	s.NoError(s.GetStores().ClientRepo.Create(s.GetContext(), foreign))

	_, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: foreign.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *InvoiceServiceSuite) TestGetInvoiceCrossOrganizationForbidden() {
	cl := s.createTestClient("Smith Pool", "smith@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	foreignCtx := types.SetOrganizationID(s.GetContext(), "org_other")
	_, err = s.service.GetInvoice(foreignCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceCrossOrganizationForbidden() {
	cl := s.createTestClient("Davis Pool", "davis@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Service call", UnitPrice: 5000},
		},
	})
	s.NoError(err)

	foreignCtx := types.SetOrganizationID(s.GetContext(), "org_other")
	_, err = s.service.UpdateInvoice(foreignCtx, resp.ID, dto.UpdateInvoiceRequest{
		Notes: lo.ToPtr("hijacked"),
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	// Nothing changed
	got, err := s.service.GetInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Empty(got.Notes)
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceReplacesItems() {
	cl := s.createTestClient("Wilson Pool", "wilson@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		TaxRate:   "10",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Weekly service", Quantity: "2", UnitPrice: 500},
		},
	})
	s.NoError(err)
	s.Equal(int64(1100), resp.Total)

	updated, err := s.service.UpdateInvoice(s.GetContext(), resp.ID, dto.UpdateInvoiceRequest{
		Items: &[]dto.CreateInvoiceItemRequest{
			{Description: "Heater repair", Quantity: "1", UnitPrice: 20000},
			{Description: "Chemicals", Quantity: "3", UnitPrice: 1500},
		},
	})
	s.NoError(err)
	s.Len(updated.Items, 2)
	s.Equal(int64(24500), updated.Subtotal)
	s.Equal(int64(26950), updated.Total)
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceClearsDueDate() {
	cl := s.createTestClient("Taylor Pool", "taylor@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-09-15",
	})
	s.NoError(err)
	s.NotNil(resp.DueDate)

	updated, err := s.service.UpdateInvoice(s.GetContext(), resp.ID, dto.UpdateInvoiceRequest{
		DueDate: lo.ToPtr(""),
	})
	s.NoError(err)
	s.Nil(updated.DueDate)
}

func (s *InvoiceServiceSuite) TestAddAndRemoveInvoiceItem() {
	cl := s.createTestClient("Moore Pool", "moore@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)
	s.Zero(resp.Total)

	withItem, err := s.service.AddInvoiceItem(s.GetContext(), resp.ID, dto.CreateInvoiceItemRequest{
		Description: "Acid wash",
		Quantity:    "1",
		UnitPrice:   7500,
	})
	s.NoError(err)
	s.Len(withItem.Items, 1)
	s.Equal(int64(7500), withItem.Total)

	removed, err := s.service.RemoveInvoiceItem(s.GetContext(), resp.ID, withItem.Items[0].ID)
	s.NoError(err)
	s.Empty(removed.Items)
	s.Zero(removed.Total)

	_, err = s.service.RemoveInvoiceItem(s.GetContext(), resp.ID, "item_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestSendInvoice() {
	cl := s.createTestClient("Clark Pool", "clark@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Weekly service", UnitPrice: 5000},
		},
	})
	s.NoError(err)

	sent, err := s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.InvoiceStatus)
	s.NotNil(sent.SentAt)
	s.Empty(sent.Warnings)
	s.Len(s.emailSender.Sent, 1)
	s.Equal("clark@example.com", s.emailSender.Sent[0].ToAddress)
	s.Equal(sent.InvoiceNumber, s.emailSender.Sent[0].InvoiceNumber)

	// Resending keeps the original SentAt
	firstSentAt := *sent.SentAt
	again, err := s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, again.InvoiceStatus)
	s.Equal(firstSentAt, *again.SentAt)
	s.Len(s.emailSender.Sent, 2)
}

func (s *InvoiceServiceSuite) TestSendInvoiceWarnsWhenEmailDisabled() {
	s.emailSender.Enabled = false

	cl := s.createTestClient("Lewis Pool", "lewis@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	sent, err := s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.InvoiceStatus)
	s.Len(sent.Warnings, 1)
	s.Empty(s.emailSender.Sent)
}

func (s *InvoiceServiceSuite) TestSendInvoiceWarnsWhenClientHasNoEmail() {
	cl := s.createTestClient("Walker Pool", "")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	sent, err := s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.InvoiceStatus)
	s.Len(sent.Warnings, 1)
	s.Empty(s.emailSender.Sent)
}

func (s *InvoiceServiceSuite) TestSendInvoiceWarnsOnDeliveryFailure() {
	s.emailSender.FailSend = true

	cl := s.createTestClient("Hall Pool", "hall@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	// The transition commits even though delivery fails
	sent, err := s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.InvoiceStatus)
	s.NotNil(sent.SentAt)
	s.Len(sent.Warnings, 1)

	got, err := s.service.GetInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, got.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestSendInvoiceDeductsInventoryOnce() {
	stock := s.createTestInventoryItem("chlorine", "5")
	cl := s.createTestClient("Young Pool", "young@example.com")

	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Chlorine tablets", Quantity: "2", UnitPrice: 500, InventoryItemID: &stock.ID},
		},
	})
	s.NoError(err)

	sent, err := s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.NotNil(sent.InventoryDeductedAt)

	after, err := s.GetStores().InventoryRepo.Get(s.GetContext(), stock.ID)
	s.NoError(err)
	s.Equal("3", after.QuantityOnHand)

	adjustments, err := s.GetStores().InventoryRepo.ListAdjustments(s.GetContext(), stock.ID)
	s.NoError(err)
	s.Len(adjustments, 1)
	s.Equal(types.InventoryAdjustmentReasonInvoiceSent, adjustments[0].Reason)
	s.Equal("-2", adjustments[0].Delta)
	s.NotNil(adjustments[0].InvoiceID)
	s.Equal(resp.ID, *adjustments[0].InvoiceID)

	// A second send must not deduct again
	_, err = s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)

	after, err = s.GetStores().InventoryRepo.Get(s.GetContext(), stock.ID)
	s.NoError(err)
	s.Equal("3", after.QuantityOnHand)
}

func (s *InvoiceServiceSuite) TestSendInvoiceFloorsStockAtZero() {
	stock := s.createTestInventoryItem("algaecide", "1")
	cl := s.createTestClient("King Pool", "king@example.com")

	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Algaecide", Quantity: "2.5", UnitPrice: 1200, InventoryItemID: &stock.ID},
		},
	})
	s.NoError(err)

	_, err = s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)

	after, err := s.GetStores().InventoryRepo.Get(s.GetContext(), stock.ID)
	s.NoError(err)
	s.Equal("0", after.QuantityOnHand)
}

func (s *InvoiceServiceSuite) TestSendInvoiceSkipsDanglingInventoryReference() {
	cl := s.createTestClient("Scott Pool", "scott@example.com")
	missingID := "stk_missing"

	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Ghost part", Quantity: "1", UnitPrice: 100, InventoryItemID: &missingID},
		},
	})
	s.NoError(err)

	sent, err := s.service.SendInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.InvoiceStatus)
	s.NotNil(sent.InventoryDeductedAt)
}

func (s *InvoiceServiceSuite) TestDeleteInvoice() {
	cl := s.createTestClient("Green Pool", "green@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Weekly service", UnitPrice: 5000},
		},
	})
	s.NoError(err)

	s.NoError(s.service.DeleteInvoice(s.GetContext(), resp.ID))

	_, err = s.service.GetInvoice(s.GetContext(), resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestDeleteInvoiceCrossOrganizationForbidden() {
	cl := s.createTestClient("Adams Pool", "adams@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	foreignCtx := types.SetOrganizationID(s.GetContext(), "org_other")
	err = s.service.DeleteInvoice(foreignCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	_, err = s.service.GetInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
}

func (s *InvoiceServiceSuite) TestListInvoices() {
	cl := s.createTestClient("Baker Pool", "baker@example.com")
	other := s.createTestClient("Carter Pool", "carter@example.com")

	for i := 0; i < 3; i++ {
		_, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
		s.NoError(err)
	}
	_, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: other.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	all, err := s.service.ListInvoices(s.GetContext(), types.NewInvoiceFilter())
	s.NoError(err)
	s.Len(all.Items, 4)
	s.Equal(4, all.Pagination.Total)

	filtered, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		ClientID:    cl.ID,
	})
	s.NoError(err)
	s.Len(filtered.Items, 3)

	drafts, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		QueryFilter:   types.NewDefaultQueryFilter(),
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusPaid},
	})
	s.NoError(err)
	s.Empty(drafts.Items)
}

func (s *InvoiceServiceSuite) TestListInvoicesScopedToOrganization() {
	cl := s.createTestClient("Evans Pool", "evans@example.com")
	_, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	foreignCtx := types.SetOrganizationID(s.GetContext(), "org_other")
	resp, err := s.service.ListInvoices(foreignCtx, types.NewInvoiceFilter())
	s.NoError(err)
	s.Empty(resp.Items)
	s.Zero(resp.Pagination.Total)
}

func (s *InvoiceServiceSuite) TestCreatePaymentLink() {
	cl := s.createTestClient("Foster Pool", "foster@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientID:  cl.ID,
		IssueDate: "2026-08-01",
		DueDate:   "2026-08-31",
		Items: []dto.CreateInvoiceItemRequest{
			{Description: "Weekly service", UnitPrice: 5000},
		},
	})
	s.NoError(err)

	link, err := s.service.CreatePaymentLink(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(resp.ID, link.InvoiceID)
	s.NotEmpty(link.SessionID)
	s.NotEmpty(link.URL)

	got, err := s.service.GetInvoice(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(link.SessionID, got.CheckoutSessionID)

	s.Len(s.gateway.Sessions, 1)
	s.Equal(int64(5000), s.gateway.Sessions[0].AmountDue)
	s.Equal(types.DefaultOrganizationID, s.gateway.Sessions[0].OrganizationID)
}

func (s *InvoiceServiceSuite) TestCreatePaymentLinkRequiresBalance() {
	cl := s.createTestClient("Hayes Pool", "hayes@example.com")
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{ClientID: cl.ID, IssueDate: "2026-08-01", DueDate: "2026-08-31"})
	s.NoError(err)

	_, err = s.service.CreatePaymentLink(s.GetContext(), resp.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.gateway.Sessions)
}
