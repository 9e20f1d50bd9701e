package service

import (
	"context"
	"time"

	"github.com/poolstack/poolstack/internal/api/dto"
	"github.com/poolstack/poolstack/internal/domain/client"
	"github.com/poolstack/poolstack/internal/domain/inventory"
	"github.com/poolstack/poolstack/internal/domain/invoice"
	"github.com/poolstack/poolstack/internal/email"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/gateway/stripe"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	"github.com/poolstack/poolstack/internal/types"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	UpdateInvoice(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, id string) error
	AddInvoiceItem(ctx context.Context, invoiceID string, req dto.CreateInvoiceItemRequest) (*dto.InvoiceResponse, error)
	RemoveInvoiceItem(ctx context.Context, invoiceID, itemID string) (*dto.InvoiceResponse, error)
	SendInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	CreatePaymentLink(ctx context.Context, id string) (*dto.PaymentLinkResponse, error)
}

type invoiceService struct {
	db            postgres.IClient
	logger        *logger.Logger
	invoiceRepo   invoice.Repository
	clientRepo    client.Repository
	inventoryRepo inventory.Repository
	emailSender   email.InvoiceSender
	gateway       stripe.Gateway
}

func NewInvoiceService(
	invoiceRepo invoice.Repository,
	clientRepo client.Repository,
	inventoryRepo inventory.Repository,
	emailSender email.InvoiceSender,
	gateway stripe.Gateway,
	logger *logger.Logger,
	db postgres.IClient,
) InvoiceService {
	return &invoiceService{
		db:            db,
		logger:        logger,
		invoiceRepo:   invoiceRepo,
		clientRepo:    clientRepo,
		inventoryRepo: inventoryRepo,
		emailSender:   emailSender,
		gateway:       gateway,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := types.ValidateOrganizationContext(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cl, err := s.clientRepo.Get(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnership(ctx, cl.OrganizationID, "client"); err != nil {
		return nil, err
	}

	inv, err := req.ToInvoice(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		seq, err := s.invoiceRepo.NextInvoiceNumber(txCtx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = types.FormatInvoiceNumber(seq)

		if err := s.invoiceRepo.Create(txCtx, inv); err != nil {
			return err
		}

		for i := range req.Items {
			item := req.Items[i].ToInvoiceItem(txCtx, inv)
			if item.SortOrder == 0 {
				item.SortOrder = i
			}
			if err := s.invoiceRepo.CreateItem(txCtx, item); err != nil {
				return err
			}
			inv.Items = append(inv.Items, item)
		}

		inv.Recompute(time.Now().UTC())
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"client_id", inv.ClientID,
		"total", inv.Total,
	)

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if err := types.ValidateOrganizationContext(ctx); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = dto.NewInvoiceResponse(inv)
	}

	return &dto.ListInvoicesResponse{
		Items: items,
		Pagination: types.PaginationResponse{
			Total:  total,
			Limit:  filter.GetLimit(),
			Offset: filter.GetOffset(),
		},
	}, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientID != nil {
		cl, err := s.clientRepo.Get(ctx, *req.ClientID)
		if err != nil {
			return nil, err
		}
		if err := ensureOwnership(ctx, cl.OrganizationID, "client"); err != nil {
			return nil, err
		}
	}

	priorStatus := inv.InvoiceStatus

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.applyPatch(inv, req); err != nil {
			return err
		}

		if req.Items != nil {
			if err := s.invoiceRepo.DeleteItemsByInvoice(txCtx, inv.ID); err != nil {
				return err
			}
			inv.Items = nil
			for i := range *req.Items {
				item := (*req.Items)[i].ToInvoiceItem(txCtx, inv)
				if item.SortOrder == 0 {
					item.SortOrder = i
				}
				if err := s.invoiceRepo.CreateItem(txCtx, item); err != nil {
					return err
				}
				inv.Items = append(inv.Items, item)
			}
		}

		inv.Recompute(time.Now().UTC())

		if err := s.deductInventoryOnce(txCtx, inv, priorStatus); err != nil {
			return err
		}

		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = types.GetUserID(txCtx)
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	inv, err := s.loadInvoice(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.DeleteItemsByInvoice(txCtx, inv.ID); err != nil {
			return err
		}
		if err := s.invoiceRepo.DeletePaymentsByInvoice(txCtx, inv.ID); err != nil {
			return err
		}
		return s.invoiceRepo.Delete(txCtx, inv.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Infow("deleted invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
	)
	return nil
}

func (s *invoiceService) AddInvoiceItem(ctx context.Context, invoiceID string, req dto.CreateInvoiceItemRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		item := req.ToInvoiceItem(txCtx, inv)
		if item.SortOrder == 0 {
			item.SortOrder = len(inv.Items)
		}
		if err := s.invoiceRepo.CreateItem(txCtx, item); err != nil {
			return err
		}
		inv.Items = append(inv.Items, item)

		inv.Recompute(time.Now().UTC())
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) RemoveInvoiceItem(ctx context.Context, invoiceID, itemID string) (*dto.InvoiceResponse, error) {
	inv, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := make([]*invoice.InvoiceItem, 0, len(inv.Items))
	for _, item := range inv.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		remaining = append(remaining, item)
	}
	if !found {
		return nil, ierr.NewError("invoice item not found").
			WithHint("The line item does not belong to this invoice").
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
				"item_id":    itemID,
			}).
			Mark(ierr.ErrNotFound)
	}

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.DeleteItem(txCtx, itemID); err != nil {
			return err
		}
		inv.Items = remaining

		inv.Recompute(time.Now().UTC())
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

// SendInvoice transitions the invoice out of draft and attempts email
// delivery. The transition always commits; delivery problems surface as
// warnings on the response, never as errors.
func (s *invoiceService) SendInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	cl, err := s.clientRepo.Get(ctx, inv.ClientID)
	if err != nil {
		return nil, err
	}

	priorStatus := inv.InvoiceStatus
	now := time.Now().UTC()

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		if inv.SentAt == nil {
			inv.SentAt = &now
		}
		inv.Recompute(now)

		if err := s.deductInventoryOnce(txCtx, inv, priorStatus); err != nil {
			return err
		}

		inv.UpdatedAt = now
		inv.UpdatedBy = types.GetUserID(txCtx)
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewInvoiceResponse(inv)

	// Delivery happens after the transition is committed so a gateway
	// outage can never roll back the financial state change.
	switch {
	case !s.emailSender.IsEnabled():
		resp.WithWarnings("email delivery is not configured; invoice marked as sent without notification")
	case cl.Email == "":
		resp.WithWarnings("client has no billing email; invoice marked as sent without notification")
	default:
		if _, err := s.emailSender.SendInvoice(ctx, s.buildInvoiceEmail(inv, cl)); err != nil {
			s.logger.Warnw("invoice email delivery failed",
				"invoice_id", inv.ID,
				"client_id", cl.ID,
				"error", err,
			)
			resp.WithWarnings("invoice email could not be delivered: " + err.Error())
		}
	}

	return resp, nil
}

func (s *invoiceService) CreatePaymentLink(ctx context.Context, id string) (*dto.PaymentLinkResponse, error) {
	inv, err := s.loadInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.AmountDue <= 0 {
		return nil, ierr.NewError("invoice has no outstanding balance").
			WithHint("Payment links require a positive amount due").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"amount_due": inv.AmountDue,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	cl, err := s.clientRepo.Get(ctx, inv.ClientID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &stripe.CheckoutSessionRequest{
		InvoiceID:      inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		OrganizationID: inv.OrganizationID,
		ClientName:     cl.Name,
		AmountDue:      inv.AmountDue,
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		inv.CheckoutSessionID = session.SessionID
		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = types.GetUserID(txCtx)
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	return &dto.PaymentLinkResponse{
		InvoiceID: inv.ID,
		SessionID: session.SessionID,
		URL:       session.URL,
	}, nil
}

// loadInvoice fetches an invoice with its lines and enforces
// organization ownership before anything else can happen to it
func (s *invoiceService) loadInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	if err := types.ValidateOrganizationContext(ctx); err != nil {
		return nil, err
	}

	inv, err := s.invoiceRepo.GetWithLines(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnership(ctx, inv.OrganizationID, "invoice"); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) applyPatch(inv *invoice.Invoice, req dto.UpdateInvoiceRequest) error {
	if req.ClientID != nil {
		inv.ClientID = *req.ClientID
	}
	if req.IssueDate != nil {
		parsed, err := types.ParseCalendarDate(*req.IssueDate)
		if err != nil {
			return err
		}
		inv.IssueDate = parsed
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			inv.DueDate = nil
		} else {
			parsed, err := types.ParseCalendarDate(*req.DueDate)
			if err != nil {
				return err
			}
			inv.DueDate = &parsed
		}
	}
	if req.TaxRate != nil {
		inv.TaxRate = *req.TaxRate
	}
	if req.DiscountPercent != nil {
		inv.DiscountPercent = *req.DiscountPercent
	}
	if req.DiscountFlat != nil {
		inv.DiscountFlat = req.DiscountFlat
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}
	return nil
}

func (s *invoiceService) buildInvoiceEmail(inv *invoice.Invoice, cl *client.Client) *email.InvoiceEmailRequest {
	lines := make([]email.InvoiceEmailLine, len(inv.Items))
	for i, item := range inv.Items {
		lines[i] = email.InvoiceEmailLine{
			Description: item.Description,
			Quantity:    item.Quantity,
			Amount:      email.FormatAmount(item.Amount),
		}
	}

	req := &email.InvoiceEmailRequest{
		ToAddress:     cl.Email,
		ClientName:    cl.Name,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     types.FormatCalendarDate(inv.IssueDate),
		Lines:         lines,
		Subtotal:      email.FormatAmount(inv.Subtotal),
		Total:         email.FormatAmount(inv.Total),
		AmountDue:     email.FormatAmount(inv.AmountDue),
		Notes:         inv.Notes,
	}
	if inv.DueDate != nil {
		req.DueDate = types.FormatCalendarDate(*inv.DueDate)
	}
	if inv.DiscountAmount > 0 {
		req.DiscountAmount = email.FormatAmount(inv.DiscountAmount)
	}
	if inv.TaxAmount > 0 {
		req.TaxAmount = email.FormatAmount(inv.TaxAmount)
	}
	return req
}

// ensureOwnership fails with a forbidden error when the resource belongs
// to a different organization than the request context
func ensureOwnership(ctx context.Context, resourceOrgID, resource string) error {
	if resourceOrgID != types.GetOrganizationID(ctx) {
		return ierr.NewError(resource + " belongs to a different organization").
			WithHint("You do not have access to this " + resource).
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}
