package service

import (
	"context"
	"time"

	"github.com/poolstack/poolstack/internal/api/dto"
	"github.com/poolstack/poolstack/internal/domain/inventory"
	"github.com/poolstack/poolstack/internal/domain/invoice"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/gateway/stripe"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/poolstack/poolstack/internal/postgres"
	"github.com/poolstack/poolstack/internal/types"
)

type PaymentService interface {
	ApplyPayment(ctx context.Context, invoiceID string, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error)
	RemovePayment(ctx context.Context, invoiceID, paymentID string) (*dto.InvoiceResponse, error)
	ReconcileWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error)
}

type paymentService struct {
	db            postgres.IClient
	logger        *logger.Logger
	invoiceRepo   invoice.Repository
	inventoryRepo inventory.Repository
	gateway       stripe.Gateway
}

func NewPaymentService(
	invoiceRepo invoice.Repository,
	inventoryRepo inventory.Repository,
	gateway stripe.Gateway,
	logger *logger.Logger,
	db postgres.IClient,
) PaymentService {
	return &paymentService{
		db:            db,
		logger:        logger,
		invoiceRepo:   invoiceRepo,
		inventoryRepo: inventoryRepo,
		gateway:       gateway,
	}
}

func (s *paymentService) ApplyPayment(ctx context.Context, invoiceID string, req dto.RecordPaymentRequest) (*dto.InvoiceResponse, error) {
	if err := types.ValidateOrganizationContext(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.invoiceRepo.GetWithLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnership(ctx, inv.OrganizationID, "invoice"); err != nil {
		return nil, err
	}

	payment := req.ToPayment(ctx, inv)
	priorStatus := inv.InvoiceStatus

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.CreatePayment(txCtx, payment); err != nil {
			return err
		}
		inv.Payments = append(inv.Payments, payment)

		inv.Recompute(time.Now().UTC())

		if err := deductInventoryOnce(txCtx, s.logger, s.inventoryRepo, inv, priorStatus); err != nil {
			return err
		}

		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = types.GetUserID(txCtx)
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("recorded payment",
		"invoice_id", inv.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount,
		"method", payment.PaymentMethod,
		"invoice_status", inv.InvoiceStatus,
	)

	return dto.NewInvoiceResponse(inv), nil
}

func (s *paymentService) RemovePayment(ctx context.Context, invoiceID, paymentID string) (*dto.InvoiceResponse, error) {
	if err := types.ValidateOrganizationContext(ctx); err != nil {
		return nil, err
	}

	inv, err := s.invoiceRepo.GetWithLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnership(ctx, inv.OrganizationID, "invoice"); err != nil {
		return nil, err
	}

	found := false
	remaining := make([]*invoice.InvoicePayment, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		if p.ID == paymentID {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return nil, ierr.NewError("payment not found").
			WithHint("The payment does not belong to this invoice").
			WithReportableDetails(map[string]any{
				"invoice_id": invoiceID,
				"payment_id": paymentID,
			}).
			Mark(ierr.ErrNotFound)
	}

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.DeletePayment(txCtx, paymentID); err != nil {
			return err
		}
		inv.Payments = remaining

		inv.Recompute(time.Now().UTC())

		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = types.GetUserID(txCtx)
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("removed payment",
		"invoice_id", inv.ID,
		"payment_id", paymentID,
		"invoice_status", inv.InvoiceStatus,
	)

	return dto.NewInvoiceResponse(inv), nil
}

// ReconcileWebhook verifies a gateway webhook and applies a settled
// checkout session as a payment. Processing is idempotent on the
// gateway event id; replays acknowledge without mutating anything.
func (s *paymentService) ReconcileWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error) {
	event, err := s.gateway.ParseWebhookEvent(payload, signature)
	if err != nil {
		return nil, err
	}

	switch event.Type {
	case stripe.PaymentEventCheckoutCompleted:
		return s.reconcileCheckoutCompleted(ctx, event)
	case stripe.PaymentEventCheckoutExpired:
		s.logger.Infow("checkout session expired",
			"event_id", event.EventID,
			"session_id", event.CheckoutSessionID,
			"invoice_id", event.InvoiceID,
		)
		return &dto.WebhookResponse{Received: true, EventID: event.EventID}, nil
	default:
		s.logger.Debugw("ignoring gateway event", "event_id", event.EventID)
		return &dto.WebhookResponse{Received: true, EventID: event.EventID}, nil
	}
}

func (s *paymentService) reconcileCheckoutCompleted(ctx context.Context, event *stripe.PaymentEvent) (*dto.WebhookResponse, error) {
	// Webhooks are unauthenticated; the organization scope comes from
	// the session metadata stamped at link creation.
	ctx = types.SetOrganizationID(ctx, event.OrganizationID)

	existing, err := s.invoiceRepo.GetPaymentByGatewayEventID(ctx, event.EventID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		s.logger.Infow("gateway event already reconciled",
			"event_id", event.EventID,
			"payment_id", existing.ID,
		)
		return &dto.WebhookResponse{
			Received:  true,
			EventID:   event.EventID,
			InvoiceID: existing.InvoiceID,
			Duplicate: true,
		}, nil
	}

	inv, err := s.resolveInvoiceForEvent(ctx, event)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Sessions can settle for invoices deleted in the meantime,
			// and the gateway retries anything that is not a 2xx.
			// Acknowledge and move on.
			s.logger.Warnw("gateway event references no known invoice",
				"event_id", event.EventID,
				"session_id", event.CheckoutSessionID,
				"invoice_id", event.InvoiceID,
			)
			return &dto.WebhookResponse{Received: true, EventID: event.EventID}, nil
		}
		return nil, err
	}

	if inv.OrganizationID != event.OrganizationID {
		return nil, ierr.NewError("webhook organization mismatch").
			WithHint("Event metadata does not match the invoice's organization").
			Mark(ierr.ErrPermissionDenied)
	}

	if event.AmountTotal <= 0 {
		return nil, ierr.NewError("settled amount must be positive").
			WithHint("Checkout session settled with a non-positive amount").
			Mark(ierr.ErrValidation)
	}

	now := time.Now().UTC()
	payment := &invoice.InvoicePayment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_PAYMENT),
		InvoiceID:         inv.ID,
		Amount:            event.AmountTotal,
		PaymentMethod:     types.PaymentMethodGateway,
		PaidAt:            now,
		GatewayEventID:    event.EventID,
		CheckoutSessionID: event.CheckoutSessionID,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}

	priorStatus := inv.InvoiceStatus

	err = s.db.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.CreatePayment(txCtx, payment); err != nil {
			return err
		}
		inv.Payments = append(inv.Payments, payment)

		inv.Recompute(now)

		if err := deductInventoryOnce(txCtx, s.logger, s.inventoryRepo, inv, priorStatus); err != nil {
			return err
		}

		inv.UpdatedAt = now
		return s.invoiceRepo.Update(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("reconciled gateway payment",
		"event_id", event.EventID,
		"invoice_id", inv.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount,
		"invoice_status", inv.InvoiceStatus,
	)

	return &dto.WebhookResponse{
		Received:  true,
		EventID:   event.EventID,
		InvoiceID: inv.ID,
	}, nil
}

func (s *paymentService) resolveInvoiceForEvent(ctx context.Context, event *stripe.PaymentEvent) (*invoice.Invoice, error) {
	if event.InvoiceID != "" {
		inv, err := s.invoiceRepo.GetWithLines(ctx, event.InvoiceID)
		if err == nil {
			return inv, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	if event.CheckoutSessionID != "" {
		inv, err := s.invoiceRepo.GetByCheckoutSessionID(ctx, event.CheckoutSessionID)
		if err == nil {
			return s.invoiceRepo.GetWithLines(ctx, inv.ID)
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	return nil, ierr.NewError("no invoice found for gateway event").
		WithHint("The event does not reference a known invoice").
		WithReportableDetails(map[string]any{
			"event_id":   event.EventID,
			"session_id": event.CheckoutSessionID,
		}).
		Mark(ierr.ErrNotFound)
}
