package stripe

import (
	"context"
	"encoding/json"

	"github.com/poolstack/poolstack/internal/config"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Metadata keys attached to checkout sessions so webhook events can be
// traced back to the originating invoice.
const (
	MetadataInvoiceID      = "invoice_id"
	MetadataOrganizationID = "organization_id"
	MetadataInvoiceNumber  = "invoice_number"
)

// PaymentEventType classifies parsed webhook events
type PaymentEventType string

const (
	// PaymentEventCheckoutCompleted is a settled checkout session
	PaymentEventCheckoutCompleted PaymentEventType = "checkout_completed"
	// PaymentEventCheckoutExpired is a checkout session that timed out
	PaymentEventCheckoutExpired PaymentEventType = "checkout_expired"
	// PaymentEventIgnored is any event type reconciliation does not act on
	PaymentEventIgnored PaymentEventType = "ignored"
)

// CheckoutSessionRequest describes the payment link to create for an invoice
type CheckoutSessionRequest struct {
	InvoiceID      string
	InvoiceNumber  string
	OrganizationID string
	ClientName     string
	// AmountDue is the outstanding balance in minor units
	AmountDue int64
}

// CheckoutSessionResult is the created payment link
type CheckoutSessionResult struct {
	SessionID string
	URL       string
}

// PaymentEvent is a gateway webhook event normalized for reconciliation
type PaymentEvent struct {
	EventID           string
	Type              PaymentEventType
	CheckoutSessionID string
	InvoiceID         string
	OrganizationID    string
	// AmountTotal is the settled amount in minor units
	AmountTotal int64
}

// Gateway is the payment gateway surface used by the payment service
type Gateway interface {
	IsEnabled() bool
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResult, error)
	ParseWebhookEvent(payload []byte, signature string) (*PaymentEvent, error)
}

// Client implements Gateway against the Stripe API
type Client struct {
	stripeClient *stripe.Client
	cfg          config.StripeConfig
	logger       *logger.Logger
}

// NewClient creates a new Stripe gateway client. A client without an API
// key is valid but disabled.
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	c := &Client{
		cfg:    cfg.Stripe,
		logger: logger,
	}
	if cfg.Stripe.APIKey != "" {
		c.stripeClient = stripe.NewClient(cfg.Stripe.APIKey, nil)
	}
	return c
}

// IsEnabled reports whether the gateway is configured
func (c *Client) IsEnabled() bool {
	return c.stripeClient != nil
}

func (c *Client) currency() string {
	if c.cfg.Currency != "" {
		return c.cfg.Currency
	}
	return "usd"
}

// CreateCheckoutSession creates a payment-mode checkout session for the
// invoice's outstanding balance
func (c *Client) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResult, error) {
	if !c.IsEnabled() {
		return nil, ierr.NewError("payment gateway is disabled").
			WithHint("Payment links are not configured").
			Mark(ierr.ErrInvalidOperation)
	}

	metadata := map[string]string{
		MetadataInvoiceID:      req.InvoiceID,
		MetadataOrganizationID: req.OrganizationID,
		MetadataInvoiceNumber:  req.InvoiceNumber,
	}

	lineItems := []*stripe.CheckoutSessionCreateLineItemParams{
		{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(c.currency()),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name:        stripe.String("Invoice " + req.InvoiceNumber),
					Description: stripe.String("Pool service invoice for " + req.ClientName),
				},
				UnitAmount: stripe.Int64(req.AmountDue),
			},
			Quantity: stripe.Int64(1),
		},
	}

	params := &stripe.CheckoutSessionCreateParams{
		LineItems:  lineItems,
		Mode:       stripe.String("payment"),
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
		Metadata:   metadata,
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: metadata,
		},
	}

	session, err := c.stripeClient.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create checkout session",
			"invoice_id", req.InvoiceID,
			"error", err,
		)
		return nil, ierr.WithError(err).
			WithHint("Unable to create payment link").
			WithReportableDetails(map[string]any{
				"invoice_id": req.InvoiceID,
			}).
			Mark(ierr.ErrExternalService)
	}

	c.logger.Infow("created checkout session",
		"invoice_id", req.InvoiceID,
		"session_id", session.ID,
	)

	return &CheckoutSessionResult{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// ParseWebhookEvent verifies and normalizes a gateway webhook payload.
// Signature verification is enforced whenever a webhook secret is
// configured; without one the payload is parsed as-is, which is only
// acceptable in local development.
func (c *Client) ParseWebhookEvent(payload []byte, signature string) (*PaymentEvent, error) {
	var event stripe.Event
	if c.cfg.WebhookSecret != "" {
		verified, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			c.logger.Errorw("webhook signature verification failed", "error", err)
			return nil, ierr.WithError(err).
				WithHint("Invalid webhook signature or payload").
				Mark(ierr.ErrValidation)
		}
		event = verified
	} else {
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid webhook payload").
				Mark(ierr.ErrValidation)
		}
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid checkout session data in webhook").
				Mark(ierr.ErrValidation)
		}

		eventType := PaymentEventCheckoutCompleted
		if event.Type == "checkout.session.expired" {
			eventType = PaymentEventCheckoutExpired
		}

		return &PaymentEvent{
			EventID:           event.ID,
			Type:              eventType,
			CheckoutSessionID: session.ID,
			InvoiceID:         session.Metadata[MetadataInvoiceID],
			OrganizationID:    session.Metadata[MetadataOrganizationID],
			AmountTotal:       session.AmountTotal,
		}, nil
	default:
		return &PaymentEvent{
			EventID: event.ID,
			Type:    PaymentEventIgnored,
		}, nil
	}
}
