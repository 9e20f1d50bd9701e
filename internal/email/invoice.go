package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/poolstack/poolstack/internal/logger"
	"github.com/shopspring/decimal"
)

//go:embed templates/invoice.html
var templateFS embed.FS

// InvoiceSender delivers invoice emails to clients
type InvoiceSender interface {
	IsEnabled() bool
	SendInvoice(ctx context.Context, req *InvoiceEmailRequest) (*SendResult, error)
}

// InvoiceEmailLine is a rendered invoice line for the email template
type InvoiceEmailLine struct {
	Description string
	Quantity    string
	Amount      string
}

// InvoiceEmailRequest carries the rendered invoice data for delivery.
// Monetary fields are preformatted display strings.
type InvoiceEmailRequest struct {
	ToAddress      string
	ClientName     string
	InvoiceNumber  string
	IssueDate      string
	DueDate        string
	Lines          []InvoiceEmailLine
	Subtotal       string
	DiscountAmount string
	TaxAmount      string
	Total          string
	AmountDue      string
	PaymentLinkURL string
	Notes          string
}

// SendResult is the outcome of an email delivery attempt
type SendResult struct {
	MessageID string
}

// Service renders and sends invoice emails through the email client
type Service struct {
	client   *EmailClient
	logger   *logger.Logger
	template *template.Template
}

// NewService creates a new invoice email service
func NewService(client *EmailClient, logger *logger.Logger) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/invoice.html")
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to parse invoice email template").
			Mark(ierr.ErrSystem)
	}

	return &Service{
		client:   client,
		logger:   logger,
		template: tmpl,
	}, nil
}

// IsEnabled reports whether email delivery is configured
func (s *Service) IsEnabled() bool {
	return s.client.IsEnabled()
}

// SendInvoice renders the invoice template and delivers it to the client
func (s *Service) SendInvoice(ctx context.Context, req *InvoiceEmailRequest) (*SendResult, error) {
	if !s.client.IsEnabled() {
		return nil, ierr.NewError("email delivery is disabled").
			WithHint("Email delivery is not configured").
			Mark(ierr.ErrInvalidOperation)
	}

	if req.ToAddress == "" {
		return nil, ierr.NewError("client has no billing email").
			WithHint("Add an email address to the client before sending").
			Mark(ierr.ErrValidation)
	}

	var body bytes.Buffer
	if err := s.template.Execute(&body, req); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to render invoice email").
			Mark(ierr.ErrSystem)
	}

	subject := fmt.Sprintf("Invoice %s", req.InvoiceNumber)
	messageID, err := s.client.SendEmail(ctx, s.client.GetFromAddress(), req.ToAddress, subject, body.String())
	if err != nil {
		s.logger.Errorw("failed to send invoice email",
			"invoice_number", req.InvoiceNumber,
			"to", req.ToAddress,
			"error", err,
		)
		return nil, err
	}

	s.logger.Infow("invoice email sent",
		"invoice_number", req.InvoiceNumber,
		"to", req.ToAddress,
		"message_id", messageID,
	)

	return &SendResult{MessageID: messageID}, nil
}

// FormatAmount renders minor units as a dollar display string, e.g. 1050 -> "$10.50"
func FormatAmount(minorUnits int64) string {
	return "$" + decimal.NewFromInt(minorUnits).Div(decimal.NewFromInt(100)).StringFixed(2)
}
