package email

import (
	"context"

	"github.com/poolstack/poolstack/internal/config"
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/resend/resend-go/v2"
)

// EmailClient wraps the resend client. A disabled client is a valid
// state; callers check IsEnabled before sending.
type EmailClient struct {
	client      *resend.Client
	enabled     bool
	fromAddress string
	replyTo     string
}

// NewEmailClient creates a new email client from configuration
func NewEmailClient(cfg *config.Configuration) *EmailClient {
	emailCfg := cfg.Email
	if !emailCfg.Enabled || emailCfg.APIKey == "" {
		return &EmailClient{
			enabled: false,
		}
	}

	return &EmailClient{
		client:      resend.NewClient(emailCfg.APIKey),
		enabled:     true,
		fromAddress: emailCfg.FromAddress,
		replyTo:     emailCfg.ReplyTo,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *EmailClient) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the default from address
func (c *EmailClient) GetFromAddress() string {
	return c.fromAddress
}

// SendEmail sends an HTML email and returns the provider message id
func (c *EmailClient) SendEmail(ctx context.Context, from, to, subject, htmlContent string) (string, error) {
	if !c.enabled {
		return "", ierr.NewError("email client is disabled").
			WithHint("Email delivery is not configured").
			Mark(ierr.ErrInvalidOperation)
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlContent,
	}
	if c.replyTo != "" {
		params.ReplyTo = c.replyTo
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to send email").
			Mark(ierr.ErrExternalService)
	}

	return sent.Id, nil
}
