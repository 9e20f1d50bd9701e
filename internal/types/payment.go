package types

import (
	ierr "github.com/poolstack/poolstack/internal/errors"
	"github.com/samber/lo"
)

// PaymentMethod describes how a payment was collected.
type PaymentMethod string

const (
	PaymentMethodManual  PaymentMethod = "manual"
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodCheck   PaymentMethod = "check"
	PaymentMethodCard    PaymentMethod = "card"
	// PaymentMethodGateway marks payments reconciled from gateway webhook events
	PaymentMethodGateway PaymentMethod = "gateway"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodManual,
		PaymentMethodCash,
		PaymentMethodCheck,
		PaymentMethodCard,
		PaymentMethodGateway,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment method").
			WithHint("Please provide a valid payment method").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
