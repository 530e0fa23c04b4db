package adapter

import (
	"context"

	"mealplan-subscription/internal/domain/model"
)

// PaymentGateway is the port for payment providers. Treated as an
// untrusted, fallible remote service: every call takes a context and the
// caller bounds it with a timeout.
type PaymentGateway interface {
	Name() string

	// CreateIntent initiates a payment intent for a checkout.
	CreateIntent(ctx context.Context, amountCents int64, currency, planID, planName string) (*model.PaymentIntent, error)

	// ConfirmPayment confirms a previously created intent; fails for
	// unknown intent ids.
	ConfirmPayment(ctx context.Context, intentID string) error

	// ProcessRenewal charges a renewal off-session. A returned error means
	// the outcome is unknown (transport/timeout); a PaymentResult with
	// Success=false means the provider declined the charge.
	ProcessRenewal(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error)
}
