package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway drives Stripe PaymentIntents. Checkout flows confirm on the
// client with the returned secret; renewals are charged off-session.
type StripeGateway struct {
	api *client.API
	log *zerolog.Logger
}

func NewStripeGateway(secretKey string, logger *zerolog.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe gateway: %w: missing secret key", domain.ErrInvalidArgument)
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	l := logger.With().Str("component", "stripe-gateway").Logger()
	return &StripeGateway{api: api, log: &l}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency, planID, planName string) (*model.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata("plan_id", planID)
	params.AddMetadata("plan_name", planName)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.log.Error().Err(err).Str("plan_id", planID).Msg("create intent failed")
		return nil, err
	}
	return &model.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  amountCents,
		Currency:     currency,
		Metadata:     map[string]string{"plan_id": planID, "plan_name": planName},
	}, nil
}

func (g *StripeGateway) ConfirmPayment(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		var sErr *stripe.Error
		if errors.As(err, &sErr) && sErr.HTTPStatusCode == 404 {
			return fmt.Errorf("confirm %s: %w", intentID, domain.ErrUnknownPaymentIntent)
		}
		return err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("confirm %s: status %s: %w", intentID, pi.Status, domain.ErrPaymentDeclined)
	}
	return nil
}

func (g *StripeGateway) ProcessRenewal(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:     stripe.Int64(amountCents),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Confirm:    stripe.Bool(true),
		OffSession: stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	params.AddMetadata("plan_id", planID)
	params.AddMetadata("renewal", "true")

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var sErr *stripe.Error
		if errors.As(err, &sErr) && sErr.Type == stripe.ErrorTypeCard {
			// A card error is a definitive decline, not a transport fault.
			return &model.PaymentResult{
				Success:      false,
				ErrorMessage: sErr.Msg,
			}, nil
		}
		return nil, err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return &model.PaymentResult{
			Success:         false,
			PaymentIntentID: pi.ID,
			ErrorMessage:    fmt.Sprintf("payment intent status %s", pi.Status),
		}, nil
	}
	return &model.PaymentResult{Success: true, PaymentIntentID: pi.ID}, nil
}
