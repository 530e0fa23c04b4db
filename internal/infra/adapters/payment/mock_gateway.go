package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MockGateway)(nil)

// MockGateway keeps intents in memory and never talks to a network. It is
// the default gateway for local development and tests. FailureRate controls
// what fraction of renewals the mock declines.
type MockGateway struct {
	mu          sync.Mutex
	intents     map[string]*model.PaymentIntent
	confirmed   map[string]bool
	failureRate float64
	rng         *rand.Rand
}

func NewMockGateway(failureRate float64, seed int64) *MockGateway {
	return &MockGateway{
		intents:     make(map[string]*model.PaymentIntent),
		confirmed:   make(map[string]bool),
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) CreateIntent(ctx context.Context, amountCents int64, currency, planID, planName string) (*model.PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	id := "pi_mock_" + uuid.NewString()
	intent := &model.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		AmountCents:  amountCents,
		Currency:     currency,
		Metadata: map[string]string{
			"plan_id":   planID,
			"plan_name": planName,
		},
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *MockGateway) ConfirmPayment(ctx context.Context, intentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.intents[intentID]; !ok {
		return fmt.Errorf("confirm %s: %w", intentID, domain.ErrUnknownPaymentIntent)
	}
	g.confirmed[intentID] = true
	return nil
}

func (g *MockGateway) ProcessRenewal(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	intentID := "pi_mock_" + uuid.NewString()
	if g.rng.Float64() < g.failureRate {
		return &model.PaymentResult{
			Success:         false,
			PaymentIntentID: intentID,
			ErrorMessage:    "card declined",
		}, nil
	}
	g.intents[intentID] = &model.PaymentIntent{
		ID:          intentID,
		AmountCents: amountCents,
		Metadata: map[string]string{
			"user_id": userID,
			"plan_id": planID,
			"renewal": "true",
		},
	}
	return &model.PaymentResult{Success: true, PaymentIntentID: intentID}, nil
}
