package ai

import (
	"context"
	"fmt"
	"time"

	"mealplan-subscription/internal/domain/ports/adapter"
)

var _ adapter.MealPlanGenerator = (*NoopGenerator)(nil)

// NoopGenerator returns a canned plan for local development so the full
// generation flow (entitlement, quota, persistence) works without an API key.
type NoopGenerator struct{}

func NewNoopGenerator() *NoopGenerator {
	return &NoopGenerator{}
}

func (n *NoopGenerator) Name() string { return "noop" }

func (n *NoopGenerator) Generate(ctx context.Context, req adapter.MealPlanRequest) (string, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	meals := req.MealsPerDay
	if meals <= 0 {
		meals = 3
	}
	return fmt.Sprintf("Sample plan (%d meals, goal: %s)\n\nBreakfast: oatmeal with fruit\nLunch: grilled chicken salad\nDinner: baked salmon with vegetables\n", meals, req.Goal), nil
}
