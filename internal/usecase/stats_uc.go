package usecase

import (
	"context"

	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/repository"
	"mealplan-subscription/internal/infra/metrics"
)

// StatsUseCase aggregates admin-facing counters.
type StatsUseCase struct {
	subRepo repository.SubscriptionRepository
}

func NewStatsUseCase(subRepo repository.SubscriptionRepository) *StatsUseCase {
	return &StatsUseCase{subRepo: subRepo}
}

// SubscriptionCounts returns subscriptions grouped by status and refreshes
// the corresponding gauge.
func (uc *StatsUseCase) SubscriptionCounts(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	counts, err := uc.subRepo.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	metrics.SetSubscriptionsTotal(counts)
	return counts, nil
}
