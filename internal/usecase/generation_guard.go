package usecase

import (
	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
)

// CheckGeneration is the generation-quota guard: a pure decision with no
// mutation. The quota binds only while the trial is active; Exempt and
// Subscribed states bypass it entirely. Incrementing the counter is the
// caller's job, after a successful generation, so retries of a failed
// generation are never double-counted.
func CheckGeneration(ent model.Entitlement, generations, limit int) error {
	if ent.State != model.EntitlementTrialActive {
		return nil
	}
	if generations >= limit {
		return domain.ErrGenerationLimitReached
	}
	return nil
}
