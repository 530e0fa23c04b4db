package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/adapter"
	"mealplan-subscription/internal/domain/ports/repository"
	"mealplan-subscription/internal/infra/logging"
	"mealplan-subscription/internal/infra/metrics"
)

// EntitlementUseCase answers "can this user generate a meal plan now?".
// It owns trial bookkeeping: the trial record is created lazily on the
// first evaluation for a user with no preference row, and the generation
// quota is enforced only while the trial is active.
type EntitlementUseCase struct {
	subRepo  repository.SubscriptionRepository
	prefRepo repository.PreferenceRepository
	clock    adapter.Clock

	trialDays       int
	generationLimit int

	log *zerolog.Logger
}

func NewEntitlementUseCase(
	subRepo repository.SubscriptionRepository,
	prefRepo repository.PreferenceRepository,
	clock adapter.Clock,
	trialDays, generationLimit int,
	logger *zerolog.Logger,
) *EntitlementUseCase {
	l := logger.With().Str("component", "EntitlementUC").Logger()
	if trialDays <= 0 {
		trialDays = 7
	}
	if generationLimit <= 0 {
		generationLimit = 2
	}
	return &EntitlementUseCase{
		subRepo:         subRepo,
		prefRepo:        prefRepo,
		clock:           clock,
		trialDays:       trialDays,
		generationLimit: generationLimit,
		log:             &l,
	}
}

// Evaluate computes the user's entitlement state at the current time.
// Admins and special users are exempt; an entitled subscription wins over
// trial accounting; otherwise the trial window decides.
func (uc *EntitlementUseCase) Evaluate(ctx context.Context, userID string, isAdmin, isSpecial bool) (model.Entitlement, error) {
	ent, _, err := uc.evaluate(ctx, userID, isAdmin, isSpecial)
	return ent, err
}

// CanGenerate combines the entitlement evaluation with the generation-quota
// guard. It does not consume quota: callers invoke RecordGeneration after a
// generation actually succeeds, so a failed generation costs nothing.
func (uc *EntitlementUseCase) CanGenerate(ctx context.Context, userID string, isAdmin, isSpecial bool) (model.Entitlement, error) {
	ent, pref, err := uc.evaluate(ctx, userID, isAdmin, isSpecial)
	if err != nil {
		return ent, err
	}
	if !ent.CanGenerate() {
		return ent, domain.ErrTrialExpired
	}
	generations := 0
	if pref != nil {
		generations = pref.MealPlanGenerations
	}
	if err := CheckGeneration(ent, generations, uc.generationLimit); err != nil {
		metrics.IncQuotaDenial()
		return ent, err
	}
	return ent, nil
}

// RecordGeneration increments the user's generation counter. Called after a
// successful generation, never before.
func (uc *EntitlementUseCase) RecordGeneration(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	return uc.prefRepo.IncrementGenerations(ctx, repository.NoTX, userID)
}

func (uc *EntitlementUseCase) evaluate(ctx context.Context, userID string, isAdmin, isSpecial bool) (model.Entitlement, *model.UserPreference, error) {
	defer logging.TraceDuration(uc.log, "EntitlementUC.Evaluate")()

	if userID == "" {
		return model.Entitlement{}, nil, domain.ErrInvalidArgument
	}
	now := uc.clock.Now()

	if isAdmin || isSpecial {
		metrics.IncEntitlementEvaluation(string(model.EntitlementExempt))
		return model.Entitlement{State: model.EntitlementExempt}, nil, nil
	}

	sub, err := uc.subRepo.FindEntitledByUser(ctx, repository.NoTX, userID, now)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return model.Entitlement{}, nil, err
	}
	if sub != nil {
		metrics.IncEntitlementEvaluation(string(model.EntitlementSubscribed))
		return model.Entitlement{State: model.EntitlementSubscribed}, nil, nil
	}

	pref, created, err := uc.prefRepo.FindOrCreate(ctx, repository.NoTX, userID, now)
	if err != nil {
		return model.Entitlement{}, nil, err
	}
	if created {
		metrics.IncTrialStarted()
		uc.log.Info().Str("user_id", userID).Time("trial_start", now).Msg("trial started")
	}

	// Legacy rows can predate trial tracking; the trial starts on first sight.
	if pref.TrialStartDate == nil {
		pref.TrialStartDate = &now
		if err := uc.prefRepo.Save(ctx, repository.NoTX, pref); err != nil {
			return model.Entitlement{}, nil, err
		}
		metrics.IncTrialStarted()
	}

	end := *pref.TrialEnd(uc.trialDays)
	if now.Before(end) {
		ent := model.Entitlement{
			State:    model.EntitlementTrialActive,
			DaysLeft: model.TrialDaysLeft(now, end),
		}
		metrics.IncEntitlementEvaluation(string(model.EntitlementTrialActive))
		return ent, pref, nil
	}

	metrics.IncEntitlementEvaluation(string(model.EntitlementTrialExpired))
	return model.Entitlement{State: model.EntitlementTrialExpired}, pref, nil
}
