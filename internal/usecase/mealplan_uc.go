package usecase

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/adapter"
	"mealplan-subscription/internal/domain/ports/repository"
	"mealplan-subscription/internal/infra/metrics"
)

// MealPlanUseCase is the gated generation flow: evaluate entitlement,
// check quota, call the generator, persist the plan, and only then record
// the generation against the quota.
type MealPlanUseCase struct {
	entitlement *EntitlementUseCase
	prefRepo    repository.PreferenceRepository
	planRepo    repository.MealPlanRepository
	generator   adapter.MealPlanGenerator
	clock       adapter.Clock

	log *zerolog.Logger
}

func NewMealPlanUseCase(
	entitlement *EntitlementUseCase,
	prefRepo repository.PreferenceRepository,
	planRepo repository.MealPlanRepository,
	generator adapter.MealPlanGenerator,
	clock adapter.Clock,
	logger *zerolog.Logger,
) *MealPlanUseCase {
	l := logger.With().Str("component", "MealPlanUC").Logger()
	return &MealPlanUseCase{
		entitlement: entitlement,
		prefRepo:    prefRepo,
		planRepo:    planRepo,
		generator:   generator,
		clock:       clock,
		log:         &l,
	}
}

// Generate produces and stores a meal plan for the user, or refuses with
// domain.ErrTrialExpired / domain.ErrGenerationLimitReached.
func (uc *MealPlanUseCase) Generate(ctx context.Context, userID string, isAdmin, isSpecial bool, req adapter.MealPlanRequest) (*model.MealPlan, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := uc.entitlement.CanGenerate(ctx, userID, isAdmin, isSpecial); err != nil {
		return nil, err
	}

	now := uc.clock.Now()

	// Persist the dietary inputs on the preference record, like the
	// profile form would.
	pref, _, err := uc.prefRepo.FindOrCreate(ctx, repository.NoTX, userID, now)
	if err != nil {
		return nil, err
	}
	pref.Likes = req.Favorites
	pref.Dislikes = req.Avoid
	pref.Allergies = req.Allergies
	pref.DietaryRestriction = req.Restrictions
	if err := uc.prefRepo.Save(ctx, repository.NoTX, pref); err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := uc.generator.Generate(ctx, req)
	metrics.ObserveGeneration(time.Since(start).Seconds())
	if err != nil {
		metrics.IncGeneration("error")
		uc.log.Error().Err(err).Str("user_id", userID).Msg("meal plan generation failed")
		return nil, err
	}
	metrics.IncGeneration("ok")

	plan := &model.MealPlan{
		ID:          ulid.Make().String(),
		UserID:      userID,
		PlanText:    text,
		Goal:        req.Goal,
		MealsPerDay: req.MealsPerDay,
		GeneratedAt: now,
	}
	if err := uc.planRepo.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}

	// Quota is consumed only after the generation succeeded and persisted.
	// An increment failure is logged, not returned: the stored plan wins
	// over the counter, and that generation goes unbilled.
	if err := uc.entitlement.RecordGeneration(ctx, userID); err != nil {
		uc.log.Error().Err(err).Str("user_id", userID).Msg("record generation")
	}
	return plan, nil
}

// ListPlans returns the user's most recent meal plans.
func (uc *MealPlanUseCase) ListPlans(ctx context.Context, userID string, limit int) ([]*model.MealPlan, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if limit <= 0 {
		limit = 20
	}
	return uc.planRepo.ListByUser(ctx, repository.NoTX, userID, limit)
}

// SetFavorite toggles the favorite flag on a stored plan. The plan must
// belong to the user.
func (uc *MealPlanUseCase) SetFavorite(ctx context.Context, userID, id string, favorite bool) error {
	if userID == "" || id == "" {
		return domain.ErrInvalidArgument
	}
	return uc.planRepo.SetFavorite(ctx, repository.NoTX, userID, id, favorite)
}
