package repository

import (
	"context"

	"mealplan-subscription/internal/domain/model"
)

// MealPlanRepository is the port for generated meal plan records.
type MealPlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.MealPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MealPlan, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.MealPlan, error)
	SetFavorite(ctx context.Context, tx Tx, userID, id string, favorite bool) error
}
