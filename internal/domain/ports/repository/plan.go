package repository

import (
	"context"

	"mealplan-subscription/internal/domain/model"
)

// PlanRepository is the port for the plan catalog.
type PlanRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
}
