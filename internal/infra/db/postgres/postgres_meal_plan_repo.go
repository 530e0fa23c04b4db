package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/repository"
)

var _ repository.MealPlanRepository = (*mealPlanRepo)(nil)

type mealPlanRepo struct {
	pool *pgxpool.Pool
}

func NewMealPlanRepo(pool *pgxpool.Pool) *mealPlanRepo {
	return &mealPlanRepo{pool: pool}
}

const mealPlanColumns = `id, user_id, plan_text, goal, meals_per_day, generated_at, favorite`

func (r *mealPlanRepo) Save(ctx context.Context, tx repository.Tx, mp *model.MealPlan) error {
	const q = `
INSERT INTO meal_plans (id, user_id, plan_text, goal, meals_per_day, generated_at, favorite)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  plan_text=$3, goal=$4, meals_per_day=$5, favorite=$7;`
	_, err := execSQL(ctx, r.pool, tx, q, mp.ID, mp.UserID, mp.PlanText, mp.Goal, mp.MealsPerDay, mp.GeneratedAt, mp.Favorite)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *mealPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MealPlan, error) {
	const q = `SELECT ` + mealPlanColumns + ` FROM meal_plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanMealPlan(row)
}

func (r *mealPlanRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.MealPlan, error) {
	const q = `SELECT ` + mealPlanColumns + ` FROM meal_plans WHERE user_id=$1 ORDER BY generated_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.MealPlan
	for rows.Next() {
		mp, err := scanMealPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *mealPlanRepo) SetFavorite(ctx context.Context, tx repository.Tx, userID, id string, favorite bool) error {
	const q = `UPDATE meal_plans SET favorite=$3 WHERE id=$1 AND user_id=$2;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, userID, favorite)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMealPlan(row pgx.Row) (*model.MealPlan, error) {
	mp := &model.MealPlan{}
	if err := row.Scan(&mp.ID, &mp.UserID, &mp.PlanText, &mp.Goal, &mp.MealsPerDay, &mp.GeneratedAt, &mp.Favorite); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return mp, nil
}
