package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/repository"
)

var _ repository.PreferenceRepository = (*preferenceRepo)(nil)

type preferenceRepo struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepo(pool *pgxpool.Pool) *preferenceRepo {
	return &preferenceRepo{pool: pool}
}

const prefColumns = `user_id, likes, dislikes, allergies, dietary_restriction, meal_plan_generations, trial_start_date, updated_at`

func (r *preferenceRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserPreference, error) {
	const q = `SELECT ` + prefColumns + ` FROM user_preferences WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanPreference(row)
}

// FindOrCreate performs the idempotent lazy trial creation: a conditional
// insert that loses gracefully to a concurrent winner, followed by a read
// of whichever row survived. At most one trial record ever exists per user.
func (r *preferenceRepo) FindOrCreate(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.UserPreference, bool, error) {
	const ins = `
INSERT INTO user_preferences (user_id, likes, dislikes, allergies, dietary_restriction, meal_plan_generations, trial_start_date, updated_at)
VALUES ($1, '', '', '', '', 0, $2, $2)
ON CONFLICT (user_id) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, ins, userID, now)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, false, err
		default:
			return nil, false, domain.ErrOperationFailed
		}
	}
	created := tag.RowsAffected() == 1

	pref, err := r.Find(ctx, tx, userID)
	if err != nil {
		return nil, false, err
	}
	return pref, created, nil
}

// Save upserts the profile fields. trial_start_date is write-once, and the
// generation counter is owned by IncrementGenerations: an existing row keeps
// its counter, so a read-modify-write here cannot undo a concurrent increment.
func (r *preferenceRepo) Save(ctx context.Context, tx repository.Tx, p *model.UserPreference) error {
	const q = `
INSERT INTO user_preferences (user_id, likes, dislikes, allergies, dietary_restriction, meal_plan_generations, trial_start_date, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
ON CONFLICT (user_id) DO UPDATE SET
  likes=$2, dislikes=$3, allergies=$4, dietary_restriction=$5,
  trial_start_date=COALESCE(user_preferences.trial_start_date, $7),
  updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, p.UserID, p.Likes, p.Dislikes, p.Allergies, p.DietaryRestriction, p.MealPlanGenerations, p.TrialStartDate)
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

func (r *preferenceRepo) IncrementGenerations(ctx context.Context, tx repository.Tx, userID string) error {
	const q = `
UPDATE user_preferences
   SET meal_plan_generations = meal_plan_generations + 1, updated_at = NOW()
 WHERE user_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID)
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

func scanPreference(row pgx.Row) (*model.UserPreference, error) {
	p := &model.UserPreference{}
	if err := row.Scan(&p.UserID, &p.Likes, &p.Dislikes, &p.Allergies, &p.DietaryRestriction, &p.MealPlanGenerations, &p.TrialStartDate, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
