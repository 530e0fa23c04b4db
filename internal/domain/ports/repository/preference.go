package repository

import (
	"context"
	"time"

	"mealplan-subscription/internal/domain/model"
)

// PreferenceRepository is the port for user preference/trial records.
type PreferenceRepository interface {
	Find(ctx context.Context, tx Tx, userID string) (*model.UserPreference, error)

	// FindOrCreate returns the user's preference record, lazily creating it
	// with TrialStartDate=now. The create is conditional (create-if-absent):
	// two concurrent first-time calls yield exactly one record, and the
	// loser re-reads the winner's row. The bool reports whether this call
	// created the record.
	FindOrCreate(ctx context.Context, tx Tx, userID string, now time.Time) (*model.UserPreference, bool, error)

	// Save upserts the profile fields. It never writes MealPlanGenerations
	// on an existing record; the counter moves only through
	// IncrementGenerations.
	Save(ctx context.Context, tx Tx, pref *model.UserPreference) error

	// IncrementGenerations bumps the meal-plan generation counter by one,
	// atomically in the store.
	IncrementGenerations(ctx context.Context, tx Tx, userID string) error
}
