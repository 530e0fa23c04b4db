package repository

import (
	"context"
	"time"

	"mealplan-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for user subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByIntentID(ctx context.Context, tx Tx, intentID string) (*model.Subscription, error)

	// FindActiveByUser returns the user's active subscription,
	// domain.ErrNotFound when there is none.
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)

	// FindEntitledByUser returns a subscription that still grants access at
	// `now`: active, or cancelled with a future paid-through date.
	FindEntitledByUser(ctx context.Context, tx Tx, userID string, now time.Time) (*model.Subscription, error)

	// FindDueForRenewal returns active subscriptions whose expiry falls
	// within the window after `now`, ordered by expiry.
	FindDueForRenewal(ctx context.Context, tx Tx, now time.Time, window time.Duration) ([]*model.Subscription, error)

	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
