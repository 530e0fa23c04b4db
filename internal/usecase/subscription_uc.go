package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/adapter"
	"mealplan-subscription/internal/domain/ports/repository"
	"mealplan-subscription/internal/infra/metrics"
)

// SubscriptionUseCase implements the subscription lifecycle: checkout,
// confirmation, cancellation, and the renewal pass the background worker
// drives.
type SubscriptionUseCase struct {
	planRepo repository.PlanRepository
	subRepo  repository.SubscriptionRepository
	gateway  adapter.PaymentGateway
	txm      repository.TransactionManager
	clock    adapter.Clock

	currency       string
	dueWindow      time.Duration
	gatewayTimeout time.Duration

	log *zerolog.Logger
}

func NewSubscriptionUseCase(
	planRepo repository.PlanRepository,
	subRepo repository.SubscriptionRepository,
	gateway adapter.PaymentGateway,
	txm repository.TransactionManager,
	clock adapter.Clock,
	currency string,
	dueWindow, gatewayTimeout time.Duration,
	logger *zerolog.Logger,
) *SubscriptionUseCase {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	if currency == "" {
		currency = "usd"
	}
	if dueWindow <= 0 {
		dueWindow = 24 * time.Hour
	}
	if gatewayTimeout <= 0 {
		gatewayTimeout = 30 * time.Second
	}
	return &SubscriptionUseCase{
		planRepo:       planRepo,
		subRepo:        subRepo,
		gateway:        gateway,
		txm:            txm,
		clock:          clock,
		currency:       currency,
		dueWindow:      dueWindow,
		gatewayTimeout: gatewayTimeout,
		log:            &l,
	}
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// lockUser takes a per-user advisory xact lock when the Tx is pgx-backed.
// In-memory repos used by tests pass a non-pgx Tx and skip it.
func lockUser(ctx context.Context, tx repository.Tx, userID string) error {
	if ptx, ok := tx.(pgx.Tx); ok {
		if _, err := ptx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(userID)); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe starts a checkout for the given plan. A free plan activates
// immediately; a paid plan creates a pending subscription plus a payment
// intent the caller completes via ConfirmCheckout. At most one active
// subscription may exist per user.
func (uc *SubscriptionUseCase) Subscribe(ctx context.Context, userID, planID string) (*model.Subscription, *model.PaymentIntent, error) {
	if userID == "" || planID == "" {
		return nil, nil, domain.ErrInvalidArgument
	}
	plan, err := uc.planRepo.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, nil, err
	}
	now := uc.clock.Now()

	// Fast pre-check before touching the gateway; re-checked under lock.
	if existing, err := uc.subRepo.FindActiveByUser(ctx, repository.NoTX, userID); err == nil && existing != nil {
		return nil, nil, domain.ErrActiveSubscriptionExists
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	var intent *model.PaymentIntent
	status := model.SubscriptionStatusActive
	intentID := "mock_" + uuid.NewString()
	var expiresAt *time.Time
	exp := now.AddDate(0, 1, 0)
	expiresAt = &exp

	if !plan.IsFree() {
		callCtx, cancel := context.WithTimeout(ctx, uc.gatewayTimeout)
		defer cancel()
		intent, err = uc.gateway.CreateIntent(callCtx, plan.PriceCents, uc.currency, plan.ID, plan.Name)
		if err != nil {
			return nil, nil, err
		}
		intentID = intent.ID
		status = model.SubscriptionStatusPending
		expiresAt = nil // set on confirmation
	}

	sub, err := model.NewSubscription(uuid.NewString(), userID, plan, intentID, status, now, expiresAt)
	if err != nil {
		return nil, nil, err
	}

	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		if existing, err := uc.subRepo.FindActiveByUser(ctx, tx, userID); err == nil && existing != nil {
			return domain.ErrActiveSubscriptionExists
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return uc.subRepo.Save(ctx, tx, sub)
	})
	if err != nil {
		return nil, nil, err
	}

	uc.log.Info().
		Str("user_id", userID).
		Str("plan_id", planID).
		Str("status", string(sub.Status)).
		Msg("subscription created")
	return sub, intent, nil
}

// ConfirmCheckout confirms a pending subscription's payment intent and
// activates it for one month.
func (uc *SubscriptionUseCase) ConfirmCheckout(ctx context.Context, intentID string) (*model.Subscription, error) {
	if intentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	callCtx, cancel := context.WithTimeout(ctx, uc.gatewayTimeout)
	defer cancel()
	if err := uc.gateway.ConfirmPayment(callCtx, intentID); err != nil {
		return nil, err
	}

	var out *model.Subscription
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subRepo.FindByIntentID(ctx, tx, intentID)
		if err != nil {
			return err
		}
		if err := lockUser(ctx, tx, sub.UserID); err != nil {
			return err
		}
		if sub.Status == model.SubscriptionStatusActive {
			out = sub // confirmation retry; nothing to do
			return nil
		}
		now := uc.clock.Now()
		exp := now.AddDate(0, 1, 0)
		sub.Status = model.SubscriptionStatusActive
		sub.ExpiresAt = &exp
		if err := uc.subRepo.Save(ctx, tx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", out.UserID).Str("plan_name", out.PlanName).Msg("subscription activated")
	return out, nil
}

// Cancel marks the user's active subscription cancelled. Entitlement
// persists until the paid-through date; the evaluator honors that.
func (uc *SubscriptionUseCase) Cancel(ctx context.Context, userID string) (*model.Subscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.Subscription
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		sub, err := uc.subRepo.FindActiveByUser(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoActiveSubscription
			}
			return err
		}
		sub.Status = model.SubscriptionStatusCancelled
		if err := uc.subRepo.Save(ctx, tx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", userID).Msg("subscription cancelled")
	return out, nil
}

// GetActiveSubscription returns the user's active subscription
// (domain.ErrNotFound when none).
func (uc *SubscriptionUseCase) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	return uc.subRepo.FindActiveByUser(ctx, repository.NoTX, userID)
}

// ProcessRenewals runs one renewal cycle: scan active subscriptions whose
// expiry falls inside the due window, charge each through the gateway, and
// persist each outcome individually so one failure cannot roll back the
// rest of the batch. Returns (renewed, lapsed).
//
// Outcome mapping:
//   - gateway transport error / timeout: transient; the subscription stays
//     active and is retried on the next cycle
//   - PaymentResult.Success == false: declined; the subscription moves to
//     payment_failed and loses entitlement
func (uc *SubscriptionUseCase) ProcessRenewals(ctx context.Context) (int, int, error) {
	now := uc.clock.Now()
	due, err := uc.subRepo.FindDueForRenewal(ctx, repository.NoTX, now, uc.dueWindow)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	renewed, lapsed := 0, 0
	for _, sub := range due {
		// Finish the in-flight subscription, then stop before the next one.
		select {
		case <-ctx.Done():
			return renewed, lapsed, ctx.Err()
		default:
		}

		callCtx, cancel := context.WithTimeout(ctx, uc.gatewayTimeout)
		result, err := uc.gateway.ProcessRenewal(callCtx, sub.UserID, sub.PlanID, sub.AmountCents)
		cancel()
		if err != nil {
			metrics.IncRenewal("transient_error")
			uc.log.Warn().Err(err).
				Str("subscription_id", sub.ID).
				Str("user_id", sub.UserID).
				Msg("renewal attempt failed; will retry next cycle")
			continue
		}

		if result.Success {
			sub.Renew(result.PaymentIntentID, now)
			if err := uc.subRepo.Save(ctx, repository.NoTX, sub); err != nil {
				uc.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("persist renewed subscription")
				continue
			}
			metrics.IncRenewal("renewed")
			renewed++
			uc.log.Info().
				Str("user_id", sub.UserID).
				Str("plan_name", sub.PlanName).
				Time("expires_at", *sub.ExpiresAt).
				Msg("subscription renewed")
			continue
		}

		sub.MarkPaymentFailed()
		if err := uc.subRepo.Save(ctx, repository.NoTX, sub); err != nil {
			uc.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("persist lapsed subscription")
			continue
		}
		metrics.IncRenewal("declined")
		lapsed++
		uc.log.Warn().
			Str("user_id", sub.UserID).
			Str("plan_name", sub.PlanName).
			Str("reason", result.ErrorMessage).
			Msg("subscription renewal declined")
	}
	return renewed, lapsed, nil
}

// CountByStatus delegates to the repo (admin stats).
func (uc *SubscriptionUseCase) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return uc.subRepo.CountByStatus(ctx, repository.NoTX)
}
