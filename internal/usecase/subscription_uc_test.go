//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/usecase"
)

func TestSubscriptionUseCase_Subscribe(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	mockTxManager := NewMockTxManager()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	freePlan := &model.Plan{ID: "free", Name: "Free", PriceCents: 0}
	paidPlan := &model.Plan{ID: "monthly", Name: "Monthly", PriceCents: 999}

	t.Run("should activate a free plan immediately with a one month expiry", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockPlanRepo := NewMockPlanRepo()
		mockPlanRepo.Save(ctx, nil, freePlan)
		gateway := &MockPaymentGateway{}
		clk := newFakeClock(start)

		uc := usecase.NewSubscriptionUseCase(mockPlanRepo, mockSubRepo, gateway, mockTxManager, clk, "usd", 24*time.Hour, 30*time.Second, testLogger)

		// --- Act ---
		sub, intent, err := uc.Subscribe(ctx, "user-123", "free")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.Status != model.SubscriptionStatusActive {
			t.Errorf("expected free plan to activate immediately, got '%s'", sub.Status)
		}
		if intent != nil {
			t.Error("free plan must not create a payment intent")
		}
		wantExp := start.AddDate(0, 1, 0)
		if sub.ExpiresAt == nil || !sub.ExpiresAt.Equal(wantExp) {
			t.Errorf("expected expiry %v, got %v", wantExp, sub.ExpiresAt)
		}
	})

	t.Run("should create a pending subscription and an intent for a paid plan", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockPlanRepo := NewMockPlanRepo()
		mockPlanRepo.Save(ctx, nil, paidPlan)
		gateway := &MockPaymentGateway{}
		clk := newFakeClock(start)

		uc := usecase.NewSubscriptionUseCase(mockPlanRepo, mockSubRepo, gateway, mockTxManager, clk, "usd", 24*time.Hour, 30*time.Second, testLogger)

		// --- Act ---
		sub, intent, err := uc.Subscribe(ctx, "user-123", "monthly")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.Status != model.SubscriptionStatusPending {
			t.Errorf("expected pending status before confirmation, got '%s'", sub.Status)
		}
		if intent == nil || intent.ID == "" {
			t.Fatal("expected a payment intent for a paid plan")
		}
		if sub.PaymentIntentID != intent.ID {
			t.Errorf("subscription should carry the intent id %q, got %q", intent.ID, sub.PaymentIntentID)
		}
		if sub.ExpiresAt != nil {
			t.Error("pending subscription must not have an expiry yet")
		}
		if sub.AmountCents != 999 {
			t.Errorf("expected amount 999, got %d", sub.AmountCents)
		}
	})

	t.Run("should reject a second subscription while one is active", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockPlanRepo := NewMockPlanRepo()
		mockPlanRepo.Save(ctx, nil, paidPlan)
		gateway := &MockPaymentGateway{}
		clk := newFakeClock(start)

		exp := start.AddDate(0, 1, 0)
		mockSubRepo.Save(ctx, nil, &model.Subscription{
			ID: "sub-existing", UserID: "user-123", Status: model.SubscriptionStatusActive, ExpiresAt: &exp,
		})
		uc := usecase.NewSubscriptionUseCase(mockPlanRepo, mockSubRepo, gateway, mockTxManager, clk, "usd", 24*time.Hour, 30*time.Second, testLogger)

		// --- Act ---
		_, _, err := uc.Subscribe(ctx, "user-123", "monthly")

		// --- Assert ---
		if !errors.Is(err, domain.ErrActiveSubscriptionExists) {
			t.Errorf("expected ErrActiveSubscriptionExists, got %v", err)
		}
	})

	t.Run("should fail for an unknown plan", func(t *testing.T) {
		uc := usecase.NewSubscriptionUseCase(NewMockPlanRepo(), NewMockSubscriptionRepo(), &MockPaymentGateway{}, mockTxManager, newFakeClock(start), "usd", 24*time.Hour, 30*time.Second, testLogger)
		if _, _, err := uc.Subscribe(ctx, "user-123", "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSubscriptionUseCase_ConfirmCheckout(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	mockTxManager := NewMockTxManager()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	paidPlan := &model.Plan{ID: "monthly", Name: "Monthly", PriceCents: 999}

	newUC := func(subRepo *MockSubscriptionRepo, gw *MockPaymentGateway, clk *fakeClock) *usecase.SubscriptionUseCase {
		planRepo := NewMockPlanRepo()
		planRepo.Save(ctx, nil, paidPlan)
		return usecase.NewSubscriptionUseCase(planRepo, subRepo, gw, mockTxManager, clk, "usd", 24*time.Hour, 30*time.Second, testLogger)
	}

	t.Run("should activate the pending subscription for one month", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockSubRepo.Save(ctx, nil, &model.Subscription{
			ID: "sub-1", UserID: "user-123", PlanID: "monthly", PlanName: "Monthly",
			PaymentIntentID: "pi_1", Status: model.SubscriptionStatusPending,
		})
		clk := newFakeClock(start)
		uc := newUC(mockSubRepo, &MockPaymentGateway{}, clk)

		// --- Act ---
		sub, err := uc.ConfirmCheckout(ctx, "pi_1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.Status != model.SubscriptionStatusActive {
			t.Errorf("expected active after confirmation, got '%s'", sub.Status)
		}
		wantExp := start.AddDate(0, 1, 0)
		if sub.ExpiresAt == nil || !sub.ExpiresAt.Equal(wantExp) {
			t.Errorf("expected expiry %v, got %v", wantExp, sub.ExpiresAt)
		}
	})

	t.Run("should be idempotent on confirmation retries", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		exp := start.AddDate(0, 1, 0)
		mockSubRepo.Save(ctx, nil, &model.Subscription{
			ID: "sub-1", UserID: "user-123", PaymentIntentID: "pi_1",
			Status: model.SubscriptionStatusActive, ExpiresAt: &exp,
		})
		clk := newFakeClock(start.Add(48 * time.Hour))
		uc := newUC(mockSubRepo, &MockPaymentGateway{}, clk)

		// --- Act ---
		sub, err := uc.ConfirmCheckout(ctx, "pi_1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected retry to succeed, got: %v", err)
		}
		if sub.ExpiresAt == nil || !sub.ExpiresAt.Equal(exp) {
			t.Errorf("retry must not move the expiry: want %v, got %v", exp, sub.ExpiresAt)
		}
	})

	t.Run("should surface a gateway refusal", func(t *testing.T) {
		// --- Arrange ---
		gw := &MockPaymentGateway{}
		gw.ConfirmPaymentFunc = func(ctx context.Context, intentID string) error {
			return domain.ErrUnknownPaymentIntent
		}
		uc := newUC(NewMockSubscriptionRepo(), gw, newFakeClock(start))

		// --- Act ---
		_, err := uc.ConfirmCheckout(ctx, "pi_bogus")

		// --- Assert ---
		if !errors.Is(err, domain.ErrUnknownPaymentIntent) {
			t.Errorf("expected ErrUnknownPaymentIntent, got %v", err)
		}
	})
}

func TestSubscriptionUseCase_Cancel(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	mockTxManager := NewMockTxManager()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should mark the active subscription cancelled and keep its expiry", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		exp := start.Add(20 * 24 * time.Hour)
		mockSubRepo.Save(ctx, nil, &model.Subscription{
			ID: "sub-1", UserID: "user-123", Status: model.SubscriptionStatusActive, ExpiresAt: &exp,
		})
		uc := usecase.NewSubscriptionUseCase(NewMockPlanRepo(), mockSubRepo, &MockPaymentGateway{}, mockTxManager, newFakeClock(start), "usd", 24*time.Hour, 30*time.Second, testLogger)

		// --- Act ---
		sub, err := uc.Cancel(ctx, "user-123")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.Status != model.SubscriptionStatusCancelled {
			t.Errorf("expected cancelled, got '%s'", sub.Status)
		}
		if sub.ExpiresAt == nil || !sub.ExpiresAt.Equal(exp) {
			t.Errorf("cancel must keep the paid-through date %v, got %v", exp, sub.ExpiresAt)
		}
		if !sub.IsEntitled(start) {
			t.Error("cancelled subscription should stay entitled until expiry")
		}
	})

	t.Run("should fail when there is nothing to cancel", func(t *testing.T) {
		uc := usecase.NewSubscriptionUseCase(NewMockPlanRepo(), NewMockSubscriptionRepo(), &MockPaymentGateway{}, mockTxManager, newFakeClock(start), "usd", 24*time.Hour, 30*time.Second, testLogger)
		if _, err := uc.Cancel(ctx, "user-123"); !errors.Is(err, domain.ErrNoActiveSubscription) {
			t.Errorf("expected ErrNoActiveSubscription, got %v", err)
		}
	})
}

func TestSubscriptionUseCase_ProcessRenewals(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	mockTxManager := NewMockTxManager()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	activeSub := func(id, userID string, expiresAt time.Time) *model.Subscription {
		exp := expiresAt
		return &model.Subscription{
			ID: id, UserID: userID, PlanID: "monthly", PlanName: "Monthly",
			AmountCents: 999, Status: model.SubscriptionStatusActive, ExpiresAt: &exp,
		}
	}

	newUC := func(subRepo *MockSubscriptionRepo, gw *MockPaymentGateway) *usecase.SubscriptionUseCase {
		return usecase.NewSubscriptionUseCase(NewMockPlanRepo(), subRepo, gw, mockTxManager, newFakeClock(now), "usd", 24*time.Hour, 30*time.Second, testLogger)
	}

	t.Run("should renew only subscriptions due within the window", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockSubRepo.Save(ctx, nil, activeSub("sub-due", "u-due", now.Add(6*time.Hour)))
		mockSubRepo.Save(ctx, nil, activeSub("sub-later", "u-later", now.Add(72*time.Hour)))
		gw := &MockPaymentGateway{}
		uc := newUC(mockSubRepo, gw)

		// --- Act ---
		renewed, lapsed, err := uc.ProcessRenewals(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if renewed != 1 || lapsed != 0 {
			t.Errorf("expected 1 renewed / 0 lapsed, got %d / %d", renewed, lapsed)
		}
		if len(gw.RenewalCalls) != 1 || gw.RenewalCalls[0] != "u-due" {
			t.Errorf("expected one renewal call for u-due, got %v", gw.RenewalCalls)
		}
	})

	t.Run("should extend expiry one month from the previous expiry, not from now", func(t *testing.T) {
		// --- Arrange ---
		oldExp := now.Add(6 * time.Hour)
		mockSubRepo := NewMockSubscriptionRepo()
		mockSubRepo.Save(ctx, nil, activeSub("sub-1", "u1", oldExp))
		uc := newUC(mockSubRepo, &MockPaymentGateway{})

		// --- Act ---
		if _, _, err := uc.ProcessRenewals(ctx); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		// --- Assert ---
		got := mockSubRepo.Get("sub-1")
		wantExp := oldExp.AddDate(0, 1, 0)
		if got.ExpiresAt == nil || !got.ExpiresAt.Equal(wantExp) {
			t.Errorf("expected expiry %v (previous expiry + 1 month), got %v", wantExp, got.ExpiresAt)
		}
		if got.Status != model.SubscriptionStatusActive {
			t.Errorf("renewed subscription must stay active, got '%s'", got.Status)
		}
	})

	t.Run("should move a declined subscription to payment_failed", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockSubRepo.Save(ctx, nil, activeSub("sub-1", "u1", now.Add(6*time.Hour)))
		gw := &MockPaymentGateway{}
		gw.ProcessRenewalFunc = func(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error) {
			return &model.PaymentResult{Success: false, ErrorMessage: "card declined"}, nil
		}
		uc := newUC(mockSubRepo, gw)

		// --- Act ---
		renewed, lapsed, err := uc.ProcessRenewals(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if renewed != 0 || lapsed != 1 {
			t.Errorf("expected 0 renewed / 1 lapsed, got %d / %d", renewed, lapsed)
		}
		got := mockSubRepo.Get("sub-1")
		if got.Status != model.SubscriptionStatusPaymentFailed {
			t.Errorf("expected payment_failed, got '%s'", got.Status)
		}
	})

	t.Run("should keep a subscription active on a transient gateway error", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockSubRepo.Save(ctx, nil, activeSub("sub-1", "u1", now.Add(6*time.Hour)))
		gw := &MockPaymentGateway{}
		gw.ProcessRenewalFunc = func(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error) {
			return nil, errors.New("gateway timeout")
		}
		uc := newUC(mockSubRepo, gw)

		// --- Act ---
		renewed, lapsed, err := uc.ProcessRenewals(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("a transient failure must not abort the cycle, got: %v", err)
		}
		if renewed != 0 || lapsed != 0 {
			t.Errorf("expected 0 renewed / 0 lapsed, got %d / %d", renewed, lapsed)
		}
		got := mockSubRepo.Get("sub-1")
		if got.Status != model.SubscriptionStatusActive {
			t.Errorf("transient failure must leave the subscription active, got '%s'", got.Status)
		}
	})

	t.Run("should isolate failures so the rest of the batch still processes", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockSubRepo.Save(ctx, nil, activeSub("sub-a", "u-a", now.Add(2*time.Hour)))
		mockSubRepo.Save(ctx, nil, activeSub("sub-b", "u-b", now.Add(6*time.Hour)))
		gw := &MockPaymentGateway{}
		gw.ProcessRenewalFunc = func(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error) {
			if userID == "u-a" {
				return nil, errors.New("connection reset")
			}
			return &model.PaymentResult{Success: true, PaymentIntentID: "pi_b"}, nil
		}
		uc := newUC(mockSubRepo, gw)

		// --- Act ---
		renewed, _, err := uc.ProcessRenewals(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if renewed != 1 {
			t.Errorf("expected the healthy subscription to renew, renewed=%d", renewed)
		}
		if len(gw.RenewalCalls) != 2 {
			t.Errorf("both subscriptions should be attempted, got %d calls", len(gw.RenewalCalls))
		}
	})

	t.Run("should stop between subscriptions when the context is cancelled", func(t *testing.T) {
		// --- Arrange ---
		mockSubRepo := NewMockSubscriptionRepo()
		mockSubRepo.Save(ctx, nil, activeSub("sub-a", "u-a", now.Add(2*time.Hour)))
		mockSubRepo.Save(ctx, nil, activeSub("sub-b", "u-b", now.Add(6*time.Hour)))

		cancelCtx, cancel := context.WithCancel(ctx)
		gw := &MockPaymentGateway{}
		gw.ProcessRenewalFunc = func(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error) {
			cancel() // cancellation lands mid-batch
			return &model.PaymentResult{Success: true, PaymentIntentID: "pi_x"}, nil
		}
		uc := newUC(mockSubRepo, gw)

		// --- Act ---
		renewed, _, err := uc.ProcessRenewals(cancelCtx)

		// --- Assert ---
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if renewed != 1 {
			t.Errorf("the in-flight renewal should complete before stopping, renewed=%d", renewed)
		}
		if len(gw.RenewalCalls) != 1 {
			t.Errorf("no further subscriptions should be attempted after cancel, got %d calls", len(gw.RenewalCalls))
		}
	})

	t.Run("should treat an empty due list as a clean no-op", func(t *testing.T) {
		uc := newUC(NewMockSubscriptionRepo(), &MockPaymentGateway{})
		renewed, lapsed, err := uc.ProcessRenewals(ctx)
		if err != nil || renewed != 0 || lapsed != 0 {
			t.Errorf("expected clean no-op, got renewed=%d lapsed=%d err=%v", renewed, lapsed, err)
		}
	})
}
