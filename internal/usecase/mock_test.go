//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"mealplan-subscription/internal/domain"
	"mealplan-subscription/internal/domain/model"
	"mealplan-subscription/internal/domain/ports/adapter"
	"mealplan-subscription/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fakeClock is a settable clock for deterministic time-based assertions.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ adapter.Clock = (*fakeClock)(nil)

// =============================
// Repositories
// =============================

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription

	SaveFunc               func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindActiveByUserFunc   func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
	FindEntitledByUserFunc func(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Subscription, error)
	FindDueForRenewalFunc  func(ctx context.Context, tx repository.Tx, now time.Time, window time.Duration) ([]*model.Subscription, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindByIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.PaymentIntentID == intentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindActiveByUserFunc != nil {
		return m.FindActiveByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.UserID == userID && s.Status == model.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindEntitledByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Subscription, error) {
	if m.FindEntitledByUserFunc != nil {
		return m.FindEntitledByUserFunc(ctx, tx, userID, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.UserID == userID && s.IsEntitled(now) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindDueForRenewal(ctx context.Context, tx repository.Tx, now time.Time, window time.Duration) ([]*model.Subscription, error) {
	if m.FindDueForRenewalFunc != nil {
		return m.FindDueForRenewalFunc(ctx, tx, now, window)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.DueForRenewal(now, window) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.SubscriptionStatus]int)
	for _, s := range m.subs {
		counts[s.Status]++
	}
	return counts, nil
}

// Get returns the stored copy for assertions.
func (m *MockSubscriptionRepo) Get(id string) *model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id]
}

// ---- Mock PreferenceRepository ----

type MockPreferenceRepo struct {
	mu    sync.Mutex
	prefs map[string]*model.UserPreference

	FindOrCreateFunc         func(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.UserPreference, bool, error)
	IncrementGenerationsFunc func(ctx context.Context, tx repository.Tx, userID string) error
}

var _ repository.PreferenceRepository = (*MockPreferenceRepo)(nil)

func NewMockPreferenceRepo() *MockPreferenceRepo {
	return &MockPreferenceRepo{prefs: make(map[string]*model.UserPreference)}
}

func (m *MockPreferenceRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.prefs[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockPreferenceRepo) FindOrCreate(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.UserPreference, bool, error) {
	if m.FindOrCreateFunc != nil {
		return m.FindOrCreateFunc(ctx, tx, userID, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.prefs[userID]; ok {
		cp := *p
		return &cp, false, nil
	}
	start := now
	p := &model.UserPreference{UserID: userID, TrialStartDate: &start, UpdatedAt: now}
	m.prefs[userID] = p
	cp := *p
	return &cp, true, nil
}

func (m *MockPreferenceRepo) Save(ctx context.Context, tx repository.Tx, pref *model.UserPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pref
	// like the store: trial_start_date is write-once and the generation
	// counter only moves through IncrementGenerations
	if old, ok := m.prefs[pref.UserID]; ok {
		if old.TrialStartDate != nil {
			cp.TrialStartDate = old.TrialStartDate
		}
		cp.MealPlanGenerations = old.MealPlanGenerations
	}
	m.prefs[pref.UserID] = &cp
	return nil
}

func (m *MockPreferenceRepo) IncrementGenerations(ctx context.Context, tx repository.Tx, userID string) error {
	if m.IncrementGenerationsFunc != nil {
		return m.IncrementGenerationsFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prefs[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.MealPlanGenerations++
	return nil
}

// Put seeds a record for assertions.
func (m *MockPreferenceRepo) Put(p *model.UserPreference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[p.UserID] = p
}

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.plans[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

// ---- Mock MealPlanRepository ----

type MockMealPlanRepo struct {
	mu    sync.Mutex
	plans []*model.MealPlan

	SaveFunc func(ctx context.Context, tx repository.Tx, plan *model.MealPlan) error
}

var _ repository.MealPlanRepository = (*MockMealPlanRepo)(nil)

func NewMockMealPlanRepo() *MockMealPlanRepo { return &MockMealPlanRepo{} }

func (m *MockMealPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.MealPlan) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, plan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.plans = append(m.plans, &cp)
	return nil
}

func (m *MockMealPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MealPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockMealPlanRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.MealPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MealPlan
	for _, p := range m.plans {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockMealPlanRepo) SetFavorite(ctx context.Context, tx repository.Tx, userID, id string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == id && p.UserID == userID {
			p.Favorite = favorite
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockMealPlanRepo) Stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plans)
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu sync.Mutex

	CreateIntentFunc   func(ctx context.Context, amountCents int64, currency, planID, planName string) (*model.PaymentIntent, error)
	ConfirmPaymentFunc func(ctx context.Context, intentID string) error
	ProcessRenewalFunc func(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error)

	RenewalCalls []string // user ids, in call order
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, amountCents int64, currency, planID, planName string) (*model.PaymentIntent, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, amountCents, currency, planID, planName)
	}
	return &model.PaymentIntent{ID: "pi_test_1", ClientSecret: "secret", AmountCents: amountCents, Currency: currency}, nil
}

func (m *MockPaymentGateway) ConfirmPayment(ctx context.Context, intentID string) error {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, intentID)
	}
	return nil
}

func (m *MockPaymentGateway) ProcessRenewal(ctx context.Context, userID, planID string, amountCents int64) (*model.PaymentResult, error) {
	m.mu.Lock()
	m.RenewalCalls = append(m.RenewalCalls, userID)
	m.mu.Unlock()
	if m.ProcessRenewalFunc != nil {
		return m.ProcessRenewalFunc(ctx, userID, planID, amountCents)
	}
	return &model.PaymentResult{Success: true, PaymentIntentID: "pi_renewal_1"}, nil
}

// ---- Mock MealPlanGenerator ----

type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req adapter.MealPlanRequest) (string, error)
}

var _ adapter.MealPlanGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) Generate(ctx context.Context, req adapter.MealPlanRequest) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "Breakfast: oats\nLunch: salad\nDinner: salmon", nil
}

// ---- Mock TransactionManager ----

// MockTxManager runs the function with a non-pgx Tx marker; repositories
// and lock helpers treat it as the non-transactional path.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
