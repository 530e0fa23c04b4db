package model

import (
	"time"

	"mealplan-subscription/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending       SubscriptionStatus = "pending"
	SubscriptionStatusActive        SubscriptionStatus = "active"
	SubscriptionStatusCancelled     SubscriptionStatus = "cancelled"
	SubscriptionStatusPaymentFailed SubscriptionStatus = "payment_failed"
)

// Subscription is a user's paid (or free-tier) subscription instance.
//
// IsActive is deliberately NOT a stored field: the original schema kept it
// alongside Status and the two drifted. It is derived from Status here.
type Subscription struct {
	ID              string             `json:"id"` // UUID
	UserID          string             `json:"user_id"`
	PlanID          string             `json:"plan_id"`
	PlanName        string             `json:"plan_name"`
	AmountCents     int64              `json:"amount_cents"` // minor units
	PaymentIntentID string             `json:"payment_intent_id"`
	Status          SubscriptionStatus `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	ExpiresAt       *time.Time         `json:"expires_at"` // nil = never expires
}

// NewSubscription creates a subscription in the given initial status.
func NewSubscription(id, userID string, plan *Plan, intentID string, status SubscriptionStatus, now time.Time, expiresAt *time.Time) (*Subscription, error) {
	if id == "" || userID == "" || plan == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:              id,
		UserID:          userID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		AmountCents:     plan.PriceCents,
		PaymentIntentID: intentID,
		Status:          status,
		CreatedAt:       now,
		ExpiresAt:       expiresAt,
	}, nil
}

// IsActive reports whether the subscription is in the active status.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// IsEntitled reports whether the subscription still grants access at `now`.
// A cancelled subscription keeps entitlement until its paid-through date.
func (s *Subscription) IsEntitled(now time.Time) bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusCancelled:
	default:
		return false
	}
	if s.Status == SubscriptionStatusCancelled && s.ExpiresAt == nil {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// DueForRenewal reports whether the renewal processor should pick this
// subscription up: active, expiring, and inside the due window.
func (s *Subscription) DueForRenewal(now time.Time, window time.Duration) bool {
	if s.Status != SubscriptionStatusActive || s.ExpiresAt == nil {
		return false
	}
	return !s.ExpiresAt.After(now.Add(window))
}

// Renew extends the subscription by one month from its previous expiry,
// preserving billing-cycle alignment, and records the new intent id.
func (s *Subscription) Renew(intentID string, now time.Time) {
	if s.ExpiresAt != nil {
		next := s.ExpiresAt.AddDate(0, 1, 0)
		s.ExpiresAt = &next
	} else {
		next := now.AddDate(0, 1, 0)
		s.ExpiresAt = &next
	}
	s.PaymentIntentID = intentID
}

// MarkPaymentFailed moves the subscription to its terminal declined state.
func (s *Subscription) MarkPaymentFailed() {
	s.Status = SubscriptionStatusPaymentFailed
}
