package model

import "time"

type EntitlementState string

const (
	// EntitlementExempt covers admins and special users: unlimited access,
	// no trial accounting.
	EntitlementExempt EntitlementState = "exempt"
	// EntitlementSubscribed means an entitled subscription covers `now`.
	EntitlementSubscribed   EntitlementState = "subscribed"
	EntitlementTrialActive  EntitlementState = "trial_active"
	EntitlementTrialExpired EntitlementState = "trial_expired"
)

// Entitlement is the outcome of an entitlement evaluation.
type Entitlement struct {
	State    EntitlementState `json:"state"`
	DaysLeft int              `json:"days_left"` // meaningful for trial_active only
}

// CanGenerate reports whether the state permits meal-plan generation at all
// (quota aside).
func (e Entitlement) CanGenerate() bool {
	return e.State != EntitlementTrialExpired
}

// TrialDaysLeft computes whole days remaining until trialEnd, floored and
// clamped to zero ("days remaining" semantics, never negative).
func TrialDaysLeft(now, trialEnd time.Time) int {
	if !now.Before(trialEnd) {
		return 0
	}
	return int(trialEnd.Sub(now).Hours() / 24)
}
