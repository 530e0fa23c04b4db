package model

import "time"

// UserPreference holds a user's dietary preferences plus the trial
// bookkeeping that hangs off the same record: when the free trial started
// and how many meal plans were generated during it.
type UserPreference struct {
	UserID              string
	Likes               string
	Dislikes            string
	Allergies           string
	DietaryRestriction  string
	MealPlanGenerations int
	TrialStartDate      *time.Time
	UpdatedAt           time.Time
}

// TrialEnd returns the exclusive end of the trial window, or nil when the
// trial has not started.
func (p *UserPreference) TrialEnd(trialDays int) *time.Time {
	if p.TrialStartDate == nil {
		return nil
	}
	end := p.TrialStartDate.Add(time.Duration(trialDays) * 24 * time.Hour)
	return &end
}
