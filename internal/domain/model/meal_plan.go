package model

import "time"

// MealPlan is one generated plan, stored as the raw text the generator
// returned. Structured extraction is out of scope here.
type MealPlan struct {
	ID          string    `json:"id"` // ULID, sortable by generation time
	UserID      string    `json:"user_id"`
	PlanText    string    `json:"plan_text"`
	Goal        string    `json:"goal"`
	MealsPerDay int       `json:"meals_per_day"`
	GeneratedAt time.Time `json:"generated_at"`
	Favorite    bool      `json:"favorite"`
}
