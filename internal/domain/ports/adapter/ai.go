package adapter

import "context"

// MealPlanRequest captures the dietary inputs for a generation.
type MealPlanRequest struct {
	Goal         string
	Restrictions string
	Allergies    string
	Favorites    string
	Avoid        string
	MealsPerDay  int
}

// MealPlanGenerator is the port for LLM providers that produce meal-plan
// text. The returned string is stored verbatim; parsing it into structured
// day/meal data is not this service's concern.
type MealPlanGenerator interface {
	Name() string
	Generate(ctx context.Context, req MealPlanRequest) (string, error)
}
