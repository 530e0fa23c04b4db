package ai

import (
	"fmt"
	"strings"

	"mealplan-subscription/internal/domain/ports/adapter"
)

const systemPrompt = `You are a professional nutritionist. Produce a complete daily meal plan
as plain text, one section per meal, with portion sizes and a short
preparation note for each dish. Respect every restriction and allergy
exactly; never suggest an excluded ingredient.`

// buildUserPrompt flattens the dietary inputs into the single user message
// every provider receives. Empty fields are omitted rather than sent as
// blank lines.
func buildUserPrompt(req adapter.MealPlanRequest) string {
	var b strings.Builder
	meals := req.MealsPerDay
	if meals <= 0 {
		meals = 3
	}
	fmt.Fprintf(&b, "Create a meal plan with %d meals for one day.\n", meals)
	if req.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", req.Goal)
	}
	if req.Restrictions != "" {
		fmt.Fprintf(&b, "Dietary restriction: %s\n", req.Restrictions)
	}
	if req.Allergies != "" {
		fmt.Fprintf(&b, "Allergies (must avoid): %s\n", req.Allergies)
	}
	if req.Favorites != "" {
		fmt.Fprintf(&b, "Preferred foods: %s\n", req.Favorites)
	}
	if req.Avoid != "" {
		fmt.Fprintf(&b, "Disliked foods: %s\n", req.Avoid)
	}
	return b.String()
}
